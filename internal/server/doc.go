// Package server exposes tracked entities over a JSON REST API.
//
// Routes:
//
//	GET    /api/stapmodels       list (query: search, limit, offset)
//	POST   /api/stapmodels       create, 201
//	GET    /api/stapmodels/:id   fetch
//	PUT    /api/stapmodels/:id   replace name (required) and optional remote_id
//	PATCH  /api/stapmodels/:id   partial update
//	DELETE /api/stapmodels/:id   delete, 204
//	GET    /healthz
//
// Successful responses wrap the payload as {"data": ...}; failures are
// {"error": "..."}. Every request runs as its own unit of work: the
// X-Request-ID header is reused or generated and echoed back. Requests
// carrying "X-Sync-Source: odoo" are treated as remote-originated, so the
// sync hook does not push their mutations back to the remote.
package server
