// Package odoo is the synchronization client for the remote Odoo ERP.
//
// It has three layers, each built on the one below:
//
//   - Session: authenticates against /web/session/authenticate and holds
//     the uid plus a cookie jar carrying the server session id. One
//     session serves every call made through a Client.
//   - Gateway (Client.Invoke): builds the versioned JSON-RPC envelope,
//     maps the business operation onto an HTTP verb, dispatches it to
//     <apiPrefix>/<collection>[/<id>] and classifies failures. All remote
//     traffic flows through Invoke so error handling and logging live in
//     one place.
//   - Record operations: Create, Read, Write, Unlink and Search reshape
//     the raw result into each operation's contract.
//
// # Errors
//
// Every failure is an *Error with a Kind. Callers branch with errors.Is
// against the sentinels (ErrAuth, ErrTransport, ErrApplication, ErrCreate,
// ErrRejected, ErrNotFound). A falsy write or unlink result is an
// ErrRejected error rather than a bare false, so all operations share one
// (value, error) shape.
//
// # Concurrency
//
// A Client issues calls sequentially and blocks until the remote answers
// or ctx is done. It is meant to live for one unit of work; create a new
// one with Dial per unit.
package odoo
