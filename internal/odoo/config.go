package odoo

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Operation is a business-level remote operation.
type Operation string

const (
	OpAuthenticate Operation = "authenticate"
	OpCreate       Operation = "create"
	OpRead         Operation = "read"
	OpUpdate       Operation = "update"
	OpDelete       Operation = "delete"
	OpSearch       Operation = "search"
)

// Defaults mirror a stock local Odoo development install.
const (
	DefaultURL       = "http://localhost:8069"
	DefaultDatabase  = "integration_test4"
	DefaultUsername  = "admin"
	DefaultPassword  = "admin"
	DefaultAPIPrefix = "/api"
	DefaultTimeout   = 30 * time.Second

	// AuthPath is the session login endpoint, relative to the URL.
	AuthPath = "/web/session/authenticate"
)

// DefaultVerbs maps each operation onto the HTTP method the remote
// controller expects. read and search are call-style POSTs. create and
// search address the collection path (search is told apart by its
// kwargs); read, update and delete address the record path, which is
// what separates a read POST from a create.
func DefaultVerbs() map[Operation]string {
	return map[Operation]string{
		OpCreate: http.MethodPost,
		OpRead:   http.MethodPost,
		OpUpdate: http.MethodPut,
		OpDelete: http.MethodDelete,
		OpSearch: http.MethodPost,
	}
}

// Config holds everything needed to reach the remote endpoint.
type Config struct {
	// URL is the root of the Odoo server, e.g. "http://localhost:8069".
	URL string

	Database string
	Username string
	Password string

	// APIPrefix is prepended to collection paths. Defaults to "/api".
	APIPrefix string

	// Collections maps model names ("stap.model") onto collection path
	// segments ("stap_models"). Unmapped models use CollectionName.
	Collections map[string]string

	// Verbs overrides the HTTP method per operation. Missing entries fall
	// back to DefaultVerbs.
	Verbs map[Operation]string

	// Timeout bounds every HTTP exchange when HTTPClient is nil.
	Timeout time.Duration

	// HTTPClient is used for all requests. A cookie jar is attached if it
	// has none, since the session id travels as a cookie.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// withDefaults returns a copy of c with empty fields resolved.
func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.APIPrefix == "" {
		c.APIPrefix = DefaultAPIPrefix
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		c.APIPrefix = "/" + c.APIPrefix
	}
	c.APIPrefix = strings.TrimRight(c.APIPrefix, "/")
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	verbs := DefaultVerbs()
	for op, method := range c.Verbs {
		verbs[op] = strings.ToUpper(method)
	}
	c.Verbs = verbs

	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

func (c Config) validate() error {
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("odoo: URL must be http or https (got %q)", c.URL)
	}
	if c.Database == "" {
		return fmt.Errorf("odoo: database is required")
	}
	if c.Username == "" {
		return fmt.Errorf("odoo: username is required")
	}
	return nil
}

// CollectionName derives the collection path segment for a model:
// dots become underscores and an "s" is appended ("stap.model" ->
// "stap_models").
func CollectionName(model string) string {
	name := strings.ReplaceAll(model, ".", "_")
	if strings.HasSuffix(name, "s") {
		return name
	}
	return name + "s"
}
