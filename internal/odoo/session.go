package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
)

// Session is an authenticated connection to the remote endpoint.
// The server session id lives in the HTTP client's cookie jar and is sent
// with every request made through this session.
type Session struct {
	endpoint string
	database string
	username string
	password string

	uid        int64
	httpClient *http.Client
	logger     *slog.Logger
}

// Authenticate logs in and returns a session holding the user id.
//
// Failures are *Error values of KindAuth: the transport could not connect,
// the status was not 2xx, the remote returned an error envelope, or the
// result lacked a uid. Nothing is retried.
func Authenticate(ctx context.Context, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, &Error{Kind: KindAuth, Op: OpAuthenticate, Err: err}
	}

	httpClient, err := sessionHTTPClient(cfg)
	if err != nil {
		return nil, &Error{Kind: KindAuth, Op: OpAuthenticate, Err: err}
	}

	s := &Session{
		endpoint:   cfg.URL,
		database:   cfg.Database,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
	if err := s.login(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// sessionHTTPClient returns a client with its own cookie jar. A caller
// supplied client is copied so the jar never leaks between sessions.
func sessionHTTPClient(cfg Config) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if cfg.HTTPClient == nil {
		return &http.Client{Timeout: cfg.Timeout, Jar: jar}, nil
	}
	c := *cfg.HTTPClient
	if c.Jar == nil {
		c.Jar = jar
	}
	return &c, nil
}

// UID returns the authenticated user id.
func (s *Session) UID() int64 {
	return s.uid
}

// Endpoint returns the root URL the session is bound to.
func (s *Session) Endpoint() string {
	return s.endpoint
}

// Database returns the tenant database name.
func (s *Session) Database() string {
	return s.database
}

// Reauthenticate runs the login again on the same session, replacing the
// server session cookie and uid.
func (s *Session) Reauthenticate(ctx context.Context) error {
	s.logger.Info("re-authenticating remote session", "endpoint", s.endpoint, "db", s.database)
	return s.login(ctx)
}

func (s *Session) login(ctx context.Context) error {
	authErr := func(format string, args ...any) *Error {
		return &Error{Kind: KindAuth, Op: OpAuthenticate, Message: fmt.Sprintf(format, args...)}
	}

	payload, err := json.Marshal(NewAuthRequest(s.database, s.username, s.password))
	if err != nil {
		return &Error{Kind: KindAuth, Op: OpAuthenticate, Err: fmt.Errorf("encode login: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+AuthPath, bytes.NewReader(payload))
	if err != nil {
		return &Error{Kind: KindAuth, Op: OpAuthenticate, Err: fmt.Errorf("build login request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("failed to connect to remote", "endpoint", s.endpoint, "error", err)
		return &Error{Kind: KindAuth, Op: OpAuthenticate, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindAuth, Op: OpAuthenticate, StatusCode: resp.StatusCode, Err: fmt.Errorf("read login response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("authentication failed", "endpoint", s.endpoint, "status", resp.StatusCode)
		e := authErr("login returned HTTP %d", resp.StatusCode)
		e.StatusCode = resp.StatusCode
		return e
	}

	envelope, err := decodeResponse(body)
	if err != nil {
		return &Error{Kind: KindAuth, Op: OpAuthenticate, StatusCode: resp.StatusCode, Err: err}
	}
	if envelope.Error != nil {
		s.logger.Error("authentication rejected", "endpoint", s.endpoint, "code", envelope.Error.Code, "message", envelope.Error.Message)
		return &Error{
			Kind:    KindAuth,
			Op:      OpAuthenticate,
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
			Data:    envelope.Error.Data,
		}
	}

	var result struct {
		UID any `json:"uid"`
	}
	if len(envelope.Result) > 0 {
		if err := decodeJSON(envelope.Result, &result); err != nil {
			return &Error{Kind: KindAuth, Op: OpAuthenticate, Field: "uid", Err: err}
		}
	}
	uid, ok := asInt64(result.UID)
	if !ok || uid <= 0 {
		s.logger.Error("authentication failed", "endpoint", s.endpoint, "reason", "response has no uid")
		return &Error{Kind: KindAuth, Op: OpAuthenticate, Field: "uid"}
	}

	s.uid = uid
	s.logger.Info("authenticated with remote", "endpoint", s.endpoint, "db", s.database, "uid", uid)
	return nil
}

// asInt64 converts a decoded JSON number into an int64.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}
