package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

// Client invokes remote operations over an authenticated Session.
type Client struct {
	session     *Session
	apiPrefix   string
	collections map[string]string
	verbs       map[Operation]string
	logger      *slog.Logger
}

// Dial authenticates and returns a client bound to the new session.
// An authentication failure is returned as-is and leaves no client behind.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	session, err := Authenticate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(session, cfg), nil
}

// NewClient wraps an existing session. Only the routing fields of cfg
// (APIPrefix, Collections, Verbs, Logger) are used.
func NewClient(session *Session, cfg Config) *Client {
	cfg = cfg.withDefaults()
	collections := make(map[string]string, len(cfg.Collections))
	for model, collection := range cfg.Collections {
		collections[model] = collection
	}
	return &Client{
		session:     session,
		apiPrefix:   cfg.APIPrefix,
		collections: collections,
		verbs:       cfg.Verbs,
		logger:      cfg.Logger,
	}
}

// Session returns the session the client issues calls through.
func (c *Client) Session() *Session {
	return c.session
}

// Collection returns the collection path segment for model.
func (c *Client) Collection(model string) string {
	if name, ok := c.collections[model]; ok {
		return name
	}
	return CollectionName(model)
}

// Verb returns the HTTP method op is dispatched with.
func (c *Client) Verb(op Operation) (string, error) {
	method, ok := c.verbs[op]
	if !ok || method == "" {
		return "", fmt.Errorf("odoo: no HTTP verb configured for operation %q", op)
	}
	return method, nil
}

// ResourcePath returns <apiPrefix>/<collection>[/<recordID>].
func (c *Client) ResourcePath(model string, recordID int64) string {
	path := c.apiPrefix + "/" + c.Collection(model)
	if recordID != 0 {
		path += "/" + strconv.FormatInt(recordID, 10)
	}
	return path
}

// Invoke performs one remote call and returns the result member verbatim.
//
// args becomes params.data and kwargs, when non-nil, params.kwargs.
// recordID 0 addresses the collection. When the remote reports the
// session is no longer valid, the session is re-authenticated and the call
// is retried once.
func (c *Client) Invoke(ctx context.Context, model string, op Operation, args any, recordID int64, kwargs any) (json.RawMessage, error) {
	method, err := c.Verb(op)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(NewCall(args, kwargs))
	if err != nil {
		return nil, fmt.Errorf("odoo: encode %s %s: %w", op, model, err)
	}

	call := callInfo{model: model, op: op, method: method, recordID: recordID}
	result, err := c.do(ctx, call, body)
	if err != nil && sessionInvalid(err) {
		if authErr := c.session.Reauthenticate(ctx); authErr != nil {
			return nil, authErr
		}
		result, err = c.do(ctx, call, body)
	}
	return result, err
}

type callInfo struct {
	model    string
	op       Operation
	method   string
	recordID int64
}

func (c *Client) do(ctx context.Context, call callInfo, body []byte) (json.RawMessage, error) {
	url := c.session.endpoint + c.ResourcePath(call.model, call.recordID)
	transportErr := func(status int, err error) error {
		c.logger.Error("remote call failed",
			"model", call.model,
			"op", call.op,
			"method", call.method,
			"url", url,
			"status", status,
			"error", err,
		)
		return &Error{
			Kind:       KindTransport,
			Op:         call.op,
			Model:      call.model,
			RecordID:   call.recordID,
			StatusCode: status,
			Err:        err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, call.method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("odoo: build %s request: %w", call.op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("remote call", "model", call.model, "op", call.op, "method", call.method, "url", url)

	resp, err := c.session.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(resp.StatusCode, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, transportErr(resp.StatusCode, fmt.Errorf("unexpected HTTP status %s", resp.Status))
	}

	envelope, err := decodeResponse(raw)
	if err != nil {
		return nil, transportErr(resp.StatusCode, err)
	}
	if envelope.Error != nil {
		c.logger.Error("remote call returned error",
			"model", call.model,
			"op", call.op,
			"code", envelope.Error.Code,
			"message", envelope.Error.Message,
		)
		return nil, &Error{
			Kind:     KindApplication,
			Op:       call.op,
			Model:    call.model,
			RecordID: call.recordID,
			Code:     envelope.Error.Code,
			Message:  envelope.Error.Message,
			Data:     envelope.Error.Data,
		}
	}
	return envelope.Result, nil
}
