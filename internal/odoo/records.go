package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// DefaultSearchLimit is the page size used when SearchOptions.Limit is 0.
const DefaultSearchLimit = 80

// Record is one remote record as a field map.
type Record map[string]any

// ID returns the record's "id" field, or 0 if absent or not a number.
func (r Record) ID() int64 {
	id, _ := asInt64(r["id"])
	return id
}

// String returns field as a string, or "" if absent or not a string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// SearchOptions controls Search. The zero value matches every record and
// returns the first DefaultSearchLimit of them.
type SearchOptions struct {
	// Domain is an Odoo filter expression, e.g.
	// []any{[]any{"name", "=", "Widget"}}. Empty matches all.
	Domain []any

	// Fields restricts the returned fields. Empty returns all.
	Fields []string

	Limit  int
	Offset int
	Order  string
}

// searchKwargs is the kwargs member of a search call.
type searchKwargs struct {
	Fields []string `json:"fields"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
	Order  string   `json:"order"`
}

func (o SearchOptions) args() ([]any, searchKwargs) {
	domain := o.Domain
	if domain == nil {
		domain = []any{}
	}
	fields := o.Fields
	if fields == nil {
		fields = []string{}
	}
	limit := o.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	offset := o.Offset
	if offset < 0 {
		offset = 0
	}
	return []any{domain}, searchKwargs{
		Fields: fields,
		Limit:  limit,
		Offset: offset,
		Order:  o.Order,
	}
}

// Create creates a record and returns its remote id.
//
// The result is either the bare id or a {"data": [{"id": N}]} wrapper;
// anything else, or a non-positive id, is a KindCreate error. Create is
// not idempotent: every call creates a new remote record.
func (c *Client) Create(ctx context.Context, model string, fields map[string]any) (int64, error) {
	raw, err := c.Invoke(ctx, model, OpCreate, []any{fields}, 0, nil)
	if err != nil {
		return 0, err
	}

	id, err := createdID(raw)
	if err != nil || id <= 0 {
		c.logger.Error("create result has no id", "model", model, "result", string(raw), "error", err)
		return 0, &Error{Kind: KindCreate, Op: OpCreate, Model: model, Field: "data[0].id", Err: err}
	}

	c.logger.Info("record created", "model", model, "remote_id", id)
	return id, nil
}

// createdID extracts the new id from a create result.
func createdID(raw json.RawMessage) (int64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, nil
	}
	if trimmed[0] != '{' {
		var n json.Number
		if err := decodeJSON(trimmed, &n); err != nil {
			return 0, nil
		}
		id, _ := asInt64(n)
		return id, nil
	}

	var payload struct {
		Data []Record `json:"data"`
	}
	if err := decodeJSON(trimmed, &payload); err != nil {
		return 0, err
	}
	if len(payload.Data) == 0 {
		return 0, nil
	}
	return payload.Data[0].ID(), nil
}

// unwrapData returns the value of a lone "data" member, or raw itself.
func unwrapData(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil || len(obj) != 1 {
		return raw
	}
	if data, ok := obj["data"]; ok {
		return data
	}
	return raw
}

// Write updates record id with fields. A falsy result, bare or wrapped
// as {"data": ...}, is a KindRejected error.
func (c *Client) Write(ctx context.Context, model string, id int64, fields map[string]any) error {
	raw, err := c.Invoke(ctx, model, OpUpdate, fields, id, nil)
	if err != nil {
		return err
	}
	if !truthy(unwrapData(raw)) {
		c.logger.Error("failed to update record", "model", model, "remote_id", id)
		return &Error{Kind: KindRejected, Op: OpUpdate, Model: model, RecordID: id}
	}
	c.logger.Info("record updated", "model", model, "remote_id", id)
	return nil
}

// Unlink deletes record id. A falsy result, bare or wrapped, is a
// KindRejected error.
func (c *Client) Unlink(ctx context.Context, model string, id int64) error {
	raw, err := c.Invoke(ctx, model, OpDelete, nil, id, nil)
	if err != nil {
		return err
	}
	if !truthy(unwrapData(raw)) {
		c.logger.Error("failed to delete record", "model", model, "remote_id", id)
		return &Error{Kind: KindRejected, Op: OpDelete, Model: model, RecordID: id}
	}
	c.logger.Info("record deleted", "model", model, "remote_id", id)
	return nil
}

// Read fetches record id. fields restricts the returned fields; none
// returns all. An empty result is a KindNotFound error.
//
// The id travels both in args and in the record path: read is a POST
// like create, so only the record path tells the controller the two
// apart.
func (c *Client) Read(ctx context.Context, model string, id int64, fields ...string) (Record, error) {
	var fieldArg any
	if len(fields) > 0 {
		fieldArg = fields
	}
	raw, err := c.Invoke(ctx, model, OpRead, []any{[]int64{id}, fieldArg}, id, nil)
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords(raw)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: OpRead, Model: model, RecordID: id, Err: err}
	}
	if len(records) == 0 {
		c.logger.Error("failed to read record", "model", model, "remote_id", id)
		return nil, &Error{Kind: KindNotFound, Op: OpRead, Model: model, RecordID: id}
	}
	c.logger.Info("record read", "model", model, "remote_id", id)
	return records[0], nil
}

// Search returns the records matching opts.
func (c *Client) Search(ctx context.Context, model string, opts SearchOptions) ([]Record, error) {
	args, kwargs := opts.args()
	raw, err := c.Invoke(ctx, model, OpSearch, args, 0, kwargs)
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords(raw)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: OpSearch, Model: model, Err: err}
	}
	c.logger.Info("search completed", "model", model, "count", len(records), "limit", kwargs.Limit, "offset", kwargs.Offset)
	return records, nil
}

// decodeRecords accepts a bare array, a {"data": [...]} wrapper, or a
// falsy scalar (no records).
func decodeRecords(raw json.RawMessage) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []Record{}, nil
	}

	switch trimmed[0] {
	case '[':
		var records []Record
		if err := decodeJSON(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return nonNil(records), nil
	case '{':
		var wrapped struct {
			Data []Record `json:"data"`
		}
		if err := decodeJSON(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return nonNil(wrapped.Data), nil
	}

	if truthy(trimmed) {
		return nil, fmt.Errorf("decode records: unexpected result %s", trimmed)
	}
	return []Record{}, nil
}

func nonNil(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	return records
}
