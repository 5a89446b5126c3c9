package odoo

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the JSON-RPC version tag carried by every envelope.
const ProtocolVersion = "2.0"

// callMethod is the JSON-RPC method used for every request.
const callMethod = "call"

// Request is the JSON-RPC request envelope.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// CallParams is the params member of a gateway call.
// Kwargs is omitted when nil.
type CallParams struct {
	Data   any `json:"data"`
	Kwargs any `json:"kwargs,omitempty"`
}

// AuthParams is the params member of the login call.
type AuthParams struct {
	DB       string `json:"db"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Response is the JSON-RPC response envelope. Exactly one of Result or
// Error is set by a well-behaved server.
type Response struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RemoteError    `json:"error,omitempty"`
}

// RemoteError is the error member of a response envelope.
type RemoteError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewCall builds a gateway request envelope. A nil args is sent as an
// empty list.
func NewCall(args, kwargs any) Request {
	if args == nil {
		args = []any{}
	}
	return Request{
		JSONRPC: ProtocolVersion,
		Method:  callMethod,
		Params:  CallParams{Data: args, Kwargs: kwargs},
	}
}

// NewAuthRequest builds the login envelope.
func NewAuthRequest(db, login, password string) Request {
	return Request{
		JSONRPC: ProtocolVersion,
		Method:  callMethod,
		Params:  AuthParams{DB: db, Login: login, Password: password},
	}
}

// decodeResponse parses a response body into its envelope.
func decodeResponse(body []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response envelope: %w", err)
	}
	return resp, nil
}

// decodeJSON unmarshals raw keeping numbers as json.Number so record ids
// survive intact.
func decodeJSON(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// truthy applies the remote's notion of success to a raw result:
// null, false, 0, "" and empty collections are falsy.
func truthy(raw json.RawMessage) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false
	}
	var v any
	if err := decodeJSON(raw, &v); err != nil {
		return false
	}
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}
	return true
}
