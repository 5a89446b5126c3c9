package odoo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes remote failures.
type Kind string

const (
	// KindAuth: a session could not be established.
	KindAuth Kind = "auth"

	// KindTransport: the endpoint could not be reached or answered with a
	// non-2xx status or an undecodable body.
	KindTransport Kind = "transport"

	// KindApplication: the endpoint understood the call and reported an
	// error in the response envelope.
	KindApplication Kind = "application"

	// KindCreate: create succeeded at the transport level but the result
	// carried no record id.
	KindCreate Kind = "create"

	// KindRejected: write or unlink returned a falsy result.
	KindRejected Kind = "rejected"

	// KindNotFound: read returned no record.
	KindNotFound Kind = "not_found"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrAuth        = errors.New("odoo: authentication failed")
	ErrTransport   = errors.New("odoo: transport failure")
	ErrApplication = errors.New("odoo: application error")
	ErrCreate      = errors.New("odoo: create returned no id")
	ErrRejected    = errors.New("odoo: operation rejected")
	ErrNotFound    = errors.New("odoo: record not found")
)

var sentinels = map[Kind]error{
	KindAuth:        ErrAuth,
	KindTransport:   ErrTransport,
	KindApplication: ErrApplication,
	KindCreate:      ErrCreate,
	KindRejected:    ErrRejected,
	KindNotFound:    ErrNotFound,
}

// sessionExpiredCode is the JSON-RPC error code Odoo uses for an expired
// or unknown session.
const sessionExpiredCode = 100

// Error is a classified remote failure.
type Error struct {
	Kind Kind

	// Op and Model identify the failing call. RecordID is 0 when the call
	// was not addressed to a single record.
	Op       Operation
	Model    string
	RecordID int64

	// StatusCode is the HTTP status for transport failures (0 if the
	// request never got a response).
	StatusCode int

	// Code, Message and Data come from the remote error envelope for
	// application failures.
	Code    int
	Message string
	Data    json.RawMessage

	// Field names the missing payload field (auth uid, create id).
	Field string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("odoo: ")
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		fmt.Fprintf(&b, " %s", e.Op)
	}
	if e.Model != "" {
		fmt.Fprintf(&b, " %s", e.Model)
		if e.RecordID != 0 {
			fmt.Fprintf(&b, "/%d", e.RecordID)
		}
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Code != 0 {
		fmt.Fprintf(&b, " (code %d)", e.Code)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": missing field %q", e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsTransportError reports whether err is a transport failure.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsApplicationError reports whether err is an application-level error.
func IsApplicationError(err error) bool {
	return errors.Is(err, ErrApplication)
}

// sessionInvalid reports whether err means the session must be
// re-established before retrying.
func sessionInvalid(err error) bool {
	var oe *Error
	if !errors.As(err, &oe) {
		return false
	}
	switch oe.Kind {
	case KindTransport:
		return oe.StatusCode == 401 || oe.StatusCode == 403
	case KindApplication:
		return oe.Code == sessionExpiredCode
	}
	return false
}
