package odoo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MatchesSentinelOfItsKind(t *testing.T) {
	err := fmt.Errorf("sync: %w", &Error{Kind: KindRejected, Op: OpUpdate, Model: "stap.model", RecordID: 42})

	assert.ErrorIs(t, err, ErrRejected)
	assert.NotErrorIs(t, err, ErrTransport)
	assert.Equal(t, KindRejected, KindOf(err))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{
			&Error{Kind: KindTransport, Op: OpDelete, Model: "stap.model", RecordID: 3, StatusCode: 502, Err: errors.New("bad gateway")},
			"odoo: transport delete stap.model/3 (status 502): bad gateway",
		},
		{
			&Error{Kind: KindApplication, Op: OpCreate, Model: "stap.model", Code: 200, Message: "Odoo Server Error"},
			"odoo: application create stap.model (code 200): Odoo Server Error",
		},
		{
			&Error{Kind: KindAuth, Op: OpAuthenticate, Field: "uid"},
			`odoo: auth authenticate: missing field "uid"`,
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := &Error{Kind: KindAuth, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsAuthError(err))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestSessionInvalid(t *testing.T) {
	assert.True(t, sessionInvalid(&Error{Kind: KindTransport, StatusCode: 401}))
	assert.True(t, sessionInvalid(&Error{Kind: KindTransport, StatusCode: 403}))
	assert.True(t, sessionInvalid(&Error{Kind: KindApplication, Code: 100}))
	assert.False(t, sessionInvalid(&Error{Kind: KindApplication, Code: 200}))
	assert.False(t, sessionInvalid(&Error{Kind: KindTransport, StatusCode: 500}))
	assert.False(t, sessionInvalid(errors.New("plain")))
}
