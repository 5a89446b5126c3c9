package odoo

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stapsync/internal/testutil"
)

func TestAuthenticate_StoresUID(t *testing.T) {
	fake := testutil.NewFakeRemote(t, "stap_models")
	logs := &logBuffer{}

	s, err := Authenticate(context.Background(), testConfig(fake, logs))
	require.NoError(t, err)

	assert.Equal(t, int64(2), s.UID())
	assert.Equal(t, fake.URL(), s.Endpoint())
	assert.Equal(t, "integration_test4", s.Database())

	logins := fake.CallsFor(testutil.OpAuthenticate)
	require.Len(t, logins, 1)
	assert.Equal(t, http.MethodPost, logins[0].Method)
	assert.Equal(t, "/web/session/authenticate", logins[0].Path)
	assert.Equal(t, map[string]any{
		"db":       "integration_test4",
		"login":    "admin",
		"password": "admin",
	}, logins[0].Params)
}

func TestAuthenticate_MissingUID(t *testing.T) {
	fake := testutil.NewFakeRemote(t, "stap_models")
	fake.Override(testutil.OpAuthenticate, func(testutil.Call) (int, any) {
		return http.StatusOK, map[string]any{"jsonrpc": "2.0", "result": map[string]any{"db": "x"}}
	})
	logs := &logBuffer{}

	_, err := Dial(context.Background(), testConfig(fake, logs))

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	var oe *Error
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "uid", oe.Field)

	// No further calls after the failed login.
	assert.Len(t, fake.Calls(), 1)
	assert.Empty(t, fake.DataCalls())
	assert.Contains(t, logs.String(), "authentication failed")
}

func TestAuthenticate_FalseUID(t *testing.T) {
	fake := testutil.NewFakeRemote(t, "stap_models")
	fake.Override(testutil.OpAuthenticate, func(testutil.Call) (int, any) {
		return http.StatusOK, map[string]any{"jsonrpc": "2.0", "result": map[string]any{"uid": false}}
	})

	_, err := Authenticate(context.Background(), testConfig(fake, &logBuffer{}))
	assert.ErrorIs(t, err, ErrAuth)
}

func TestAuthenticate_HTTPFailure(t *testing.T) {
	fake := testutil.NewFakeRemote(t, "stap_models")
	fake.Override(testutil.OpAuthenticate, func(testutil.Call) (int, any) {
		return http.StatusInternalServerError, "boom"
	})

	_, err := Authenticate(context.Background(), testConfig(fake, &logBuffer{}))

	require.Error(t, err)
	var oe *Error
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, KindAuth, oe.Kind)
	assert.Equal(t, http.StatusInternalServerError, oe.StatusCode)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	fake := testutil.NewFakeRemote(t, "stap_models")
	cfg := testConfig(fake, &logBuffer{})
	cfg.Password = "wrong"

	_, err := Authenticate(context.Background(), cfg)

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "Access Denied")
}

func TestAuthenticate_ConnectionRefused(t *testing.T) {
	fake := testutil.NewFakeRemote(t, "stap_models")
	cfg := testConfig(fake, &logBuffer{})
	cfg.URL = "http://127.0.0.1:1"

	_, err := Authenticate(context.Background(), cfg)

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	var oe *Error
	require.True(t, errors.As(err, &oe))
	assert.NotNil(t, oe.Err, "transport cause should be wrapped")
}

func TestAuthenticate_InvalidConfig(t *testing.T) {
	_, err := Authenticate(context.Background(), Config{URL: "ftp://x", Database: "db", Username: "u"})
	assert.ErrorIs(t, err, ErrAuth)

	_, err = Authenticate(context.Background(), Config{URL: "http://x"})
	assert.ErrorIs(t, err, ErrAuth)
}

func TestReauthenticate_IssuesNewLogin(t *testing.T) {
	fake := testutil.NewFakeRemote(t, "stap_models")
	s, err := Authenticate(context.Background(), testConfig(fake, &logBuffer{}))
	require.NoError(t, err)

	require.NoError(t, s.Reauthenticate(context.Background()))
	assert.Len(t, fake.CallsFor(testutil.OpAuthenticate), 2)
}
