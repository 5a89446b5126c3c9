package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stapsync/internal/testutil"
)

func TestEntityCreate_MirrorsToRemote(t *testing.T) {
	e := newEnv(t)

	res := e.run(t, "entity", "create", "--name", "Widget")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Widget")
	assert.Contains(t, res.stdout, "42")

	creates := e.fake.CallsFor(testutil.OpCreate)
	require.Len(t, creates, 1)
	assert.Equal(t, []any{map[string]any{"name": "Widget"}}, creates[0].Data())
	assert.Contains(t, res.stderr, "entity synced")
}

func TestEntityCreate_JSON(t *testing.T) {
	e := newEnv(t)

	res := e.run(t, "--format", "json", "entity", "create", "--name", "Widget")
	require.NoError(t, res.err, res.stderr)

	resp := decodeResponse(t, res.stdout)
	assert.Equal(t, "ok", resp.Status)
	data := dataMap(t, resp)
	assert.Equal(t, "Widget", data["name"])
	assert.Equal(t, float64(42), data["remote_id"])

	require.NotEmpty(t, resp.Unit)
	assert.Contains(t, res.stderr, "unit="+resp.Unit, "hook logs carry the command's unit id")
}

func TestEntityUpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.run(t, "entity", "create", "--name", "Widget").err)

	res := e.run(t, "entity", "update", "1", "--name", "Widget2")
	require.NoError(t, res.err, res.stderr)
	writes := e.fake.CallsFor(testutil.OpWrite)
	require.Len(t, writes, 1)
	assert.Equal(t, int64(42), writes[0].RecordID)
	assert.Equal(t, map[string]any{"name": "Widget2"}, writes[0].Data())

	res = e.run(t, "entity", "delete", "1")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "deleted entity 1")
	unlinks := e.fake.CallsFor(testutil.OpUnlink)
	require.Len(t, unlinks, 1)
	assert.Equal(t, int64(42), unlinks[0].RecordID)
}

func TestEntity_RemoteOriginSkipsSync(t *testing.T) {
	e := newEnv(t)

	res := e.run(t, "entity", "create", "--name", "Imported", "--remote-id", "7", "--origin", "remote")
	require.NoError(t, res.err, res.stderr)
	res = e.run(t, "entity", "update", "1", "--name", "Renamed", "--origin", "odoo")
	require.NoError(t, res.err, res.stderr)

	assert.Empty(t, e.fake.Calls())
}

func TestEntity_InvalidOrigin(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, "entity", "list", "--origin", "elsewhere")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestEntityListAndGet(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.run(t, "entity", "create", "--name", "alpha").err)
	require.NoError(t, e.run(t, "entity", "create", "--name", "beta").err)

	res := e.run(t, "--format", "json", "entity", "list", "--search", "alp")
	require.NoError(t, res.err, res.stderr)
	list, ok := decodeResponse(t, res.stdout).Data.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "alpha", list[0].(map[string]any)["name"])

	res = e.run(t, "entity", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "NAME")
	assert.Contains(t, res.stdout, "alpha")
	assert.Contains(t, res.stdout, "beta")

	res = e.run(t, "entity", "get", "2")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "beta")
}

func TestEntityErrors(t *testing.T) {
	e := newEnv(t)

	res := e.run(t, "entity", "get", "99")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))

	res = e.run(t, "--format", "json", "entity", "get", "99")
	require.Error(t, res.err)
	resp := decodeResponse(t, res.stdout)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)

	res = e.run(t, "entity", "get", "abc")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))

	res = e.run(t, "entity", "create", "--name", "   ")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestEntityCreate_RemoteFailureKeepsLocal(t *testing.T) {
	e := newEnv(t)
	e.fake.SetCredentials("integration_test4", "admin", "rotated")

	res := e.run(t, "--format", "json", "entity", "create", "--name", "Widget")
	require.NoError(t, res.err, "sync failures are not command failures")
	data := dataMap(t, decodeResponse(t, res.stdout))
	assert.Nil(t, data["remote_id"])
	assert.Contains(t, res.stderr, "remote sync failed")
}
