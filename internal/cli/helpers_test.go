package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stapsync/internal/testutil"
)

// env is a config file and database pointing at a fake remote.
type env struct {
	fake   *testutil.FakeRemote
	config string
	db     string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fake := testutil.NewFakeRemote(t, "stap_models")
	dir := t.TempDir()
	e := &env{
		fake:   fake,
		config: filepath.Join(dir, "stapsync.yaml"),
		db:     filepath.Join(dir, "stapsync.db"),
	}
	content := fmt.Sprintf(`
remote:
  url: %s
store:
  path: %s
log:
  level: debug
`, fake.URL(), e.db)
	require.NoError(t, os.WriteFile(e.config, []byte(content), 0o644))
	return e
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the root command with the env's config.
func (e *env) run(t *testing.T, args ...string) result {
	t.Helper()
	return execute(t, context.Background(), append([]string{"--config", e.config}, args...)...)
}

func execute(t *testing.T, ctx context.Context, args ...string) result {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// decodeResponse parses a JSON-format CLI response.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

// dataMap returns resp.Data as an object.
func dataMap(t *testing.T, resp CLIResponse) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}
