package odoo

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stapsync/internal/testutil"
)

const testModel = "stap.model"

// logBuffer is a goroutine-safe sink for captured log output.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testConfig returns a config pointing at fake with logs captured in logs.
func testConfig(fake *testutil.FakeRemote, logs *logBuffer) Config {
	return Config{
		URL:         fake.URL(),
		Database:    "integration_test4",
		Username:    "admin",
		Password:    "admin",
		Collections: map[string]string{testModel: "stap_models"},
		Logger:      slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

// dialFake starts a fake remote and returns an authenticated client.
func dialFake(t *testing.T) (*Client, *testutil.FakeRemote, *logBuffer) {
	t.Helper()
	fake := testutil.NewFakeRemote(t, "stap_models")
	logs := &logBuffer{}
	client, err := Dial(context.Background(), testConfig(fake, logs))
	require.NoError(t, err)
	return client, fake, logs
}
