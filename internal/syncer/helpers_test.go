package syncer

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stapsync/internal/odoo"
	"github.com/roach88/stapsync/internal/store"
	"github.com/roach88/stapsync/internal/testutil"
)

const testModel = "stap.model"

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

// fixture wires a real store and odoo client against a fake remote.
type fixture struct {
	store  *store.Store
	fake   *testutil.FakeRemote
	logs   *logBuffer
	logger *slog.Logger
	dial   Dialer
	dials  atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		fake: testutil.NewFakeRemote(t, "stap_models"),
		logs: &logBuffer{},
	}
	f.logger = slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := store.Open(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	f.store = s

	dial := DialOdoo(odoo.Config{
		URL:      f.fake.URL(),
		Database: "integration_test4",
		Username: "admin",
		Password: "admin",
		Logger:   f.logger,
	})
	f.dial = func(ctx context.Context) (Remote, error) {
		f.dials.Add(1)
		return dial(ctx)
	}
	return f
}

// newHook builds an enabled hook without registering it.
func (f *fixture) newHook() *Hook {
	return NewHook(HookConfig{
		Model:   testModel,
		Enabled: true,
		Dial:    f.dial,
		Links:   f.store,
		Logger:  f.logger,
	})
}

// register builds an enabled hook and registers it on the store.
func (f *fixture) register() *Hook {
	h := f.newHook()
	f.store.OnCommit(h)
	return h
}

// seedLinked stores an entity already linked to remoteID and mirrors it
// on the fake remote, without any hook running.
func (f *fixture) seedLinked(t *testing.T, name string, remoteID int64) store.Entity {
	t.Helper()
	f.fake.Seed(remoteID, map[string]any{"name": name})
	e, err := f.store.Create(context.Background(), store.NewEntity{Name: name, RemoteID: &remoteID})
	require.NoError(t, err)
	return e
}

func strPtr(s string) *string { return &s }
