package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stapsync/internal/origin"
	"github.com/roach88/stapsync/internal/store"
)

// seenEvent is a hook event plus the context values the hook observed.
type seenEvent struct {
	Op     store.Op
	Remote bool
	Unit   string
}

type contextHook struct {
	mu     sync.Mutex
	events []seenEvent
}

func (h *contextHook) AfterCommit(ctx context.Context, ev store.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, seenEvent{Op: ev.Op, Remote: origin.IsRemote(ctx), Unit: origin.Unit(ctx)})
}

func (h *contextHook) Events() []seenEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]seenEvent(nil), h.events...)
}

// seqUnits generates unit-1, unit-2, ...
type seqUnits struct {
	mu sync.Mutex
	n  int
}

func (g *seqUnits) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("unit-%d", g.n)
}

type testServer struct {
	srv   *Server
	store *store.Store
	hook  *contextHook
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	hook := &contextHook{}
	s.OnCommit(hook)

	srv := New(Config{
		Store:  s,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Units:  &seqUnits{},
	})
	return &testServer{srv: srv, store: s, hook: hook}
}

func (ts *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(resp, req)
	return resp
}

type entityEnvelope struct {
	Data store.Entity `json:"data"`
}

type listEnvelope struct {
	Data []store.Entity `json:"data"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestCreate(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"Widget","id":99}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	got := decode[entityEnvelope](t, resp).Data
	assert.Equal(t, int64(1), got.ID, "id is read-only")
	assert.Equal(t, "Widget", got.Name)
	assert.Nil(t, got.RemoteID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreate_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{}`},
		{"blank name", `{"name":"   "}`},
		{"malformed", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/stapmodels", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Contains(t, resp.Body.String(), `"error"`)
		})
	}
}

func TestCreate_RemoteIDConflict(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"a","remote_id":7}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"b","remote_id":7}`)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestListAndGet(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/stapmodels", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"data":[]}`, resp.Body.String())

	for _, name := range []string{"alpha", "beta", "alphabet"} {
		require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"`+name+`"}`).Code)
	}

	list := decode[listEnvelope](t, ts.do(t, http.MethodGet, "/api/stapmodels", "")).Data
	assert.Len(t, list, 3)

	filtered := decode[listEnvelope](t, ts.do(t, http.MethodGet, "/api/stapmodels?search=alpha", "")).Data
	require.Len(t, filtered, 2)
	assert.Equal(t, "alpha", filtered[0].Name)
	assert.Equal(t, "alphabet", filtered[1].Name)

	paged := decode[listEnvelope](t, ts.do(t, http.MethodGet, "/api/stapmodels?limit=1&offset=1", "")).Data
	require.Len(t, paged, 1)
	assert.Equal(t, "beta", paged[0].Name)

	got := decode[entityEnvelope](t, ts.do(t, http.MethodGet, "/api/stapmodels/2", "")).Data
	assert.Equal(t, "beta", got.Name)
}

func TestList_BadQuery(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/stapmodels?limit=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/stapmodels?offset=-1", "").Code)
}

func TestGet_Errors(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/stapmodels/9", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/stapmodels/abc", "").Code)
}

func TestUpdate(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"Widget"}`).Code)

	resp := ts.do(t, http.MethodPut, "/api/stapmodels/1", `{"name":"Widget2"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Widget2", decode[entityEnvelope](t, resp).Data.Name)

	resp = ts.do(t, http.MethodPatch, "/api/stapmodels/1", `{"remote_id":42}`)
	require.Equal(t, http.StatusOK, resp.Code)
	got := decode[entityEnvelope](t, resp).Data
	assert.Equal(t, "Widget2", got.Name, "PATCH leaves absent fields alone")
	require.NotNil(t, got.RemoteID)
	assert.Equal(t, int64(42), *got.RemoteID)
}

func TestUpdate_Errors(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"Widget"}`).Code)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, "/api/stapmodels/1", `{"remote_id":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPatch, "/api/stapmodels/1", `{"name":""}`).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPut, "/api/stapmodels/2", `{"name":"x"}`).Code)
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"Widget"}`).Code)

	resp := ts.do(t, http.MethodDelete, "/api/stapmodels/1", "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, resp.Body.Bytes())

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/api/stapmodels/1", "").Code)
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"a"}`)
	assert.Equal(t, "unit-1", resp.Header().Get(HeaderRequestID))

	resp = ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"b"}`, HeaderRequestID, "caller-42")
	assert.Equal(t, "caller-42", resp.Header().Get(HeaderRequestID))

	events := ts.hook.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "unit-1", events[0].Unit)
	assert.Equal(t, "caller-42", events[1].Unit)
}

func TestSyncSource_MarksRemoteOrigin(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"local"}`).Code)
	require.Equal(t, http.StatusCreated,
		ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"replayed","remote_id":5}`, HeaderSyncSource, "odoo").Code)
	require.Equal(t, http.StatusOK,
		ts.do(t, http.MethodPatch, "/api/stapmodels/2", `{"name":"replayed again"}`, HeaderSyncSource, "remote").Code)

	events := ts.hook.Events()
	require.Len(t, events, 3)
	assert.False(t, events[0].Remote)
	assert.True(t, events[1].Remote)
	assert.True(t, events[2].Remote)
}

func TestSyncSource_Unknown(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/stapmodels", `{"name":"x"}`, HeaderSyncSource, "salesforce")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, ts.hook.Events())
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	router := gin.New()
	router.Use(RequestUnit(origin.NewFixedGenerator("unit-9")), RequestLogger(logger))
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/boom", nil))

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "unit=unit-9")
	assert.Contains(t, out, "path=/boom")
	assert.Contains(t, out, "status=500")
}
