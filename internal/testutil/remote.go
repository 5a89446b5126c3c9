package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Remote operations recognized by FakeRemote. They follow the routing of
// the remote controller: login, then create/search on the collection and
// read/write/unlink on a record path.
const (
	OpAuthenticate = "authenticate"
	OpCreate       = "create"
	OpSearch       = "search"
	OpRead         = "read"
	OpWrite        = "write"
	OpUnlink       = "unlink"
)

const sessionCookie = "session_id"

// Call is one request received by FakeRemote.
type Call struct {
	Op       string
	Method   string
	Path     string
	RecordID int64
	Params   map[string]any
	Body     []byte
}

// Data returns params.data.
func (c Call) Data() any {
	return c.Params["data"]
}

// Kwargs returns params.kwargs as a map, or nil.
func (c Call) Kwargs() map[string]any {
	kw, _ := c.Params["kwargs"].(map[string]any)
	return kw
}

// Responder overrides the response to one operation. body is encoded as
// JSON; a string body is written verbatim.
type Responder func(call Call) (status int, body any)

// FakeRemote is an in-process stand-in for the remote ERP endpoint.
//
// It keeps records in memory, hands out ids starting at NextID, checks the
// session cookie on every collection call and records each request so
// tests can assert on outbound traffic.
type FakeRemote struct {
	server *httptest.Server

	mu         sync.Mutex
	calls      []Call
	records    map[int64]map[string]any
	nextID     int64
	uid        int64
	database   string
	login      string
	password   string
	prefix     string
	sessions   map[string]bool
	sessionSeq int
	overrides  map[string]Responder
}

// NewFakeRemote starts a fake endpoint serving collection under /api.
// The server is closed when the test ends.
func NewFakeRemote(t *testing.T, collection string) *FakeRemote {
	t.Helper()
	f := &FakeRemote{
		records:   make(map[int64]map[string]any),
		nextID:    42,
		uid:       2,
		database:  "integration_test4",
		login:     "admin",
		password:  "admin",
		prefix:    "/api/" + collection,
		sessions:  make(map[string]bool),
		overrides: make(map[string]Responder),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the root URL of the fake endpoint.
func (f *FakeRemote) URL() string {
	return f.server.URL
}

// SetCredentials changes the accepted database, login and password.
func (f *FakeRemote) SetCredentials(database, login, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.database, f.login, f.password = database, login, password
}

// SetNextID sets the id assigned to the next created record.
func (f *FakeRemote) SetNextID(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = id
}

// Override replaces the default behavior for op.
func (f *FakeRemote) Override(op string, r Responder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[op] = r
}

// ExpireSessions invalidates every issued session cookie.
func (f *FakeRemote) ExpireSessions() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = make(map[string]bool)
}

// Seed stores a record under id without recording a call.
func (f *FakeRemote) Seed(id int64, fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := copyFields(fields)
	rec["id"] = id
	f.records[id] = rec
	if id >= f.nextID {
		f.nextID = id + 1
	}
}

// Record returns a copy of the stored record, or nil.
func (f *FakeRemote) Record(id int64) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[id]; ok {
		return copyFields(rec)
	}
	return nil
}

// Calls returns every recorded call in arrival order.
func (f *FakeRemote) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsFor returns the recorded calls for op.
func (f *FakeRemote) CallsFor(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// DataCalls returns every recorded call except logins.
func (f *FakeRemote) DataCalls() []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op != OpAuthenticate {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded calls.
func (f *FakeRemote) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeRemote) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var envelope struct {
		Params map[string]any `json:"params"`
	}
	_ = json.Unmarshal(body, &envelope)

	call := Call{Method: r.Method, Path: r.URL.Path, Params: envelope.Params, Body: body}
	if call.Params == nil {
		call.Params = map[string]any{}
	}

	switch {
	case r.URL.Path == "/web/session/authenticate" && r.Method == http.MethodPost:
		call.Op = OpAuthenticate
	case r.URL.Path == f.prefix:
		call.Op = OpCreate
		if _, ok := call.Params["kwargs"]; ok {
			call.Op = OpSearch
		}
	case strings.HasPrefix(r.URL.Path, f.prefix+"/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, f.prefix+"/"), 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		call.RecordID = id
		switch r.Method {
		case http.MethodPut, http.MethodPatch:
			call.Op = OpWrite
		case http.MethodDelete:
			call.Op = OpUnlink
		default:
			call.Op = OpRead
		}
	default:
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	override := f.overrides[call.Op]
	f.mu.Unlock()

	if override != nil {
		status, resp := override(call)
		writeResponse(w, status, resp)
		return
	}

	if call.Op == OpAuthenticate {
		f.authenticate(w, call)
		return
	}

	if !f.validSession(r) {
		writeResponse(w, http.StatusOK, map[string]any{
			"jsonrpc": "2.0",
			"error":   map[string]any{"code": 100, "message": "Odoo Session Expired"},
		})
		return
	}

	writeResponse(w, http.StatusOK, map[string]any{"jsonrpc": "2.0", "result": f.apply(call)})
}

func (f *FakeRemote) authenticate(w http.ResponseWriter, call Call) {
	f.mu.Lock()
	ok := call.Params["db"] == f.database && call.Params["login"] == f.login && call.Params["password"] == f.password
	var token string
	if ok {
		f.sessionSeq++
		token = fmt.Sprintf("session-%d", f.sessionSeq)
		f.sessions[token] = true
	}
	uid := f.uid
	f.mu.Unlock()

	if !ok {
		writeResponse(w, http.StatusOK, map[string]any{
			"jsonrpc": "2.0",
			"error":   map[string]any{"code": 200, "message": "Access Denied"},
		})
		return
	}

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/"})
	writeResponse(w, http.StatusOK, map[string]any{
		"jsonrpc": "2.0",
		"result":  map[string]any{"uid": uid, "db": call.Params["db"]},
	})
}

func (f *FakeRemote) validSession(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[cookie.Value]
}

// apply executes call against the in-memory records and returns the
// result member.
func (f *FakeRemote) apply(call Call) any {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch call.Op {
	case OpCreate:
		fields := map[string]any{}
		if data, ok := call.Data().([]any); ok && len(data) > 0 {
			if m, ok := data[0].(map[string]any); ok {
				fields = m
			}
		}
		id := f.nextID
		f.nextID++
		rec := copyFields(fields)
		rec["id"] = id
		f.records[id] = rec
		return map[string]any{"data": []any{copyFields(rec)}}

	case OpWrite:
		rec, ok := f.records[call.RecordID]
		if !ok {
			return false
		}
		if fields, ok := call.Data().(map[string]any); ok {
			for k, v := range fields {
				rec[k] = v
			}
		}
		return true

	case OpUnlink:
		if _, ok := f.records[call.RecordID]; !ok {
			return false
		}
		delete(f.records, call.RecordID)
		return true

	case OpRead:
		rec, ok := f.records[call.RecordID]
		if !ok {
			return []any{}
		}
		return []any{copyFields(rec)}

	case OpSearch:
		ids := make([]int64, 0, len(f.records))
		for id := range f.records {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		kw := call.Kwargs()
		offset := intParam(kw["offset"], 0)
		limit := intParam(kw["limit"], len(ids))
		out := []any{}
		for i := offset; i < len(ids) && len(out) < limit; i++ {
			out = append(out, copyFields(f.records[ids[i]]))
		}
		return out
	}
	return false
}

func intParam(v any, def int) int {
	if n, ok := v.(float64); ok {
		return int(n)
	}
	return def
}

func copyFields(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func writeResponse(w http.ResponseWriter, status int, body any) {
	if s, ok := body.(string); ok {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, s)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
