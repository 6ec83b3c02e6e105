package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/nerrad567/influxgw/internal/failover"
	"github.com/nerrad567/influxgw/internal/hosts"
	"github.com/nerrad567/influxgw/internal/infrastructure/config"
	"github.com/nerrad567/influxgw/internal/infrastructure/logging"
	"github.com/nerrad567/influxgw/internal/influx"
	"github.com/nerrad567/influxgw/internal/series"
)

// ─── Fixtures ──────────────────────────────────────────────────────

const responseTimeBody = `{"results":[{"statement_id":0,"series":[{"name":"response_time",` +
	`"tags":{"company":"barfoo"},"columns":["time","sequence_number","value"],` +
	`"values":[[1383934015207,23168,232],[1383934015208,23169,231]]}]}]}`

const databasesBody = `{"results":[{"statement_id":0,"series":[{"name":"databases",` +
	`"columns":["name"],"values":[["_internal"],["metrics"]]}]}]}`

// backend is a fake database node that records what it receives.
type backend struct {
	srv *httptest.Server

	mu      sync.Mutex
	queries []string
	writes  []string
	params  []url.Values
}

func newBackend(t *testing.T, answers map[string]string) *backend {
	t.Helper()
	b := &backend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.params = append(b.params, r.URL.Query())
		b.mu.Unlock()

		switch r.URL.Path {
		case "/ping":
			w.WriteHeader(http.StatusNoContent)
		case "/write":
			b.mu.Lock()
			b.writes = append(b.writes, string(body))
			b.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		case "/query":
			q := r.URL.Query().Get("q")
			b.mu.Lock()
			b.queries = append(b.queries, q)
			b.mu.Unlock()
			answer, ok := answers[q]
			if !ok {
				answer = `{"results":[{"statement_id":0}]}`
			}
			if strings.HasPrefix(answer, "400 ") {
				w.WriteHeader(http.StatusBadRequest)
				answer = strings.TrimPrefix(answer, "400 ")
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(answer))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) host() config.HostConfig {
	u, _ := url.Parse(b.srv.URL)
	port, _ := strconv.Atoi(u.Port())
	return config.HostConfig{Host: u.Hostname(), Port: port}
}

func (b *backend) sentQueries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.queries...)
}

func (b *backend) sentWrites() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.writes...)
}

func (b *backend) lastParams() url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.params) == 0 {
		return nil
	}
	return b.params[len(b.params)-1]
}

// deadHost returns the address of a server that has already been shut down.
func deadHost() config.HostConfig {
	srv := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(srv.URL)
	srv.Close()
	port, _ := strconv.Atoi(u.Port())
	return config.HostConfig{Host: u.Hostname(), Port: port}
}

// testServer creates a Server backed by an influx client for the given hosts.
func testServer(t *testing.T, list ...config.HostConfig) (*Server, *influx.Client) {
	t.Helper()

	client, err := influx.New(config.InfluxConfig{
		Hosts:           list,
		Protocol:        "http",
		Database:        "metrics",
		Precision:       "ms",
		RequestTimeout:  2000,
		FailoverTimeout: 60000,
	}, influx.WithClock(clock.NewMock()))
	if err != nil {
		t.Fatalf("influx.New() error: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Logger:  logging.Discard(),
		Client:  client,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv, client
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) Error {
	t.Helper()
	var e Error
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("unmarshal error body %q: %v", w.Body.String(), err)
	}
	return e
}

// ─── Construction & Lifecycle ──────────────────────────────────────

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: logging.Discard()}); err == nil {
		t.Error("New() without client should fail")
	}
}

func TestStartAndClose(t *testing.T) {
	b := newBackend(t, nil)
	srv, _ := testServer(t, b.host())

	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer srv.Close()

	if srv.server.ReadTimeout != 5*time.Second || srv.server.WriteTimeout != 5*time.Second ||
		srv.server.IdleTimeout != 5*time.Second {
		t.Errorf("server timeouts = %v/%v/%v, want 5s each",
			srv.server.ReadTimeout, srv.server.WriteTimeout, srv.server.IdleTimeout)
	}

	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestClose_NotStarted(t *testing.T) {
	srv, _ := testServer(t, deadHost())
	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

// ─── Health ────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	b := newBackend(t, nil)
	srv, _ := testServer(t, b.host())

	w := do(t, srv, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp struct {
		Status  string         `json:"status"`
		Version string         `json:"version"`
		Hosts   map[string]int `json:"hosts"`
		MQTT    string         `json:"mqtt"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("status/version = %q/%q, want ok/test", resp.Status, resp.Version)
	}
	if resp.Hosts["available"] != 1 || resp.Hosts["disabled"] != 0 {
		t.Errorf("hosts = %v, want 1 available", resp.Hosts)
	}
	if resp.MQTT != "disabled" {
		t.Errorf("mqtt = %q, want disabled", resp.MQTT)
	}
}

func TestHealth_AllHostsDisabled(t *testing.T) {
	srv, client := testServer(t, deadHost())
	reg := client.Registry()
	reg.MarkDisabled(reg.Hosts()[0], reg.Now())

	w := do(t, srv, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

// ─── Middleware ────────────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv, _ := testServer(t, deadHost())

	w := do(t, srv, http.MethodGet, "/api/v1/timeouts", "")
	id := w.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("X-Request-ID = %q, want a UUID: %v", id, err)
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv, _ := testServer(t, deadHost())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/timeouts", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := testServer(t, deadHost())

	w := do(t, srv, http.MethodGet, "/api/v1/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if e := decodeError(t, w); e.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", e.Code, ErrCodeNotFound)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := testServer(t, deadHost())

	w := do(t, srv, http.MethodDelete, "/api/v1/hosts", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestRecovery(t *testing.T) {
	srv, _ := testServer(t, deadHost())
	handler := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// ─── Hosts & Timeouts ──────────────────────────────────────────────

func TestListHosts(t *testing.T) {
	live := newBackend(t, nil)
	dead := deadHost()
	srv, client := testServer(t, dead, live.host())

	reg := client.Registry()
	reg.MarkDisabled(reg.Hosts()[0], time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	w := do(t, srv, http.MethodGet, "/api/v1/hosts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Available []hostView `json:"available"`
		Disabled  []hostView `json:"disabled"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Available) != 1 || resp.Available[0].Index != 1 {
		t.Errorf("available = %+v, want host index 1", resp.Available)
	}
	if resp.Available[0].Since != nil {
		t.Error("available host should not report disabled_since")
	}
	if len(resp.Disabled) != 1 || resp.Disabled[0].Port != dead.Port {
		t.Fatalf("disabled = %+v, want port %d", resp.Disabled, dead.Port)
	}
	if resp.Disabled[0].Since == nil || resp.Disabled[0].Since.Year() != 2024 {
		t.Errorf("disabled_since = %v, want 2024-01-02", resp.Disabled[0].Since)
	}
}

func TestPing(t *testing.T) {
	live := newBackend(t, nil)
	srv, client := testServer(t, deadHost(), live.host())

	w := do(t, srv, http.MethodGet, "/api/v1/ping", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Results []influx.PingResult `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(resp.Results))
	}
	if resp.Results[0].Healthy || !resp.Results[1].Healthy {
		t.Errorf("healthy = %v/%v, want false/true", resp.Results[0].Healthy, resp.Results[1].Healthy)
	}
	if n := len(client.HostsDisabled()); n != 1 {
		t.Errorf("len(HostsDisabled()) = %d, want 1", n)
	}
}

func TestTimeouts(t *testing.T) {
	srv, client := testServer(t, deadHost())

	w := do(t, srv, http.MethodGet, "/api/v1/timeouts", "")
	if !strings.Contains(w.Body.String(), `"request_timeout_ms":2000`) ||
		!strings.Contains(w.Body.String(), `"failover_timeout_ms":60000`) {
		t.Errorf("GET /timeouts = %s", w.Body.String())
	}

	w = do(t, srv, http.MethodPut, "/api/v1/timeouts", `{"request_timeout_ms":5000,"failover_timeout_ms":2000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp timeoutsBody
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *resp.RequestTimeout != 5000 || *resp.FailoverTimeout != 2000 {
		t.Errorf("echo = %d/%d, want 5000/2000", *resp.RequestTimeout, *resp.FailoverTimeout)
	}
	if client.RequestTimeout() != 5*time.Second || client.FailoverTimeout() != 2*time.Second {
		t.Errorf("client timeouts = %v/%v", client.RequestTimeout(), client.FailoverTimeout())
	}

	// Partial update leaves the other value alone.
	w = do(t, srv, http.MethodPut, "/api/v1/timeouts", `{"failover_timeout_ms":9000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if client.RequestTimeout() != 5*time.Second || client.FailoverTimeout() != 9*time.Second {
		t.Errorf("client timeouts = %v/%v", client.RequestTimeout(), client.FailoverTimeout())
	}
}

func TestTimeouts_Validation(t *testing.T) {
	srv, client := testServer(t, deadHost())

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"empty", `{}`},
		{"zero", `{"request_timeout_ms":0}`},
		{"negative", `{"failover_timeout_ms":-1}`},
		{"request overflow", `{"request_timeout_ms":9223372036854775807}`},
		{"failover overflow", `{"failover_timeout_ms":9223372036855}`},
		{"one valid one overflow", `{"request_timeout_ms":5000,"failover_timeout_ms":9223372036854775807}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPut, "/api/v1/timeouts", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if client.RequestTimeout() != 2*time.Second || client.FailoverTimeout() != time.Minute {
				t.Errorf("client timeouts = %v/%v, want unchanged", client.RequestTimeout(), client.FailoverTimeout())
			}
		})
	}

	// The largest representable value is accepted.
	w := do(t, srv, http.MethodPut, "/api/v1/timeouts", `{"failover_timeout_ms":9223372036854}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

// ─── Query ─────────────────────────────────────────────────────────

func TestQuery_FailsOver(t *testing.T) {
	live := newBackend(t, map[string]string{"SELECT * FROM response_time": responseTimeBody})
	srv, client := testServer(t, deadHost(), live.host())

	w := do(t, srv, http.MethodPost, "/api/v1/query", `{"query":"SELECT * FROM response_time"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Results series.Result `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	entries := resp.Results["response_time"]
	if len(entries) != 2 {
		t.Fatalf("len(response_time) = %d, want 2", len(entries))
	}
	if entries[1].Tags["company"] != "barfoo" || entries[1].Values["value"] != float64(231) {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if got := live.lastParams().Get("db"); got != "metrics" {
		t.Errorf("db = %q, want metrics", got)
	}
	if n := len(client.HostsDisabled()); n != 1 {
		t.Errorf("len(HostsDisabled()) = %d, want 1", n)
	}
}

func TestQuery_Raw(t *testing.T) {
	live := newBackend(t, map[string]string{"SELECT * FROM response_time": responseTimeBody})
	srv, _ := testServer(t, live.host())

	w := do(t, srv, http.MethodPost, "/api/v1/query", `{"database":"other","query":"SELECT * FROM response_time","raw":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var raw series.Response
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(raw.Results) != 1 || len(raw.Results[0].Series) != 1 {
		t.Fatalf("raw = %+v", raw)
	}
	if got := raw.Results[0].Series[0].Columns; len(got) != 3 {
		t.Errorf("columns = %v", got)
	}
	if got := live.lastParams().Get("db"); got != "other" {
		t.Errorf("db = %q, want other", got)
	}
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		down     bool
		wantCode int
		wantErr  string
	}{
		{
			name:     "invalid json",
			body:     `nope`,
			wantCode: http.StatusBadRequest,
			wantErr:  ErrCodeBadRequest,
		},
		{
			name:     "empty statement",
			body:     `{"query":"  "}`,
			wantCode: http.StatusBadRequest,
			wantErr:  ErrCodeValidation,
		},
		{
			name:     "database rejects query",
			body:     `{"query":"SELEC"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  ErrCodeDatabase,
		},
		{
			name:     "error inside 200 answer",
			body:     `{"query":"SELECT * FROM missing"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  ErrCodeDatabase,
		},
		{
			name:     "malformed result",
			body:     `{"query":"SELECT broken"}`,
			wantCode: http.StatusBadGateway,
			wantErr:  ErrCodeBadGateway,
		},
		{
			name:     "every host down",
			body:     `{"query":"SELECT 1"}`,
			down:     true,
			wantCode: http.StatusServiceUnavailable,
			wantErr:  ErrCodeUnavailable,
		},
	}

	answers := map[string]string{
		"SELEC":                 `400 {"error":"error parsing query: found SELEC"}`,
		"SELECT * FROM missing": `{"results":[{"statement_id":0,"error":"measurement not found"}]}`,
		"SELECT broken":         `{"results":[{"statement_id":0,"series":[{"name":"m","columns":["a","b"],"values":[[1]]}]}]}`,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := deadHost()
			if !tt.down {
				host = newBackend(t, answers).host()
			}
			srv, _ := testServer(t, host)

			w := do(t, srv, http.MethodPost, "/api/v1/query", tt.body)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if e := decodeError(t, w); e.Code != tt.wantErr {
				t.Errorf("code = %q, want %q", e.Code, tt.wantErr)
			}
		})
	}
}

func TestQuery_NoHostsAvailable(t *testing.T) {
	srv, client := testServer(t, deadHost())
	reg := client.Registry()
	reg.MarkDisabled(reg.Hosts()[0], reg.Now())

	w := do(t, srv, http.MethodPost, "/api/v1/query", `{"query":"SELECT 1"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

// ─── Write ─────────────────────────────────────────────────────────

func TestWrite(t *testing.T) {
	live := newBackend(t, nil)
	srv, _ := testServer(t, live.host())

	body := `{
		"measurement": "cpu",
		"tags": {"host": "a", "region": "eu"},
		"points": [
			{"fields": {"value": 1, "load": 0.5}, "time": "2013-11-08T18:06:55.207Z"},
			{"fields": {"up": true, "state": "ok"}, "tags": {"host": "b"}, "time": "2013-11-08T18:06:55.208Z"}
		]
	}`
	w := do(t, srv, http.MethodPost, "/api/v1/write", body)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusNoContent, w.Body.String())
	}

	writes := live.sentWrites()
	if len(writes) != 1 {
		t.Fatalf("len(writes) = %d, want 1", len(writes))
	}
	want := "cpu,host=a,region=eu load=0.5,value=1i 1383934015207\n" +
		"cpu,host=b,region=eu state=\"ok\",up=true 1383934015208\n"
	if writes[0] != want {
		t.Errorf("payload =\n%s\nwant\n%s", writes[0], want)
	}
	params := live.lastParams()
	if params.Get("db") != "metrics" || params.Get("precision") != "ms" {
		t.Errorf("params = %v", params)
	}
}

func TestWrite_Validation(t *testing.T) {
	live := newBackend(t, nil)
	srv, _ := testServer(t, live.host())

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `[`},
		{"no points", `{"measurement":"cpu","points":[]}`},
		{"no measurement", `{"points":[{"fields":{"v":1}}]}`},
		{"no fields", `{"measurement":"cpu","points":[{"fields":{}}]}`},
		{"nested field", `{"measurement":"cpu","points":[{"fields":{"v":{"x":1}}}]}`},
		{"null field", `{"measurement":"cpu","points":[{"fields":{"v":null}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/api/v1/write", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d: %s", w.Code, http.StatusBadRequest, w.Body.String())
			}
		})
	}
	if n := len(live.sentWrites()); n != 0 {
		t.Errorf("backend saw %d writes, want 0", n)
	}
}

func TestFieldValues(t *testing.T) {
	got, err := fieldValues(map[string]any{
		"int":    json.Number("42"),
		"float":  json.Number("4.2"),
		"exp":    json.Number("1e3"),
		"string": "x",
		"bool":   false,
	})
	if err != nil {
		t.Fatalf("fieldValues() error: %v", err)
	}
	if got["int"] != int64(42) {
		t.Errorf("int = %#v, want int64(42)", got["int"])
	}
	if got["float"] != 4.2 || got["exp"] != float64(1000) {
		t.Errorf("float/exp = %#v/%#v", got["float"], got["exp"])
	}
	if got["string"] != "x" || got["bool"] != false {
		t.Errorf("string/bool = %#v/%#v", got["string"], got["bool"])
	}
}

// ─── Databases ─────────────────────────────────────────────────────

func TestDatabases(t *testing.T) {
	live := newBackend(t, map[string]string{"SHOW DATABASES": databasesBody})
	srv, _ := testServer(t, live.host())

	w := do(t, srv, http.MethodGet, "/api/v1/databases", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"databases":["_internal","metrics"]`) {
		t.Errorf("list body = %s", w.Body.String())
	}

	w = do(t, srv, http.MethodPost, "/api/v1/databases", `{"name":"mydb"}`)
	if w.Code != http.StatusCreated {
		t.Errorf("create status = %d, want %d", w.Code, http.StatusCreated)
	}

	w = do(t, srv, http.MethodDelete, "/api/v1/databases/mydb", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("drop status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = do(t, srv, http.MethodGet, "/api/v1/databases/mydb/measurements", "")
	if w.Code != http.StatusOK {
		t.Errorf("measurements status = %d", w.Code)
	}

	want := []string{"SHOW DATABASES", `CREATE DATABASE "mydb"`, `DROP DATABASE "mydb"`, "SHOW MEASUREMENTS"}
	got := live.sentQueries()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("queries = %q, want %q", got, want)
	}
}

func TestCreateDatabase_Validation(t *testing.T) {
	srv, _ := testServer(t, deadHost())

	w := do(t, srv, http.MethodPost, "/api/v1/databases", `{"name":""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Error Mapping ─────────────────────────────────────────────────

func TestWriteClientError(t *testing.T) {
	host := hosts.Host{Name: "db1", Port: 8086}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", influx.ErrNoPoints, http.StatusBadRequest},
		{"application 404", &failover.ApplicationError{Host: host, StatusCode: 404, Message: "not found"}, http.StatusNotFound},
		{"application 200", &failover.ApplicationError{Host: host, StatusCode: 200, Message: "bad"}, http.StatusBadRequest},
		{"application 500", &failover.ApplicationError{Host: host, StatusCode: 500, Message: "boom"}, http.StatusBadGateway},
		{"no hosts", failover.ErrNoHostsAvailable, http.StatusServiceUnavailable},
		{"exhausted", &failover.ExhaustedRetriesError{Hosts: []hosts.Host{host}, Err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"malformed", fmt.Errorf("decode: %w", series.ErrMalformedResult), http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("surprise"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeClientError(w, tt.err)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
