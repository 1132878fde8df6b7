package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	cfgpkg "github.com/runlog/runlog/internal/config"
	"github.com/runlog/runlog/internal/runtime"
	logpkg "github.com/runlog/runlog/pkg/log"
)

const testRunID = "acme/website/6a1f0a6e-3c1d-4b2a-9f3e-8d7c6b5a4e2d"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	rt, err := runtime.Open(runtime.Options{
		Config: cfg,
		Logger: logpkg.NewLogger(logpkg.WithLevel(logpkg.ErrorLevel)),
	})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	ts := httptest.NewServer(New(rt).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, ts *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, body := getJSON(t, ts, "/v1/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Fatalf("body=%v", body)
	}
}

func TestCreateEmitGetFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := postJSON(t, ts, "/v1/runs/create", map[string]string{
		"run_id": testRunID, "work_id": "W-9",
	})
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("create: status=%d body=%v", resp.StatusCode, body)
	}

	resp, body = postJSON(t, ts, "/v1/events/emit", map[string]string{
		"run_id": testRunID, "type": "workflow_start",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("emit: status=%d body=%v", resp.StatusCode, body)
	}
	if body["event_id"].(float64) != 1 {
		t.Fatalf("emit: event_id=%v", body["event_id"])
	}

	resp, body = getJSON(t, ts, "/v1/runs/get?run_id="+testRunID+"&include_events=true")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status=%d body=%v", resp.StatusCode, body)
	}
	if body["event_count"].(float64) != 1 {
		t.Fatalf("get: event_count=%v", body["event_count"])
	}

	resp, body = getJSON(t, ts, "/v1/runs/events?run_id="+testRunID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("events: status=%d", resp.StatusCode)
	}
	if body["total"].(float64) != 1 {
		t.Fatalf("events: total=%v", body["total"])
	}

	resp, body = getJSON(t, ts, "/v1/runs/list")
	if resp.StatusCode != http.StatusOK || body["total"].(float64) != 1 {
		t.Fatalf("list: status=%d body=%v", resp.StatusCode, body)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	ts := newTestServer(t)

	resp, body := postJSON(t, ts, "/v1/events/emit", map[string]string{
		"run_id": "../escape", "type": "checkpoint",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("traversal: status=%d body=%v", resp.StatusCode, body)
	}
	if body["code"] != "path_traversal" {
		t.Fatalf("traversal: code=%v", body["code"])
	}

	resp, body = postJSON(t, ts, "/v1/events/emit", map[string]string{
		"run_id": testRunID, "type": "checkpoint",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing run: status=%d body=%v", resp.StatusCode, body)
	}
	if body["code"] != "run_not_found" {
		t.Fatalf("missing run: code=%v", body["code"])
	}

	if _, body = postJSON(t, ts, "/v1/runs/create", map[string]string{"run_id": testRunID}); body["status"] != "ok" {
		t.Fatalf("create: %v", body)
	}
	resp, body = postJSON(t, ts, "/v1/runs/create", map[string]string{"run_id": testRunID})
	if resp.StatusCode != http.StatusConflict || body["code"] != "run_exists" {
		t.Fatalf("duplicate: status=%d body=%v", resp.StatusCode, body)
	}

	resp, _ = getJSON(t, ts, "/v1/runs/events?run_id="+testRunID+"&filter=(((")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad filter: status=%d", resp.StatusCode)
	}
}

func TestConsolidateAndRebuildEndpoints(t *testing.T) {
	ts := newTestServer(t)
	if _, body := postJSON(t, ts, "/v1/runs/create", map[string]string{"run_id": testRunID}); body["status"] != "ok" {
		t.Fatalf("create: %v", body)
	}
	if _, body := postJSON(t, ts, "/v1/events/emit", map[string]string{"run_id": testRunID, "type": "checkpoint"}); body["status"] != "ok" {
		t.Fatalf("emit: %v", body)
	}

	resp, body := postJSON(t, ts, "/v1/runs/consolidate", map[string]string{"run_id": testRunID})
	if resp.StatusCode != http.StatusOK || body["events_consolidated"].(float64) != 1 {
		t.Fatalf("consolidate: status=%d body=%v", resp.StatusCode, body)
	}

	resp, body = postJSON(t, ts, "/v1/index/rebuild", map[string]string{})
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("rebuild: status=%d body=%v", resp.StatusCode, body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/events/emit")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}
