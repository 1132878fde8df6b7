package client

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	cfgpkg "github.com/runlog/runlog/internal/config"
	"github.com/runlog/runlog/internal/runtime"
	runsvc "github.com/runlog/runlog/internal/services/runs"
	logpkg "github.com/runlog/runlog/pkg/log"
)

const testRunID = "acme/website/6a1f0a6e-3c1d-4b2a-9f3e-8d7c6b5a4e2d"

func newTestRoot(t *testing.T) *cobra.Command {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	open := func() (*runsvc.Service, func(), error) {
		rt, err := runtime.Open(runtime.Options{
			Config: cfg,
			Logger: logpkg.NewLogger(logpkg.WithLevel(logpkg.ErrorLevel)),
		})
		if err != nil {
			return nil, nil, err
		}
		return runsvc.New(rt), func() { _ = rt.Close() }, nil
	}
	root := &cobra.Command{Use: "runlog"}
	Register(root, open)
	return root
}

func execute(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEmitAndGetCommands(t *testing.T) {
	root := newTestRoot(t)

	if _, err := execute(t, root, "runs", "create", "--run", testRunID, "--work-id", "W-1"); err != nil {
		t.Fatalf("runs create: %v", err)
	}

	out, err := execute(t, root, "emit", "--run", testRunID, "--type", "workflow_start", "--message", "go")
	if err != nil {
		t.Fatalf("emit: %v\n%s", err, out)
	}
	var emitted struct {
		Status  string `json:"status"`
		EventID int64  `json:"event_id"`
	}
	if err := json.Unmarshal([]byte(out), &emitted); err != nil {
		t.Fatalf("emit output: %v\n%s", err, out)
	}
	if emitted.Status != "ok" || emitted.EventID != 1 {
		t.Fatalf("emit output: %+v", emitted)
	}

	out, err = execute(t, root, "runs", "get", "--run", testRunID, "--include-events")
	if err != nil {
		t.Fatalf("runs get: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"event_count": 1`) {
		t.Fatalf("runs get output missing count:\n%s", out)
	}
}

func TestEmitCommandFailsNonZero(t *testing.T) {
	root := newTestRoot(t)
	out, err := execute(t, root, "emit", "--run", testRunID, "--type", "checkpoint")
	if err == nil {
		t.Fatalf("expected failure for missing run, got:\n%s", out)
	}
	if !strings.Contains(err.Error(), "run_not_found") {
		t.Fatalf("error should carry the failure code, got: %v", err)
	}
}

func TestEventsFilterAndListCommands(t *testing.T) {
	root := newTestRoot(t)
	if _, err := execute(t, root, "runs", "create", "--run", testRunID); err != nil {
		t.Fatalf("runs create: %v", err)
	}
	for _, typ := range []string{"workflow_start", "phase_start", "phase_complete"} {
		if _, err := execute(t, root, "emit", "--run", testRunID, "--type", typ); err != nil {
			t.Fatalf("emit %s: %v", typ, err)
		}
	}

	out, err := execute(t, root, "runs", "events", "--run", testRunID, "--filter", `event_type.startsWith("phase_")`)
	if err != nil {
		t.Fatalf("runs events: %v\n%s", err, out)
	}
	var events struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("events output: %v\n%s", err, out)
	}
	if events.Total != 2 {
		t.Fatalf("filtered total = %d, expected 2", events.Total)
	}

	out, err = execute(t, root, "runs", "list", "--work-id", "")
	if err != nil {
		t.Fatalf("runs list: %v\n%s", err, out)
	}
	if !strings.Contains(out, testRunID) {
		t.Fatalf("runs list output missing run:\n%s", out)
	}
}

func TestConsolidateAndIndexCommands(t *testing.T) {
	root := newTestRoot(t)
	if _, err := execute(t, root, "runs", "create", "--run", testRunID); err != nil {
		t.Fatalf("runs create: %v", err)
	}
	if _, err := execute(t, root, "emit", "--run", testRunID, "--type", "checkpoint"); err != nil {
		t.Fatalf("emit: %v", err)
	}

	out, err := execute(t, root, "consolidate", "--run", testRunID, "--compression", "zstd")
	if err != nil {
		t.Fatalf("consolidate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "events.jsonl.zst") {
		t.Fatalf("consolidate output missing archive path:\n%s", out)
	}

	if _, err := execute(t, root, "index", "rebuild"); err != nil {
		t.Fatalf("index rebuild: %v", err)
	}
}

func TestEmitMetadataFlag(t *testing.T) {
	root := newTestRoot(t)
	if _, err := execute(t, root, "runs", "create", "--run", testRunID); err != nil {
		t.Fatalf("runs create: %v", err)
	}
	if _, err := execute(t, root, "emit", "--run", testRunID, "--type", "step_retry", "--metadata", `{"attempt":2}`); err != nil {
		t.Fatalf("emit with metadata: %v", err)
	}
	out, err := execute(t, root, "emit", "--run", testRunID, "--type", "step_retry", "--metadata", "{not json")
	if err == nil {
		t.Fatalf("expected invalid metadata error, got:\n%s", out)
	}
}
