package ledger

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEventTypeValid(t *testing.T) {
	for _, typ := range []EventType{TypeWorkflowStart, TypePhaseSkip, TypeStepRetry, TypeApprovalDenied, TypeHookExecuted} {
		if !typ.Valid() {
			t.Fatalf("%s should be valid", typ)
		}
	}
	for _, typ := range []EventType{"", "workflow", "phase-start", "not_a_real_type"} {
		if typ.Valid() {
			t.Fatalf("%q should be invalid", typ)
		}
	}
}

func TestEventFilenameRoundTrip(t *testing.T) {
	name := eventFilename(7, TypePhaseStart)
	if name != "000007-phase_start.json" {
		t.Fatalf("filename: %s", name)
	}
	id, ok := parseEventFilename(name)
	if !ok || id != 7 {
		t.Fatalf("parse: %d %v", id, ok)
	}
	for _, bad := range []string{"events.jsonl", ".next-id", "abc-x.json", "-3-x.json", "000000-x.json", "7.json"} {
		if _, ok := parseEventFilename(bad); ok {
			t.Fatalf("%q should not parse", bad)
		}
	}
}

func TestFormatTimestampMillisUTC(t *testing.T) {
	ts := FormatTimestamp(time.Date(2026, 8, 31, 9, 30, 15, 123456789, time.UTC))
	if ts != "2026-08-31T09:30:15.123Z" {
		t.Fatalf("timestamp: %s", ts)
	}
}

func TestEventOmitsUnsetOptionalFields(t *testing.T) {
	b, err := json.Marshal(Event{EventID: 1, Type: TypeCheckpoint, Timestamp: "t", RunID: "r"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, field := range []string{"phase", "step", "status", "message", "duration_ms", "metadata", "artifacts", "error"} {
		if strings.Contains(s, `"`+field+`"`) {
			t.Fatalf("unset field %q should be omitted: %s", field, s)
		}
	}
}
