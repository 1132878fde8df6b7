package ledger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStreamSkipsCorruptFiles(t *testing.T) {
	l := newTestRun(t)
	for _, typ := range []EventType{TypeWorkflowStart, TypePhaseStart, TypePhaseComplete} {
		if _, _, err := l.Append(testRunID, EventInput{Type: typ}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	eventsDir := filepath.Join(l.BaseDir(), filepath.FromSlash(testRunID), eventsDirName)
	// Corrupt the middle event.
	if err := os.WriteFile(filepath.Join(eventsDir, eventFilename(2, TypePhaseStart)), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	events, err := l.List(testRunID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected corrupt event skipped, got %d events", len(events))
	}
	if events[0].EventID != 1 || events[1].EventID != 3 {
		t.Fatalf("surviving ids: %d %d", events[0].EventID, events[1].EventID)
	}
}

func TestStreamOrdersByParsedID(t *testing.T) {
	l := newTestRun(t)
	eventsDir := filepath.Join(l.BaseDir(), filepath.FromSlash(testRunID), eventsDirName)
	// Write files out of lexicographic-id agreement on purpose: a 3-digit
	// legacy name sorts after the 6-digit names but must still come out in
	// id order.
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(eventsDir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("002-phase_start.json", `{"event_id":2,"type":"phase_start","timestamp":"t","run_id":"r"}`)
	write("000001-workflow_start.json", `{"event_id":1,"type":"workflow_start","timestamp":"t","run_id":"r"}`)
	write("000010-checkpoint.json", `{"event_id":10,"type":"checkpoint","timestamp":"t","run_id":"r"}`)
	write("notes.txt", "ignored")

	events, err := l.List(testRunID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, want := range []int64{1, 2, 10} {
		if events[i].EventID != want {
			t.Fatalf("position %d: got id %d want %d", i, events[i].EventID, want)
		}
	}
}

func TestStreamEmptyRun(t *testing.T) {
	l := newTestRun(t)
	events, err := l.List(testRunID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestStreamRestartsFromScratch(t *testing.T) {
	l := newTestRun(t)
	if _, _, err := l.Append(testRunID, EventInput{Type: TypeCheckpoint}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s1, err := l.Stream(testRunID)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if _, ok := s1.Next(); !ok {
		t.Fatalf("first stream should yield the event")
	}
	if _, ok := s1.Next(); ok {
		t.Fatalf("stream must be exhausted")
	}
	// A second call re-reads the directory and starts over.
	s2, err := l.Stream(testRunID)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if _, ok := s2.Next(); !ok {
		t.Fatalf("fresh stream should start from the beginning")
	}
}
