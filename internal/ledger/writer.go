package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	logpkg "github.com/runlog/runlog/pkg/log"
)

// EventInput carries the caller-supplied portion of an event. Zero-valued
// optional fields are omitted from the stored record.
type EventInput struct {
	Type       EventType
	Phase      string
	Step       string
	Status     string
	User       string
	Source     string
	Message    string
	DurationMs *int64
	Metadata   map[string]any
	Artifacts  []string
	Error      string
}

// Append validates and durably records one event for runID, then advances
// the run's state snapshot. It returns the full event and the path of the
// event file.
//
// The two writes are deliberately not transactional: if the state update
// fails after the event file exists, the event file stays in place (events
// are append-only and never rolled back) and the returned error is a
// *StateUpdateError carrying the committed event id, so callers reconcile
// instead of re-emitting. The invariant either way is
// state.last_event_id <= the highest id under events/.
func (l *Ledger) Append(runID string, in EventInput) (Event, string, error) {
	dir, err := l.RunDir(runID)
	if err != nil {
		return Event{}, "", err
	}
	if !in.Type.Valid() {
		return Event{}, "", fmt.Errorf("%w: %q", ErrInvalidEventType, in.Type)
	}

	eventsDir := filepath.Join(dir, eventsDirName)
	if err := os.MkdirAll(eventsDir, 0o755); err != nil {
		return Event{}, "", err
	}

	alloc := newAllocator(eventsDir, l.allocMaxAttempts, l.allocBackoff, l.allocStaleAfter)
	id, err := alloc.NextID()
	if err != nil {
		return Event{}, "", err
	}

	ev := Event{
		EventID:    id,
		Type:       in.Type,
		Timestamp:  FormatTimestamp(time.Now()),
		RunID:      runID,
		Phase:      in.Phase,
		Step:       in.Step,
		Status:     in.Status,
		User:       in.User,
		Source:     in.Source,
		Message:    in.Message,
		DurationMs: in.DurationMs,
		Metadata:   in.Metadata,
		Artifacts:  in.Artifacts,
		Error:      in.Error,
	}
	if ev.User == "" {
		ev.User = identityFromEnv()
	}
	if ev.Source == "" {
		ev.Source = l.defaultSource
	}

	path := filepath.Join(eventsDir, eventFilename(id, ev.Type))
	b, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return Event{}, "", err
	}
	// The allocator guarantees no two processes target this filename, so a
	// plain create+write suffices; nothing reads a file mid-write.
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return Event{}, "", err
	}

	if err := advanceState(dir, ev.EventID, ev.Timestamp); err != nil {
		l.logger.Warn("state update failed after event write",
			logpkg.Str("run_id", runID), logpkg.Int64("event_id", ev.EventID))
		return ev, path, &StateUpdateError{RunID: runID, EventID: ev.EventID, Path: path, Err: err}
	}
	return ev, path, nil
}

// identityFromEnv derives the default event user from the environment.
func identityFromEnv() string {
	if v := os.Getenv("RUNLOG_USER"); v != "" {
		return v
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	if v := os.Getenv("USERNAME"); v != "" {
		return v
	}
	return "unknown"
}
