package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrRunNotFound is returned when the run directory does not exist.
	// The ledger never implicitly creates runs on the emit path.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidEventType is returned for a type outside the closed
	// enumeration. Unknown types are never silently accepted.
	ErrInvalidEventType = errors.New("invalid event type")

	// ErrStateFileMissing is fatal: a run without state.json is
	// unrecoverable by this subsystem, which never fabricates initial state.
	ErrStateFileMissing = errors.New("state file missing")

	// ErrAllocationFailed means the sequence allocator exhausted its retry
	// budget without winning the rename race.
	ErrAllocationFailed = errors.New("event id allocation failed")

	// ErrConsolidationFailed wraps failures while producing events.jsonl.
	// The temp file is cleaned up and any prior archive is left untouched.
	ErrConsolidationFailed = errors.New("consolidation failed")
)

// StateUpdateError is the partial-success case: the event file is durably
// written but advancing state.json failed. The event is real and must not be
// re-emitted; callers reconcile state later from events/.
type StateUpdateError struct {
	RunID   string
	EventID int64
	Path    string
	Err     error
}

func (e *StateUpdateError) Error() string {
	return fmt.Sprintf("event %d recorded for %s but state update failed: %v", e.EventID, e.RunID, e.Err)
}

func (e *StateUpdateError) Unwrap() error { return e.Err }
