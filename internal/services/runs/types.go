package runsvc

import (
	"github.com/runlog/runlog/internal/index"
	"github.com/runlog/runlog/internal/ledger"
)

// Code identifies a failure class in the uniform result envelope.
type Code string

const (
	CodeInvalidRunID                Code = "invalid_run_id"
	CodePathTraversal               Code = "path_traversal"
	CodeInvalidEventType            Code = "invalid_event_type"
	CodeRunNotFound                 Code = "run_not_found"
	CodeStateFileMissing            Code = "state_file_missing"
	CodeIDAllocationFailed          Code = "id_allocation_failed"
	CodeStateUpdateFailedAfterWrite Code = "state_update_failed_after_write"
	CodeConsolidationFailed         Code = "consolidation_failed"
	CodeInvalidFilter               Code = "invalid_filter"
	CodeRunExists                   Code = "run_exists"
	CodeInternal                    Code = "internal"
)

// Result is the uniform success/error envelope embedded in every response.
// Operations return structured failures rather than faults so the
// orchestrator can keep going and record the failure as its own event.
type Result struct {
	Status       string `json:"status"` // "ok" | "error"
	Code         Code   `json:"code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Status == "ok" }

func okResult() Result { return Result{Status: "ok"} }

func errResult(code Code, msg string) Result {
	return Result{Status: "error", Code: code, ErrorMessage: msg}
}

// EmitRequest carries one event emission.
type EmitRequest struct {
	RunID      string         `json:"run_id"`
	Type       string         `json:"type"`
	Phase      string         `json:"phase,omitempty"`
	Step       string         `json:"step,omitempty"`
	Status     string         `json:"status,omitempty"`
	User       string         `json:"user,omitempty"`
	Source     string         `json:"source,omitempty"`
	Message    string         `json:"message,omitempty"`
	DurationMs *int64         `json:"duration_ms,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Artifacts  []string       `json:"artifacts,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// EmitResult reports an emission. On the partial-success code
// state_update_failed_after_write the event fields are still populated: the
// event is durable and must not be re-emitted.
type EmitResult struct {
	Result
	EventID   int64  `json:"event_id,omitempty"`
	Type      string `json:"type,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	EventPath string `json:"event_path,omitempty"`
}

// GetRunResult bundles a run's metadata and state snapshot.
type GetRunResult struct {
	Result
	RunID      string           `json:"run_id,omitempty"`
	Metadata   *ledger.Metadata `json:"metadata,omitempty"`
	State      *ledger.State    `json:"state,omitempty"`
	EventCount *int             `json:"event_count,omitempty"`
}

// SearchOptions narrow GetEvents. Filter is an optional CEL expression
// evaluated per event; Reverse yields newest-first; Limit truncates after
// filtering (0 means unlimited).
type SearchOptions struct {
	Filter  string
	Reverse bool
	Limit   int
}

// GetEventsResult carries an ordered event listing.
type GetEventsResult struct {
	Result
	RunID  string         `json:"run_id,omitempty"`
	Events []ledger.Event `json:"events,omitempty"`
	Total  int            `json:"total"`
}

// ListRunsResult carries a filtered run listing.
type ListRunsResult struct {
	Result
	Runs  []index.Entry `json:"runs"`
	Total int           `json:"total"`
}

// ConsolidateResult reports a completed consolidation.
type ConsolidateResult struct {
	Result
	EventsConsolidated int    `json:"events_consolidated,omitempty"`
	OutputPath         string `json:"output_path,omitempty"`
	SizeBytes          int64  `json:"size_bytes,omitempty"`
}

// CreateRunResult reports run provisioning.
type CreateRunResult struct {
	Result
	RunID     string `json:"run_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}
