package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventType is one of a closed enumeration of recordable occurrences.
type EventType string

// Workflow lifecycle events.
const (
	TypeWorkflowStart     EventType = "workflow_start"
	TypeWorkflowComplete  EventType = "workflow_complete"
	TypeWorkflowError     EventType = "workflow_error"
	TypeWorkflowCancelled EventType = "workflow_cancelled"
	TypeWorkflowResumed   EventType = "workflow_resumed"
	TypeWorkflowRerun     EventType = "workflow_rerun"
)

// Phase and step events.
const (
	TypePhaseStart    EventType = "phase_start"
	TypePhaseSkip     EventType = "phase_skip"
	TypePhaseComplete EventType = "phase_complete"
	TypePhaseError    EventType = "phase_error"
	TypeStepStart     EventType = "step_start"
	TypeStepComplete  EventType = "step_complete"
	TypeStepError     EventType = "step_error"
	TypeStepRetry     EventType = "step_retry"
)

// Artifact, VCS, and review-surface events.
const (
	TypeArtifactCreated EventType = "artifact_created"
	TypeCommitCreated   EventType = "commit_created"
	TypeBranchCreated   EventType = "branch_created"
	TypePRCreated       EventType = "pr_created"
	TypePRUpdated       EventType = "pr_updated"
	TypePRMerged        EventType = "pr_merged"
)

// Spec, test, and docs events.
const (
	TypeSpecCreated   EventType = "spec_created"
	TypeSpecUpdated   EventType = "spec_updated"
	TypeTestRun       EventType = "test_run"
	TypeTestPassed    EventType = "test_passed"
	TypeTestFailed    EventType = "test_failed"
	TypeDocsGenerated EventType = "docs_generated"
)

// Control-flow and integration events.
const (
	TypeCheckpoint        EventType = "checkpoint"
	TypeSkillInvoked      EventType = "skill_invoked"
	TypeAgentInvoked      EventType = "agent_invoked"
	TypeDecisionPoint     EventType = "decision_point"
	TypeRetryLoopEnter    EventType = "retry_loop_enter"
	TypeRetryLoopExit     EventType = "retry_loop_exit"
	TypeApprovalRequested EventType = "approval_requested"
	TypeApprovalGranted   EventType = "approval_granted"
	TypeApprovalDenied    EventType = "approval_denied"
	TypeHookExecuted      EventType = "hook_executed"
)

var validTypes = map[EventType]struct{}{
	TypeWorkflowStart: {}, TypeWorkflowComplete: {}, TypeWorkflowError: {},
	TypeWorkflowCancelled: {}, TypeWorkflowResumed: {}, TypeWorkflowRerun: {},
	TypePhaseStart: {}, TypePhaseSkip: {}, TypePhaseComplete: {}, TypePhaseError: {},
	TypeStepStart: {}, TypeStepComplete: {}, TypeStepError: {}, TypeStepRetry: {},
	TypeArtifactCreated: {}, TypeCommitCreated: {}, TypeBranchCreated: {},
	TypePRCreated: {}, TypePRUpdated: {}, TypePRMerged: {},
	TypeSpecCreated: {}, TypeSpecUpdated: {},
	TypeTestRun: {}, TypeTestPassed: {}, TypeTestFailed: {}, TypeDocsGenerated: {},
	TypeCheckpoint: {}, TypeSkillInvoked: {}, TypeAgentInvoked: {}, TypeDecisionPoint: {},
	TypeRetryLoopEnter: {}, TypeRetryLoopExit: {},
	TypeApprovalRequested: {}, TypeApprovalGranted: {}, TypeApprovalDenied: {},
	TypeHookExecuted: {},
}

// Valid reports whether t is in the closed enumeration.
func (t EventType) Valid() bool {
	_, ok := validTypes[t]
	return ok
}

// Event is one immutable record in a run's history. Optional fields carry
// omitempty so archived events stay compact when callers leave them unset.
type Event struct {
	EventID   int64     `json:"event_id"`
	Type      EventType `json:"type"`
	Timestamp string    `json:"timestamp"`
	RunID     string    `json:"run_id"`

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

// timestampLayout is ISO-8601 with millisecond precision. UTC renders the
// zone as "Z".
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in the event timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// eventFilename builds the per-event file name. Six digits of zero padding
// keep lexicographic and numeric order aligned well past the realistic
// per-run event count; readers still re-derive order from the parsed
// event_id and never trust directory order.
func eventFilename(id int64, t EventType) string {
	return fmt.Sprintf("%06d-%s.json", id, t)
}

// parseEventFilename extracts the event id from a per-event file name.
// Returns ok=false for anything that does not follow the naming convention.
func parseEventFilename(name string) (int64, bool) {
	if !strings.HasSuffix(name, ".json") {
		return 0, false
	}
	dash := strings.IndexByte(name, '-')
	if dash <= 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(name[:dash], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
