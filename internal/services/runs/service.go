package runsvc

import (
	"errors"
	"strings"

	"github.com/runlog/runlog/internal/index"
	"github.com/runlog/runlog/internal/ledger"
	"github.com/runlog/runlog/internal/runid"
	"github.com/runlog/runlog/internal/runtime"
	logpkg "github.com/runlog/runlog/pkg/log"
)

// Service is the tool-call boundary over the run store. Every method
// returns a structured result with the uniform envelope; it never panics,
// never exits the process, and never writes to a shared log beyond its own
// component logger.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// New returns a Service using a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, nil)
}

// NewWithLogger constructs the service with an injected logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = rt.Logger().With(logpkg.Component("runs"))
	}
	return &Service{rt: rt, logger: logger}
}

// EmitEvent records one event for a run and advances its state snapshot.
func (s *Service) EmitEvent(req EmitRequest) EmitResult {
	ev, path, err := s.rt.Ledger().Append(req.RunID, ledger.EventInput{
		Type:       ledger.EventType(req.Type),
		Phase:      req.Phase,
		Step:       req.Step,
		Status:     req.Status,
		User:       req.User,
		Source:     req.Source,
		Message:    req.Message,
		DurationMs: req.DurationMs,
		Metadata:   req.Metadata,
		Artifacts:  req.Artifacts,
		Error:      req.Error,
	})
	if err != nil {
		var sue *ledger.StateUpdateError
		if errors.As(err, &sue) {
			// The event is durable; hand back everything the caller needs
			// to reconcile instead of re-emitting.
			return EmitResult{
				Result:    errResult(CodeStateUpdateFailedAfterWrite, err.Error()),
				EventID:   ev.EventID,
				Type:      string(ev.Type),
				RunID:     ev.RunID,
				Timestamp: ev.Timestamp,
				EventPath: path,
			}
		}
		return EmitResult{Result: s.failure("emit_event", err)}
	}
	return EmitResult{
		Result:    okResult(),
		EventID:   ev.EventID,
		Type:      string(ev.Type),
		RunID:     ev.RunID,
		Timestamp: ev.Timestamp,
		EventPath: path,
	}
}

// GetRun loads a run's metadata and state. When includeEvents is set the
// committed event count is included as well.
func (s *Service) GetRun(runID string, includeEvents bool) GetRunResult {
	run, err := s.rt.Ledger().GetRun(runID)
	if err != nil {
		return GetRunResult{Result: s.failure("get_run", err)}
	}
	res := GetRunResult{
		Result:   okResult(),
		RunID:    run.RunID,
		Metadata: &run.Metadata,
		State:    &run.State,
	}
	if includeEvents {
		count, err := s.rt.Ledger().EventCount(runID)
		if err != nil {
			return GetRunResult{Result: s.failure("get_run", err)}
		}
		res.EventCount = &count
	}
	return res
}

// GetEvents returns a run's events in id order, optionally filtered by a
// CEL expression over the event fields.
func (s *Service) GetEvents(runID string, opts SearchOptions) GetEventsResult {
	filter, err := newCELFilter(opts.Filter)
	if err != nil {
		return GetEventsResult{Result: errResult(CodeInvalidFilter, err.Error())}
	}
	stream, err := s.rt.Ledger().Stream(runID)
	if err != nil {
		return GetEventsResult{Result: s.failure("get_events", err)}
	}
	events := make([]ledger.Event, 0, stream.Remaining())
	for {
		ev, ok := stream.Next()
		if !ok {
			break
		}
		if filter.Eval(ev) {
			events = append(events, ev)
		}
	}
	if opts.Reverse {
		for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
			events[i], events[j] = events[j], events[i]
		}
	}
	total := len(events)
	if opts.Limit > 0 && len(events) > opts.Limit {
		events = events[:opts.Limit]
	}
	return GetEventsResult{Result: okResult(), RunID: runID, Events: events, Total: total}
}

// ListRuns returns runs matching the filters, newest first.
func (s *Service) ListRuns(filters index.Filters) ListRunsResult {
	res, err := s.rt.Index().ListRuns(filters)
	if err != nil {
		return ListRunsResult{Result: s.failure("list_runs", err)}
	}
	return ListRunsResult{Result: okResult(), Runs: res.Runs, Total: res.Total}
}

// Consolidate merges a run's events into a single line-delimited archive.
func (s *Service) Consolidate(runID string, compression string) ConsolidateResult {
	comp, err := ledger.ParseCompression(compression)
	if err != nil {
		return ConsolidateResult{Result: errResult(CodeConsolidationFailed, err.Error())}
	}
	res, err := s.rt.Ledger().Consolidate(runID, ledger.ConsolidateOptions{Compression: comp})
	if err != nil {
		return ConsolidateResult{Result: s.failure("consolidate_events", err)}
	}
	return ConsolidateResult{
		Result:             okResult(),
		EventsConsolidated: res.EventsConsolidated,
		OutputPath:         res.OutputPath,
		SizeBytes:          res.SizeBytes,
	}
}

// RebuildIndex recomputes the listing index from the run directories.
func (s *Service) RebuildIndex() Result {
	if err := s.rt.Index().Rebuild(); err != nil {
		return s.failure("rebuild_index", err)
	}
	return okResult()
}

// CreateRun provisions a run directory with metadata and initial state.
func (s *Service) CreateRun(runID, workID, plan string) CreateRunResult {
	run, err := s.rt.Ledger().CreateRun(runID, workID, plan)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return CreateRunResult{Result: errResult(CodeRunExists, err.Error())}
		}
		return CreateRunResult{Result: s.failure("create_run", err)}
	}
	return CreateRunResult{Result: okResult(), RunID: run.RunID, CreatedAt: run.Metadata.CreatedAt}
}

// failure maps a store error onto the envelope's failure codes and logs the
// unexpected ones.
func (s *Service) failure(op string, err error) Result {
	code := codeFor(err)
	if code == CodeInternal {
		s.logger.Error("operation failed", logpkg.Str("op", op), logpkg.Err(err))
	}
	return errResult(code, err.Error())
}

func codeFor(err error) Code {
	switch {
	case errors.Is(err, runid.ErrPathTraversal):
		return CodePathTraversal
	case errors.Is(err, runid.ErrInvalidRunID):
		return CodeInvalidRunID
	case errors.Is(err, ledger.ErrInvalidEventType):
		return CodeInvalidEventType
	case errors.Is(err, ledger.ErrRunNotFound):
		return CodeRunNotFound
	case errors.Is(err, ledger.ErrStateFileMissing):
		return CodeStateFileMissing
	case errors.Is(err, ledger.ErrAllocationFailed):
		return CodeIDAllocationFailed
	case errors.Is(err, ledger.ErrConsolidationFailed):
		return CodeConsolidationFailed
	default:
		return CodeInternal
	}
}
