package runsvc

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/runlog/runlog/internal/ledger"
)

// celFilter wraps a compiled CEL program evaluated per event during search.
// When disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("event_id", cel.IntType),
		// "type" would collide with CEL's builtin type() function
		cel.Variable("event_type", cel.StringType),
		cel.Variable("phase", cel.StringType),
		cel.Variable("step", cel.StringType),
		cel.Variable("status", cel.StringType),
		cel.Variable("user", cel.StringType),
		cel.Variable("source", cel.StringType),
		cel.Variable("message", cel.StringType),
		cel.Variable("error", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("duration_ms", cel.IntType),
		// Parsed metadata object for field filtering
		cel.Variable("metadata", cel.DynType),
		cel.Variable("artifacts", cel.ListType(cel.StringType)),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against one event. When disabled,
// returns true; evaluation errors count as non-matches.
func (f celFilter) Eval(ev ledger.Event) bool {
	if !f.enabled {
		return true
	}
	var tsMs int64
	if t, err := time.Parse(time.RFC3339, ev.Timestamp); err == nil {
		tsMs = t.UnixMilli()
	}
	var durMs int64
	if ev.DurationMs != nil {
		durMs = *ev.DurationMs
	}
	metadata := any(ev.Metadata)
	if ev.Metadata == nil {
		metadata = map[string]any{}
	}
	artifacts := ev.Artifacts
	if artifacts == nil {
		artifacts = []string{}
	}
	out, _, err := f.prog.Eval(map[string]any{
		"event_id":    ev.EventID,
		"event_type":  string(ev.Type),
		"phase":       ev.Phase,
		"step":        ev.Step,
		"status":      ev.Status,
		"user":        ev.User,
		"source":      ev.Source,
		"message":     ev.Message,
		"error":       ev.Error,
		"ts_ms":       tsMs,
		"duration_ms": durMs,
		"metadata":    metadata,
		"artifacts":   artifacts,
		"now_ms":      time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
