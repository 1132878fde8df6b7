package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/runlog/runlog/internal/runid"
	logpkg "github.com/runlog/runlog/pkg/log"
)

const eventsDirName = "events"

// Options configure a Ledger.
type Options struct {
	// BaseDir is the directory holding {organization}/{project}/{uuid} run
	// directories. It must exist.
	BaseDir string
	// Logger receives skip-with-warning diagnostics. Defaults to a logger
	// tagged with the ledger component.
	Logger logpkg.Logger
	// DefaultSource is recorded on events whose caller supplied no source.
	DefaultSource string

	// Sequence allocation tunables; zero values pick the built-in defaults
	// (10 attempts, 50ms linear backoff, 5s stale-lock reclaim).
	AllocMaxAttempts int
	AllocBackoff     time.Duration
	AllocStaleAfter  time.Duration
}

// Ledger is the durable run event log and state store rooted at one base
// directory. All operations are short synchronous filesystem sequences;
// cross-process coordination relies solely on atomic rename semantics.
type Ledger struct {
	resolver      *runid.Resolver
	logger        logpkg.Logger
	defaultSource string

	allocMaxAttempts int
	allocBackoff     time.Duration
	allocStaleAfter  time.Duration
}

// New opens a Ledger over opts.BaseDir.
func New(opts Options) (*Ledger, error) {
	resolver, err := runid.NewResolver(opts.BaseDir)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("ledger"))
	}
	source := opts.DefaultSource
	if source == "" {
		source = "runlog"
	}
	return &Ledger{
		resolver:         resolver,
		logger:           logger,
		defaultSource:    source,
		allocMaxAttempts: opts.AllocMaxAttempts,
		allocBackoff:     opts.AllocBackoff,
		allocStaleAfter:  opts.AllocStaleAfter,
	}, nil
}

// BaseDir returns the canonical base directory.
func (l *Ledger) BaseDir() string { return l.resolver.Base() }

// RunDir validates runID and returns its directory. The directory must
// exist; ErrRunNotFound otherwise.
func (l *Ledger) RunDir(runID string) (string, error) {
	dir, _, err := l.resolver.Resolve(runID)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return dir, nil
}

// Run bundles a run's identity, metadata, and current state.
type Run struct {
	RunID    string
	Metadata Metadata
	State    State
}

// GetRun loads metadata.json and state.json for runID.
func (l *Ledger) GetRun(runID string) (Run, error) {
	dir, err := l.RunDir(runID)
	if err != nil {
		return Run{}, err
	}
	md, err := ReadMetadata(dir)
	if err != nil && !os.IsNotExist(err) {
		return Run{}, err
	}
	st, err := ReadState(dir)
	if err != nil {
		return Run{}, err
	}
	return Run{RunID: runID, Metadata: md, State: st}, nil
}

// EventCount counts committed event files for runID without parsing them.
func (l *Ledger) EventCount(runID string) (int, error) {
	dir, err := l.RunDir(runID)
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(filepath.Join(dir, eventsDirName))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if _, ok := parseEventFilename(e.Name()); ok {
			count++
		}
	}
	return count, nil
}

// CreateRun provisions a run directory with metadata.json and an initial
// state.json. Run creation normally belongs to the orchestrator; this helper
// exists for tooling and tests and stays off the emit path, which continues
// to reject absent runs.
func (l *Ledger) CreateRun(runID, workID, plan string) (Run, error) {
	dir, _, err := l.resolver.Resolve(runID)
	if err != nil {
		return Run{}, err
	}
	if _, err := os.Stat(dir); err == nil {
		return Run{}, fmt.Errorf("run already exists: %s", runID)
	}
	if err := os.MkdirAll(filepath.Join(dir, eventsDirName), 0o755); err != nil {
		return Run{}, err
	}
	now := FormatTimestamp(time.Now())
	md := Metadata{RunID: runID, WorkID: workID, Plan: plan, CreatedAt: now}
	st := State{LastEventID: 0, UpdatedAt: now, Status: "created", WorkID: workID}
	if err := writeJSONFile(filepath.Join(dir, metadataFileName), md); err != nil {
		return Run{}, err
	}
	if err := writeJSONFile(filepath.Join(dir, stateFileName), st); err != nil {
		return Run{}, err
	}
	return Run{RunID: runID, Metadata: md, State: st}, nil
}

func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
