package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cfgpkg "github.com/runlog/runlog/internal/config"
	"github.com/runlog/runlog/internal/index"
	"github.com/runlog/runlog/internal/ledger"
	logpkg "github.com/runlog/runlog/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
}

// Runtime wires the run store, the listing index, config, and logging for a
// single-node instance.
type Runtime struct {
	config cfgpkg.Config
	logger logpkg.Logger
	ledger *ledger.Ledger
	index  *index.Index
}

// Open resolves the base directory (creating it when absent) and returns a
// Runtime.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	led, err := ledger.New(ledger.Options{
		BaseDir:          cfg.DataDir,
		Logger:           logger.With(logpkg.Component("ledger")),
		DefaultSource:    cfg.DefaultSource,
		AllocMaxAttempts: cfg.Alloc.MaxAttempts,
		AllocBackoff:     time.Duration(cfg.Alloc.BackoffMs) * time.Millisecond,
		AllocStaleAfter:  time.Duration(cfg.Alloc.StaleLockMs) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	ix := index.New(led.BaseDir(), logger.With(logpkg.Component("index")),
		index.WithDefaultLimit(cfg.ListLimit))
	return &Runtime{config: cfg, logger: logger, ledger: led, index: ix}, nil
}

// Close releases runtime resources. The store holds no open handles between
// operations, so this is currently a no-op kept for lifecycle symmetry.
func (r *Runtime) Close() error { return nil }

// CheckHealth verifies the base directory exists and is writable.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	base := r.ledger.BaseDir()
	info, err := os.Stat(base)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("base directory is not a directory: %s", base)
	}
	probe := filepath.Join(base, fmt.Sprintf(".health.%d", os.Getpid()))
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("base directory not writable: %w", err)
	}
	return os.Remove(probe)
}

// Ledger returns the run event store.
func (r *Runtime) Ledger() *ledger.Ledger { return r.ledger }

// Index returns the run listing index.
func (r *Runtime) Index() *index.Index { return r.index }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the root logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }
