package serverrun

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/runlog/runlog/internal/config"
	"github.com/runlog/runlog/internal/runtime"
	httpserver "github.com/runlog/runlog/internal/server/http"
	logpkg "github.com/runlog/runlog/pkg/log"
)

// small wrapper to allow testing; replaced by os.Getenv at build time
var getenv = func(key string) string { return os.Getenv(key) }

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// Options carries everything needed to start the server.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context; layer a
	// local signal context over the provided one.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}

	logger := opts.Logger
	if logger == nil {
		logger = NewProcessLogger(cfg.LogLevel)
	}

	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("Starting runlog server",
		logpkg.Str("http", cfg.HTTPAddr),
		logpkg.Str("data_dir", cfg.DataDir),
		logpkg.Str("level", cfg.LogLevel),
	)

	srv := httpserver.New(rt)
	defer srv.Close()
	if err := srv.ListenAndServe(sctx, cfg.HTTPAddr); err != nil && sctx.Err() == nil {
		return err
	}
	return nil
}

// NewProcessLogger builds the process-wide logger honoring RUNLOG_LOG_FORMAT
// (text|json, default text) and the given level name (default info).
func NewProcessLogger(level string) logpkg.Logger {
	lvl := logpkg.InfoLevel
	if l, err := logpkg.ParseLevel(level); err == nil && level != "" {
		lvl = l
	}
	var formatter logpkg.Formatter = &logpkg.TextFormatter{}
	if getenvDefault("RUNLOG_LOG_FORMAT", "text") == "json" {
		formatter = &logpkg.JSONFormatter{}
	}
	return logpkg.NewLogger(
		logpkg.WithLevel(lvl),
		logpkg.WithFormatter(formatter),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
}
