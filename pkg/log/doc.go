// Package log provides runlog's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Output runs through a pluggable
// Formatter (text or JSON) and one or more Outputs, so services share
// consistent log shape regardless of where they run.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("ledger"), log.Str("run_id", id))
//	l.Info("event committed", log.Int64("event_id", eventID))
//
// Loggers are immutable value builders: With returns a child logger carrying
// the extra fields, the parent is unchanged. Construct one logger near main
// and pass it down explicitly; there is no package-level default.
package log
