// Package runtime wires the run store, listing index, config, and logging
// into a single-node runlog instance. It exposes Open/Close, a basic health
// check, and accessors used by higher-level services.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	ev, _, _ := rt.Ledger().Append(runID, ledger.EventInput{Type: ledger.TypeCheckpoint})
package runtime
