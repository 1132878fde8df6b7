// Package ledger implements the durable run event log and state store.
//
// # Overview
//
// Each run owns one directory under the base directory:
//
//	{organization}/{project}/{uuid}/
//	    metadata.json       immutable, written at creation, read-only here
//	    state.json          mutable snapshot (last_event_id, updated_at, ...)
//	    events/             one JSON file per event: {id_06d}-{type}.json
//	    events/.next-id     sequence counter, private to the allocator
//	    events.jsonl[.zst]  optional consolidated archive
//
// Events are immutable once written and never deleted. Event ids are unique
// and strictly increasing per run; state.json.last_event_id tracks the most
// recently committed event, lagging at most one event behind events/ in the
// crash window between the event write and the state update.
//
// # Concurrency
//
// Callers are independent OS processes. All mutual exclusion is built on
// atomic rename: the sequence allocator serializes through exclusive
// creation of the counter's temp file, and state.json is replaced via
// temp-file-plus-rename so readers never observe a half-written snapshot.
// No advisory file locks are used.
//
// API surface (internal)
//
//	l, _ := ledger.New(ledger.Options{BaseDir: dir})
//	ev, path, err := l.Append(runID, ledger.EventInput{Type: ledger.TypePhaseStart, Phase: "build"})
//
//	s, _ := l.Stream(runID) // lazy, id-ordered
//	for ev, ok := s.Next(); ok; ev, ok = s.Next() { ... }
//
//	res, _ := l.Consolidate(runID, ledger.ConsolidateOptions{})
package ledger
