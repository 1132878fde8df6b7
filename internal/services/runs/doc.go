// Package runsvc is the service layer over the run event store. It exposes
// the operations consumed by the HTTP surface and the CLI — emit, get,
// search, list, consolidate, index rebuild — each returning a uniform
// success/error envelope instead of raising faults, so a calling
// orchestrator can always continue and record failures as its own events.
package runsvc
