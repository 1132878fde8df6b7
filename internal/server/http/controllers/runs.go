package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/runlog/runlog/internal/index"
	"github.com/runlog/runlog/internal/runtime"
	runsvc "github.com/runlog/runlog/internal/services/runs"
)

// RunsController handles run and event HTTP endpoints.
//
// Every handler delegates to the runs service and relays its envelope; the
// HTTP status is derived from the envelope's failure code so tool callers
// can branch on either.
type RunsController struct {
	rt  *runtime.Runtime
	svc *runsvc.Service
}

// NewRunsController creates a new runs controller.
func NewRunsController(rt *runtime.Runtime, svc *runsvc.Service) *RunsController {
	return &RunsController{rt: rt, svc: svc}
}

// RegisterRoutes registers run routes with the given mux.
//
// This method sets up HTTP endpoints for:
// - Event emission (/v1/events/emit)
// - Run inspection (/v1/runs/get, /v1/runs/events, /v1/runs/list)
// - Run provisioning (/v1/runs/create)
// - Maintenance (/v1/runs/consolidate, /v1/index/rebuild)
func (c *RunsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/events/emit", c.handleEmit)
	mux.HandleFunc("/v1/runs/get", c.handleGetRun)
	mux.HandleFunc("/v1/runs/events", c.handleGetEvents)
	mux.HandleFunc("/v1/runs/list", c.handleListRuns)
	mux.HandleFunc("/v1/runs/create", c.handleCreateRun)
	mux.HandleFunc("/v1/runs/consolidate", c.handleConsolidate)
	mux.HandleFunc("/v1/index/rebuild", c.handleRebuildIndex)
}

// handleEmit records one event for a run.
//
// Expects a JSON body matching runsvc.EmitRequest. On the partial-success
// code state_update_failed_after_write the response still carries the
// committed event id and path; the caller must not re-emit.
func (c *RunsController) handleEmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req runsvc.EmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res := c.svc.EmitEvent(req)
	writeEnvelope(w, res.Result, res)
}

// handleGetRun returns a run's metadata and state snapshot.
//
// Query params: run_id (required), include_events (optional bool).
func (c *RunsController) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run_id is required")
		return
	}
	res := c.svc.GetRun(runID, parseBool(r.URL.Query().Get("include_events")))
	writeEnvelope(w, res.Result, res)
}

// handleGetEvents returns a run's events in id order.
//
// Query params: run_id (required), filter (optional CEL expression),
// reverse (optional bool), limit (optional int).
func (c *RunsController) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	runID := q.Get("run_id")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "run_id is required")
		return
	}
	res := c.svc.GetEvents(runID, runsvc.SearchOptions{
		Filter:  q.Get("filter"),
		Reverse: parseBool(q.Get("reverse")),
		Limit:   parseLimit(q.Get("limit")),
	})
	writeEnvelope(w, res.Result, res)
}

// handleListRuns lists runs, newest first.
//
// Query params: work_id, status, organization, project, limit.
func (c *RunsController) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := c.svc.ListRuns(index.Filters{
		WorkID:       q.Get("work_id"),
		Status:       q.Get("status"),
		Organization: q.Get("organization"),
		Project:      q.Get("project"),
		Limit:        parseLimit(q.Get("limit")),
	})
	writeEnvelope(w, res.Result, res)
}

type createRunReq struct {
	RunID  string `json:"run_id"`
	WorkID string `json:"work_id"`
	Plan   string `json:"plan"`
}

// handleCreateRun provisions a run directory.
func (c *RunsController) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req createRunReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res := c.svc.CreateRun(req.RunID, req.WorkID, req.Plan)
	writeEnvelope(w, res.Result, res)
}

type consolidateReq struct {
	RunID       string `json:"run_id"`
	Compression string `json:"compression"`
}

// handleConsolidate merges a run's events into one archive file.
func (c *RunsController) handleConsolidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req consolidateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res := c.svc.Consolidate(req.RunID, req.Compression)
	writeEnvelope(w, res.Result, res)
}

// handleRebuildIndex recomputes the run listing index.
func (c *RunsController) handleRebuildIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	res := c.svc.RebuildIndex()
	writeEnvelope(w, res, res)
}
