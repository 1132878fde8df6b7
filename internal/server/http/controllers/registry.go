package controllers

import (
	"net/http"

	"github.com/runlog/runlog/internal/runtime"
	runsvc "github.com/runlog/runlog/internal/services/runs"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes
// and manages the lifecycle of individual controllers.
type ControllerRegistry struct {
	general *GeneralController
	runs    *RunsController
}

// NewControllerRegistry creates a new controller registry.
//
// It initializes all controllers with the provided runtime and service.
func NewControllerRegistry(rt *runtime.Runtime, runsSvc *runsvc.Service) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		runs:    NewRunsController(rt, runsSvc),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
//
// This method sets up all HTTP endpoints for the runlog service: general
// endpoints (health) and run/event endpoints.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.runs.RegisterRoutes(mux)
}
