package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	runsvc "github.com/runlog/runlog/internal/services/runs"
)

// Helper functions for common HTTP responses

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error_message": message})
}

// writeJSON writes a JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// writeEnvelope writes data with the HTTP status derived from its envelope.
func writeEnvelope(w http.ResponseWriter, res runsvc.Result, data any) {
	w.Header().Set("Content-Type", "application/json")
	if !res.OK() {
		w.WriteHeader(statusFor(res.Code))
	}
	_ = json.NewEncoder(w).Encode(data)
}

// statusFor maps an envelope failure code onto an HTTP status.
func statusFor(code runsvc.Code) int {
	switch code {
	case runsvc.CodeInvalidRunID, runsvc.CodePathTraversal, runsvc.CodeInvalidEventType, runsvc.CodeInvalidFilter:
		return http.StatusBadRequest
	case runsvc.CodeRunNotFound:
		return http.StatusNotFound
	case runsvc.CodeRunExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// parseLimit parses a limit string and returns a valid limit value.
//
// Returns 0 for empty strings or invalid values.
func parseLimit(limitStr string) int {
	if limitStr == "" {
		return 0
	}
	if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
		return limit
	}
	return 0
}

// parseBool parses a boolean string and returns the boolean value.
//
// Returns true for "true" or "1", false otherwise.
func parseBool(s string) bool {
	return s == "true" || s == "1"
}
