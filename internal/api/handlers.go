package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/aptitude-engine/internal/app"
	"github.com/terra-clan/aptitude-engine/internal/assessment"
	"github.com/terra-clan/aptitude-engine/internal/auth"
	"github.com/terra-clan/aptitude-engine/internal/catalog"
)

const maxBodyBytes = 1 << 20

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// decodeJSON reads a JSON request body into v, answering 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings classifies domain errors. The error text is safe to show.
var errorMappings = []errorMapping{
	{auth.ErrValidation, http.StatusBadRequest, "validation_error"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrInvalidCode, http.StatusUnauthorized, "invalid_code"},
	{auth.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{auth.ErrIdentityExists, http.StatusConflict, "identity_exists"},
	{auth.ErrProfileExists, http.StatusConflict, "profile_exists"},
	{auth.ErrProfileNotFound, http.StatusNotFound, "profile_not_found"},
	{app.ErrInvalidEntry, http.StatusBadRequest, "validation_error"},
	{catalog.ErrTopicNotFound, http.StatusNotFound, "topic_not_found"},
	{catalog.ErrNoQuestions, http.StatusNotFound, "questions_unavailable"},
	{catalog.ErrInvalidCount, http.StatusBadRequest, "validation_error"},
	{assessment.ErrDifficultyNotOffered, http.StatusBadRequest, "difficulty_not_offered"},
	{assessment.ErrTooManyQuestions, http.StatusBadRequest, "validation_error"},
	{assessment.ErrInvalidOption, http.StatusBadRequest, "validation_error"},
	{assessment.ErrInvalidIndex, http.StatusBadRequest, "validation_error"},
	{assessment.ErrInvalidDirection, http.StatusBadRequest, "validation_error"},
	{assessment.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{assessment.ErrResultNotFound, http.StatusNotFound, "result_not_found"},
	{assessment.ErrSessionClosed, http.StatusConflict, "session_closed"},
	{assessment.ErrNotOnLastQuestion, http.StatusConflict, "not_on_last_question"},
	{assessment.ErrManagerClosed, http.StatusServiceUnavailable, "unavailable"},
}

// respondServiceError maps a service error to an envelope. Unknown errors are
// logged and reported as internal errors with a generic message.
func respondServiceError(w http.ResponseWriter, err error, action string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			respondError(w, m.status, m.code, err.Error())
			return
		}
	}
	slog.Error("request failed", "action", action, "error", err)
	respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.probes.HealthCheckAll(r.Context())

	checks := make(map[string]string, len(results))
	ready := true
	for name, err := range results {
		if err != nil {
			slog.Warn("readiness probe failed", "service", name, "error", err)
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(apiResponse{
			Success: false,
			Data:    map[string]interface{}{"status": "not_ready", "checks": checks},
			Error:   &apiError{Code: "not_ready", Message: "service not ready"},
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}
