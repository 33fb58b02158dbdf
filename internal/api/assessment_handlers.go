package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

func (s *Server) handleStartAssessment(w http.ResponseWriter, r *http.Request) {
	var req models.StartAssessmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.TopicID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "topic_id is required")
		return
	}
	if !req.Difficulty.IsValid() {
		respondError(w, http.StatusBadRequest, "validation_error", "difficulty must be easy, medium or hard")
		return
	}
	if req.Count < 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "count must not be negative")
		return
	}

	view, err := s.assessments.Start(r.Context(), IdentityFromContext(r.Context()), req)
	if err != nil {
		respondServiceError(w, err, "start assessment")
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	view, err := s.assessments.Get(r.Context(), chi.URLParam(r, "id"), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err, "get assessment")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := s.assessments.SelectOption(r.Context(), chi.URLParam(r, "id"), IdentityFromContext(r.Context()), req.Option)
	if err != nil {
		respondServiceError(w, err, "select option")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req models.NavigateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := s.assessments.Navigate(r.Context(), chi.URLParam(r, "id"), IdentityFromContext(r.Context()), req)
	if err != nil {
		respondServiceError(w, err, "navigate")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	result, err := s.assessments.Submit(r.Context(), chi.URLParam(r, "id"), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err, "submit assessment")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDiscardAssessment(w http.ResponseWriter, r *http.Request) {
	if err := s.assessments.Discard(r.Context(), chi.URLParam(r, "id"), IdentityFromContext(r.Context())); err != nil {
		respondServiceError(w, err, "discard assessment")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "assessment discarded",
	})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.assessments.Result(r.Context(), chi.URLParam(r, "id"), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err, "get result")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
