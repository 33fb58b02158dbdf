package api

import (
	"net/http"

	"github.com/terra-clan/aptitude-engine/internal/auth"
	"github.com/terra-clan/aptitude-engine/internal/models"
	"github.com/terra-clan/aptitude-engine/internal/scoring"
)

// Score handlers

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.Load(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err, "load scores")
		return
	}

	scores := st.Scores()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scores": scores,
		"total":  len(scores),
	})
}

func (s *Server) handleScoreSummary(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.Load(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err, "load scores")
		return
	}

	respondJSON(w, http.StatusOK, st.Summary())
}

func (s *Server) handlePersonalBest(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	difficulty := models.Difficulty(r.URL.Query().Get("difficulty"))
	if topic == "" || !difficulty.IsValid() {
		respondError(w, http.StatusBadRequest, "validation_error", "topic and a valid difficulty are required")
		return
	}

	st, err := s.app.Load(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err, "load scores")
		return
	}

	var attempts int
	for _, e := range st.Scores() {
		if e.Topic == topic && e.Difficulty == difficulty {
			attempts++
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"topic":      topic,
		"difficulty": difficulty,
		"best":       st.Best(topic, difficulty),
		"attempts":   attempts,
	})
}

type importRequest struct {
	Scores []models.ScoreEntry `json:"scores"`
}

func (s *Server) handleImportScores(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	st, err := s.app.Load(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err, "load scores")
		return
	}

	st, imported, err := s.app.ImportScores(r.Context(), st, req.Scores)
	if err != nil {
		respondServiceError(w, err, "import scores")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"imported": imported,
		"summary":  scoring.Summarize(st.Scores()),
	})
}

// Profile handlers

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.Load(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err, "get profile")
		return
	}

	p := st.Profile()
	if p == nil {
		respondServiceError(w, auth.ErrProfileNotFound, "get profile")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	st, err := s.app.Load(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err, "update profile")
		return
	}

	st, err = s.app.UpdateProfile(r.Context(), st, req)
	if err != nil {
		respondServiceError(w, err, "update profile")
		return
	}

	respondJSON(w, http.StatusOK, st.Profile())
}
