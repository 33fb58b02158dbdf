package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

type difficultyInfo struct {
	Difficulty    models.Difficulty `json:"difficulty"`
	Label         string            `json:"label"`
	BudgetSeconds int               `json:"budget_seconds"`
	Available     int               `json:"available"`
}

type topicDetail struct {
	*models.Topic
	Levels []difficultyInfo `json:"levels"`
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics := s.bank.ListTopics()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"topics": topics,
		"total":  len(topics),
	})
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "topicId")

	topic := s.bank.GetTopic(id)
	if topic == nil {
		respondError(w, http.StatusNotFound, "topic_not_found", "topic not found")
		return
	}

	levels := make([]difficultyInfo, 0, len(topic.Difficulties))
	for _, d := range topic.Difficulties {
		levels = append(levels, difficultyInfo{
			Difficulty:    d,
			Label:         d.Label(),
			BudgetSeconds: d.BudgetSeconds(),
			Available:     len(s.bank.Questions(topic.ID, d)),
		})
	}

	respondJSON(w, http.StatusOK, topicDetail{Topic: topic, Levels: levels})
}
