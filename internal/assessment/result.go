package assessment

import (
	"github.com/terra-clan/aptitude-engine/internal/models"
	"github.com/terra-clan/aptitude-engine/internal/scoring"
)

// Result is the terminal payload of a session, shown on the results view
type Result struct {
	SessionID      string                  `json:"session_id"`
	Entry          models.ScoreEntry       `json:"entry"`
	Percentage     int                     `json:"percentage"`
	Message        string                  `json:"message"`
	Forced         bool                    `json:"forced"`
	Breakdown      scoring.AnswerBreakdown `json:"breakdown"`
	AverageSeconds int                     `json:"average_seconds"`
	SpeedLabel     string                  `json:"speed_label"`
	Radar          scoring.RadarScores     `json:"radar"`
	PersonalBest   float64                 `json:"personal_best"` // before this attempt
	IsNewRecord    bool                    `json:"is_new_record"`
	Improvement    *int                    `json:"improvement,omitempty"`
	Review         []ReviewItem            `json:"review"`
	PersistError   string                  `json:"persist_error,omitempty"`
}

// ReviewItem pairs a question, with its answer key, and the candidate's answer
type ReviewItem struct {
	Question  models.Question `json:"question"`
	Answer    *int            `json:"answer"`
	Correct   bool            `json:"correct"`
	TimeSpent int             `json:"time_spent"`
}

// buildResult reduces an outcome against the score history recorded before it
func buildResult(sessionID string, out *Outcome, previous []models.ScoreEntry) *Result {
	entry := out.Entry
	pct := scoring.Percentage(entry.Score, entry.Total)
	best := scoring.PersonalBest(previous, entry.Topic, entry.Difficulty)
	avg := scoring.AverageSeconds(out.TimeTaken, entry.Total)

	res := &Result{
		SessionID:      sessionID,
		Entry:          entry,
		Percentage:     pct,
		Message:        scoring.Message(pct),
		Forced:         out.Forced,
		Breakdown:      scoring.Breakdown(out.Questions, out.Answers),
		AverageSeconds: avg,
		SpeedLabel:     scoring.SpeedLabel(avg),
		Radar:          scoring.Radar(out.Questions, out.Answers, out.QuestionTimes),
		PersonalBest:   best,
		IsNewRecord:    scoring.IsNewRecord(pct, best),
		Review:         make([]ReviewItem, len(out.Questions)),
	}

	if hasAttempt(previous, entry.Topic, entry.Difficulty) {
		diff := pct - int(best+0.5)
		res.Improvement = &diff
	}

	for i, q := range out.Questions {
		item := ReviewItem{Question: q}
		if i < len(out.Answers) && out.Answers[i] != nil {
			item.Answer = out.Answers[i]
			item.Correct = *out.Answers[i] == q.CorrectAnswer
		}
		if i < len(out.QuestionTimes) {
			item.TimeSpent = out.QuestionTimes[i]
		}
		res.Review[i] = item
	}
	return res
}

func hasAttempt(entries []models.ScoreEntry, topicID string, difficulty models.Difficulty) bool {
	for _, e := range entries {
		if e.Topic == topicID && e.Difficulty == difficulty {
			return true
		}
	}
	return false
}
