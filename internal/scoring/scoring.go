// Package scoring reduces answered questions and score histories into
// scores, ratings and aggregates. Every function is pure and total.
package scoring

import (
	"github.com/terra-clan/aptitude-engine/internal/models"
)

// Score counts the answers that match the correct option of their question.
// Unanswered slots never match. Extra answers beyond len(questions) are ignored.
func Score(questions []models.Question, answers []*int) int {
	score := 0
	for i, q := range questions {
		if i >= len(answers) || answers[i] == nil {
			continue
		}
		if *answers[i] == q.CorrectAnswer {
			score++
		}
	}
	return score
}

// Percentage returns score/total*100 rounded half up, or 0 when total <= 0
func Percentage(score, total int) int {
	if total <= 0 || score <= 0 {
		return 0
	}
	return (score*200 + total) / (2 * total)
}

// Ratio returns score/total*100 without rounding, or 0 when total <= 0
func Ratio(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

// Rating buckets a percentage
func Rating(percentage int) models.PerformanceRating {
	switch {
	case percentage >= 90:
		return models.RatingExcellent
	case percentage >= 70:
		return models.RatingGood
	case percentage >= 50:
		return models.RatingAverage
	default:
		return models.RatingPoor
	}
}

// Message returns the headline shown with a result
func Message(percentage int) string {
	switch {
	case percentage >= 90:
		return "Excellent! You've mastered this topic."
	case percentage >= 75:
		return "Great job! You have a strong understanding."
	case percentage >= 60:
		return "Good work! You're on the right track."
	case percentage >= 40:
		return "You're making progress, but need more practice."
	default:
		return "Keep practicing! You'll improve with more study."
	}
}

// AnswerBreakdown splits a completed attempt into answered, correct,
// incorrect and skipped questions.
type AnswerBreakdown struct {
	Answered            int `json:"answered"`
	Correct             int `json:"correct"`
	Incorrect           int `json:"incorrect"`
	Skipped             int `json:"skipped"`
	CorrectPercentage   int `json:"correctPercentage"`
	IncorrectPercentage int `json:"incorrectPercentage"`
	SkippedPercentage   int `json:"skippedPercentage"`
	Accuracy            int `json:"accuracy"` // correct out of answered
}

// Breakdown computes the answer breakdown of an attempt
func Breakdown(questions []models.Question, answers []*int) AnswerBreakdown {
	var b AnswerBreakdown
	for i, q := range questions {
		if i >= len(answers) || answers[i] == nil {
			b.Skipped++
			continue
		}
		b.Answered++
		if *answers[i] == q.CorrectAnswer {
			b.Correct++
		} else {
			b.Incorrect++
		}
	}

	total := len(questions)
	b.CorrectPercentage = Percentage(b.Correct, total)
	b.IncorrectPercentage = Percentage(b.Incorrect, total)
	b.SkippedPercentage = Percentage(b.Skipped, total)
	b.Accuracy = Percentage(b.Correct, b.Answered)
	return b
}

// NewEntry builds the history record of a completed attempt
func NewEntry(topicID string, difficulty models.Difficulty, score, total int, timeTaken *int) models.ScoreEntry {
	return models.ScoreEntry{
		Topic:             topicID,
		Difficulty:        difficulty,
		Score:             score,
		Total:             total,
		TimeTaken:         timeTaken,
		PerformanceRating: Rating(Percentage(score, total)),
	}
}
