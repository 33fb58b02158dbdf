package models

import "time"

// PerformanceRating is a coarse bucket derived from a percentage
type PerformanceRating string

const (
	RatingExcellent PerformanceRating = "excellent"
	RatingGood      PerformanceRating = "good"
	RatingAverage   PerformanceRating = "average"
	RatingPoor      PerformanceRating = "poor"
)

// ScoreEntry is the persisted outcome of one completed assessment.
// Entries are append-only and never mutated after creation.
type ScoreEntry struct {
	Topic             string            `json:"topic"`
	Difficulty        Difficulty        `json:"difficulty"`
	Score             int               `json:"score"`
	Total             int               `json:"total"`
	Date              time.Time         `json:"date"`
	TimeTaken         *int              `json:"timeTaken,omitempty"` // seconds
	PerformanceRating PerformanceRating `json:"performanceRating,omitempty"`
}
