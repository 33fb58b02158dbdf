package scoring

import (
	"math"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

// Presentation heuristics. Nothing here is stored.

// expectedSeconds is the per-question baseline used when a question has no time limit
var expectedSeconds = map[models.Difficulty]float64{
	models.DifficultyEasy:   30,
	models.DifficultyMedium: 45,
	models.DifficultyHard:   60,
}

// AverageSeconds returns timeTaken/total rounded, or 0 when either is unset
func AverageSeconds(timeTaken, total int) int {
	if timeTaken <= 0 || total <= 0 {
		return 0
	}
	return int(math.Round(float64(timeTaken) / float64(total)))
}

// SpeedLabel buckets an average number of seconds per question
func SpeedLabel(avgSeconds int) string {
	switch {
	case avgSeconds < 15:
		return "Excellent"
	case avgSeconds < 25:
		return "Good"
	case avgSeconds < 35:
		return "Average"
	default:
		return "Slow"
	}
}

// RadarScores are the 0..100 axes of the results radar chart
type RadarScores struct {
	Accuracy    int `json:"accuracy"`
	Speed       int `json:"speed"`
	Consistency int `json:"consistency"`
	Completion  int `json:"completion"`
}

// Radar derives chart axes from an attempt's questions, answers and per-question times
func Radar(questions []models.Question, answers []*int, times []int) RadarScores {
	b := Breakdown(questions, answers)
	r := RadarScores{
		Accuracy:   b.Accuracy,
		Completion: Percentage(b.Answered, len(questions)),
	}
	if len(questions) == 0 {
		return r
	}

	var expected, spent float64
	samples := make([]float64, 0, len(questions))
	for i, q := range questions {
		expected += expectedFor(q)
		t := 0.0
		if i < len(times) && times[i] > 0 {
			t = float64(times[i])
		}
		spent += t
		samples = append(samples, t)
	}

	// 50 at the expected pace, +/-50 as the attempt runs faster or slower
	if expected > 0 {
		r.Speed = clamp(50 + 50*(expected-spent)/expected)
	}

	mean := spent / float64(len(samples))
	if mean > 0 {
		var variance float64
		for _, s := range samples {
			variance += (s - mean) * (s - mean)
		}
		stddev := math.Sqrt(variance / float64(len(samples)))
		r.Consistency = clamp(100 - 100*stddev/mean)
	}
	return r
}

func expectedFor(q models.Question) float64 {
	if q.TimeLimit > 0 {
		return float64(q.TimeLimit)
	}
	if s, ok := expectedSeconds[q.Difficulty]; ok {
		return s
	}
	return expectedSeconds[models.DifficultyEasy]
}

func clamp(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
