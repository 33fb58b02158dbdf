package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

func intp(v int) *int { return &v }

func questionsWithKey(keys ...int) []models.Question {
	qs := make([]models.Question, len(keys))
	for i, k := range keys {
		qs[i] = models.Question{
			ID:            string(rune('a' + i)),
			TopicID:       "x",
			Difficulty:    models.DifficultyEasy,
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: k,
		}
	}
	return qs
}

func TestScore_SkipsUnanswered(t *testing.T) {
	qs := questionsWithKey(0, 1, 1, 2)
	answers := []*int{intp(0), intp(1), nil, intp(2)}

	score := Score(qs, answers)
	pct := Percentage(score, len(qs))

	assert.Equal(t, 3, score)
	assert.Equal(t, 75, pct)
	assert.Equal(t, models.RatingGood, Rating(pct))
}

func TestScore_NeverExceedsTotal(t *testing.T) {
	qs := questionsWithKey(0, 0, 0)
	answers := []*int{intp(0), intp(0), intp(0), intp(0), intp(0)}
	assert.Equal(t, 3, Score(qs, answers))
	assert.Equal(t, 0, Score(qs, nil))
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{26, 30, 87},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{10, 10, 100},
	}
	for _, tt := range tests {
		got := Percentage(tt.score, tt.total)
		assert.Equal(t, tt.want, got, "Percentage(%d, %d)", tt.score, tt.total)
		assert.Equal(t, got, Percentage(tt.score, tt.total), "rounding must be deterministic")
	}
}

func TestRating(t *testing.T) {
	tests := []struct {
		pct  int
		want models.PerformanceRating
	}{
		{100, models.RatingExcellent},
		{90, models.RatingExcellent},
		{89, models.RatingGood},
		{70, models.RatingGood},
		{69, models.RatingAverage},
		{50, models.RatingAverage},
		{49, models.RatingPoor},
		{0, models.RatingPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rating(tt.pct), "Rating(%d)", tt.pct)
	}
}

func TestMessage(t *testing.T) {
	assert.Contains(t, Message(95), "mastered")
	assert.Contains(t, Message(75), "Great job")
	assert.Contains(t, Message(60), "right track")
	assert.Contains(t, Message(40), "making progress")
	assert.Contains(t, Message(10), "Keep practicing")
}

func TestBreakdown(t *testing.T) {
	qs := questionsWithKey(0, 1, 2, 3)
	b := Breakdown(qs, []*int{intp(0), intp(0), nil, intp(3)})

	assert.Equal(t, AnswerBreakdown{
		Answered:            3,
		Correct:             2,
		Incorrect:           1,
		Skipped:             1,
		CorrectPercentage:   50,
		IncorrectPercentage: 25,
		SkippedPercentage:   25,
		Accuracy:            67,
	}, b)
}

func TestBreakdown_Empty(t *testing.T) {
	b := Breakdown(nil, nil)
	assert.Zero(t, b)
}

func TestNewEntry(t *testing.T) {
	taken := 120
	e := NewEntry("percentages", models.DifficultyHard, 9, 10, &taken)
	assert.Equal(t, "percentages", e.Topic)
	assert.Equal(t, models.RatingExcellent, e.PerformanceRating)
	require.NotNil(t, e.TimeTaken)
	assert.Equal(t, 120, *e.TimeTaken)
}
