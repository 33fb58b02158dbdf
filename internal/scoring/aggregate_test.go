package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

func entry(topic string, d models.Difficulty, score, total int) models.ScoreEntry {
	return NewEntry(topic, d, score, total, nil)
}

func TestTally_MergeMatchesUnion(t *testing.T) {
	a := []models.ScoreEntry{
		entry("x", models.DifficultyEasy, 8, 10),
		entry("y", models.DifficultyHard, 3, 25),
	}
	b := []models.ScoreEntry{
		entry("x", models.DifficultyEasy, 9, 10),
		entry("z", models.DifficultyMedium, 0, 0),
	}

	merged := TallyOf(a).Merge(TallyOf(b))
	union := TallyOf(append(append([]models.ScoreEntry{}, a...), b...))

	assert.Equal(t, union, merged)
	assert.Equal(t, union.Percentage(), merged.Percentage())
}

func TestTally_EmptyIsZero(t *testing.T) {
	var tl Tally
	assert.Equal(t, 0, tl.Percentage())
	assert.Equal(t, 0, TallyOf([]models.ScoreEntry{entry("x", models.DifficultyEasy, 0, 0)}).Percentage())
}

func TestPersonalBest_TiesAreNewRecord(t *testing.T) {
	history := []models.ScoreEntry{
		entry("x", models.DifficultyEasy, 8, 10),
		entry("x", models.DifficultyEasy, 9, 10),
	}
	attempt := entry("x", models.DifficultyEasy, 9, 10)

	best := PersonalBest(history, "x", models.DifficultyEasy)
	assert.InDelta(t, 90.0, best, 1e-9)

	pct := Percentage(attempt.Score, attempt.Total)
	assert.Equal(t, 90, pct)
	assert.True(t, IsNewRecord(pct, best), "ties count as a new record")
	assert.False(t, IsNewRecord(89, best))

	all := append(history, attempt)
	assert.Equal(t, 87, ByTopic(all)["x"].Percentage())
	assert.Equal(t, 87, ByDifficulty(all)[models.DifficultyEasy].Percentage())
}

func TestIsNewRecord_RoundedPercentageAgainstExactBest(t *testing.T) {
	third := []models.ScoreEntry{entry("x", models.DifficultyEasy, 1, 3)}
	best := PersonalBest(third, "x", models.DifficultyEasy)
	assert.InDelta(t, 33.333, best, 0.001)

	repeat := Percentage(1, 3)
	assert.Equal(t, 33, repeat)
	assert.False(t, IsNewRecord(repeat, best), "rounding down falls short of the exact best")

	twoThirds := []models.ScoreEntry{entry("x", models.DifficultyEasy, 2, 3)}
	best = PersonalBest(twoThirds, "x", models.DifficultyEasy)
	assert.True(t, IsNewRecord(Percentage(2, 3), best), "rounding up clears the exact best")
}

func TestPersonalBest_FiltersByTopicAndDifficulty(t *testing.T) {
	history := []models.ScoreEntry{
		entry("x", models.DifficultyHard, 10, 10),
		entry("y", models.DifficultyEasy, 10, 10),
		entry("x", models.DifficultyEasy, 1, 4),
		entry("x", models.DifficultyEasy, 0, 0),
	}
	assert.InDelta(t, 25.0, PersonalBest(history, "x", models.DifficultyEasy), 1e-9)
	assert.Zero(t, PersonalBest(history, "nope", models.DifficultyEasy))
	assert.True(t, IsNewRecord(0, 0))
}

func TestByTopic_WeightsByQuestionCount(t *testing.T) {
	entries := []models.ScoreEntry{
		entry("x", models.DifficultyEasy, 1, 1),
		entry("x", models.DifficultyEasy, 0, 9),
	}
	// per-attempt mean would be 50
	assert.Equal(t, 10, ByTopic(entries)["x"].Percentage())
}

func TestSummarize(t *testing.T) {
	t60, t90 := 60, 90
	entries := []models.ScoreEntry{
		NewEntry("x", models.DifficultyEasy, 9, 10, &t60),
		NewEntry("y", models.DifficultyMedium, 4, 10, &t90),
		NewEntry("x", models.DifficultyEasy, 7, 10, nil),
	}

	s := Summarize(entries)
	assert.Equal(t, 3, s.Attempts)
	assert.Equal(t, 20, s.TotalCorrect)
	assert.Equal(t, 30, s.TotalQuestions)
	assert.Equal(t, 67, s.Average)
	assert.Equal(t, 75, s.AverageTime)
	assert.Equal(t, 1, s.Ratings[models.RatingExcellent])
	assert.Equal(t, 1, s.Ratings[models.RatingGood])
	assert.Equal(t, 1, s.Ratings[models.RatingPoor])
	assert.Equal(t, 0, s.Ratings[models.RatingAverage])
	assert.Equal(t, Tally{Score: 16, Total: 20, Attempts: 2}, s.ByTopic["x"])
	assert.Equal(t, 40, s.ByDifficulty[models.DifficultyMedium].Percentage())
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Attempts)
	assert.Zero(t, s.Average)
	assert.Zero(t, s.AverageTime)
	assert.Empty(t, s.ByTopic)
}
