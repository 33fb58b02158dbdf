package catalog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

func newTestBank(t *testing.T, topicID string, d models.Difficulty, n int) *Loader {
	t.Helper()
	loader := NewLoader()
	loader.AddTopic(&models.Topic{ID: topicID, Title: strings.ToUpper(topicID), Difficulties: models.AllDifficulties})
	for i := 0; i < n; i++ {
		require.NoError(t, loader.AddQuestion(models.Question{
			ID:            fmt.Sprintf("%s-%d", topicID, i),
			TopicID:       topicID,
			Difficulty:    d,
			Prompt:        fmt.Sprintf("Question %d", i),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: i % 4,
		}))
	}
	return loader
}

func reverse(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

func TestSelectQuestions_PadsWithVariants(t *testing.T) {
	loader := newTestBank(t, "x", models.DifficultyEasy, 3)
	loader.SetShuffle(reverse)

	qs, err := loader.SelectQuestions("x", models.DifficultyEasy, 25)
	require.NoError(t, err)
	require.Len(t, qs, 25)

	// first three are the shuffled originals
	assert.Equal(t, []string{"x-2", "x-1", "x-0"}, []string{qs[0].ID, qs[1].ID, qs[2].ID})

	// then variants cycling through the same order
	assert.Equal(t, "x-2-v1", qs[3].ID)
	assert.Equal(t, "Question 2 (variant 1)", qs[3].Prompt)
	assert.Equal(t, qs[0].CorrectAnswer, qs[3].CorrectAnswer)
	assert.Equal(t, "x-0-v2", qs[8].ID)
	assert.Equal(t, "x-0-v7", qs[23].ID)
	assert.Equal(t, "x-2-v8", qs[24].ID)

	seen := map[string]bool{}
	for _, q := range qs {
		assert.False(t, seen[q.ID], "duplicate id %s", q.ID)
		seen[q.ID] = true
		assert.Equal(t, "x", q.TopicID)
		assert.Equal(t, models.DifficultyEasy, q.Difficulty)
	}
}

func TestSelectQuestions_ExactCountUniqueIDs(t *testing.T) {
	for _, bankSize := range []int{1, 2, 5, 10, 30} {
		for _, count := range []int{1, 3, 10, 25, 40} {
			loader := newTestBank(t, "t", models.DifficultyMedium, bankSize)

			qs, err := loader.SelectQuestions("t", models.DifficultyMedium, count)
			require.NoError(t, err)
			require.Len(t, qs, count, "bank=%d count=%d", bankSize, count)

			ids := make(map[string]struct{}, count)
			for _, q := range qs {
				ids[q.ID] = struct{}{}
			}
			assert.Len(t, ids, count, "bank=%d count=%d", bankSize, count)
		}
	}
}

func TestSelectQuestions_Truncates(t *testing.T) {
	loader := newTestBank(t, "x", models.DifficultyHard, 10)
	loader.SetShuffle(func(int, func(i, j int)) {})

	qs, err := loader.SelectQuestions("x", models.DifficultyHard, 4)
	require.NoError(t, err)
	require.Len(t, qs, 4)
	for i, q := range qs {
		assert.Equal(t, fmt.Sprintf("x-%d", i), q.ID)
	}
}

func TestSelectQuestions_Errors(t *testing.T) {
	loader := newTestBank(t, "x", models.DifficultyEasy, 3)

	_, err := loader.SelectQuestions("x", models.DifficultyHard, 5)
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = loader.SelectQuestions("missing", models.DifficultyEasy, 5)
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = loader.SelectQuestions("x", models.DifficultyEasy, 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestSelect_AvoidsCollisionWithExistingIDs(t *testing.T) {
	pool := []models.Question{
		{ID: "a", Prompt: "A"},
		{ID: "a-v1", Prompt: "B"},
	}
	qs := Select(pool, 4, func(int, func(i, j int)) {})

	ids := map[string]bool{}
	for _, q := range qs {
		assert.False(t, ids[q.ID], "duplicate id %s", q.ID)
		ids[q.ID] = true
	}
	assert.Len(t, qs, 4)
}
