package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

func TestLoadFromDir_ShippedCatalog(t *testing.T) {
	catalogDir := filepath.Join("..", "..", "catalog")
	if _, err := os.Stat(catalogDir); os.IsNotExist(err) {
		t.Skip("catalog directory not found, skipping")
	}

	loader := NewLoader()
	require.NoError(t, loader.LoadFromDir(catalogDir))
	assert.Empty(t, loader.Problems())

	topics := loader.ListTopics()
	require.Len(t, topics, 7)
	assert.Equal(t, "blood-relations", topics[0].ID, "topics are sorted by id")

	lr := loader.GetTopic("logical-reasoning")
	require.NotNil(t, lr)
	assert.Equal(t, "Logical Reasoning", lr.Title)
	assert.Equal(t, "Brain", lr.Icon)
	assert.Equal(t, 25, lr.QuestionsCount)
	assert.Equal(t, models.AllDifficulties, lr.Difficulties)

	for _, topic := range topics {
		for _, d := range models.AllDifficulties {
			assert.NotEmpty(t, loader.Questions(topic.ID, d), "%s/%s has no questions", topic.ID, d)
		}
	}

	q := loader.GetQuestion("hcf-easy-1")
	require.NotNil(t, q)
	assert.Equal(t, "hcf-lcm", q.TopicID)
	assert.Equal(t, 2, q.CorrectAnswer)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadFromDir_SkipsInvalidEntries(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "alpha", "topic.yaml"), `
title: Alpha
description: First topic
difficulties: [easy]
`)
	writeFile(t, filepath.Join(dir, "alpha", "questions", "easy.yaml"), `
questions:
  - id: a1
    difficulty: easy
    question: One?
    options: ["x", "y"]
    correct_answer: 1
  - id: a1
    difficulty: easy
    question: Duplicate id
    options: ["x", "y"]
    correct_answer: 0
  - id: a2
    difficulty: easy
    question: Out of range answer
    options: ["x", "y"]
    correct_answer: 5
  - id: a3
    difficulty: easy
    question: Too few options
    options: ["x"]
    correct_answer: 0
  - id: a4
    difficulty: easy
    question: Missing answer key
    options: ["x", "y"]
  - id: a5
    difficulty: extreme
    question: Unknown difficulty
    options: ["x", "y"]
    correct_answer: 0
`)
	writeFile(t, filepath.Join(dir, "alpha", "questions", "broken.yaml"), "questions: [::")
	writeFile(t, filepath.Join(dir, "alpha", "questions", "notes.txt"), "ignored")

	// topic without a title is skipped entirely
	writeFile(t, filepath.Join(dir, "beta", "topic.yaml"), "description: no title\n")
	// directory without topic.yaml is not a topic
	writeFile(t, filepath.Join(dir, "gamma", "questions", "easy.yaml"), "questions: []\n")

	loader := NewLoader()
	require.NoError(t, loader.LoadFromDir(dir))

	topics := loader.ListTopics()
	require.Len(t, topics, 1)
	assert.Equal(t, "alpha", topics[0].ID)
	assert.Equal(t, defaultQuestionsCount, topics[0].QuestionsCount)

	qs := loader.Questions("alpha", models.DifficultyEasy)
	require.Len(t, qs, 1)
	assert.Equal(t, "a1", qs[0].ID)
	assert.Equal(t, "One?", qs[0].Prompt)

	// 5 bad questions, 1 unparsable file, 1 untitled topic
	assert.Len(t, loader.Problems(), 7)
	assert.Equal(t, map[models.Difficulty]int{
		models.DifficultyEasy:   1,
		models.DifficultyMedium: 0,
		models.DifficultyHard:   0,
	}, loader.Counts("alpha"))
}

func TestLoadFromDir_MissingDir(t *testing.T) {
	loader := NewLoader()
	assert.Error(t, loader.LoadFromDir(filepath.Join(t.TempDir(), "missing")))
}

func TestAddQuestion_UnknownTopic(t *testing.T) {
	loader := NewLoader()
	err := loader.AddQuestion(models.Question{
		ID: "q", TopicID: "nope", Difficulty: models.DifficultyEasy,
		Prompt: "?", Options: []string{"a", "b"},
	})
	assert.ErrorIs(t, err, ErrTopicNotFound)
}

func TestQuestions_ReturnsCopies(t *testing.T) {
	loader := newTestBank(t, "x", models.DifficultyEasy, 2)

	qs := loader.Questions("x", models.DifficultyEasy)
	qs[0].Prompt = "mutated"
	qs[0].Options[0] = "mutated"

	fresh := loader.Questions("x", models.DifficultyEasy)
	assert.NotEqual(t, "mutated", fresh[0].Prompt)
}
