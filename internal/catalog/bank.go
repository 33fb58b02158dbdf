// Package catalog loads topics and the question bank from YAML and
// selects question sets for assessments.
package catalog

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

// Errors
var (
	ErrTopicNotFound = errors.New("topic not found")
	ErrNoQuestions   = errors.New("no questions available for topic and difficulty")
	ErrInvalidCount  = errors.New("question count must be positive")
)

// Bank is the read side of the catalog used by assessments and the API
type Bank interface {
	ListTopics() []*models.Topic
	GetTopic(id string) *models.Topic
	Questions(topicID string, difficulty models.Difficulty) []models.Question
	SelectQuestions(topicID string, difficulty models.Difficulty, count int) ([]models.Question, error)
}

var _ Bank = (*Loader)(nil)

func defaultShuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// SetShuffle replaces the permutation source. Intended for tests.
func (l *Loader) SetShuffle(shuffle func(n int, swap func(i, j int))) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shuffle = shuffle
}

// SelectQuestions returns exactly count questions for the topic and difficulty.
// Matches are shuffled, then truncated, or cycled as numbered variants when
// the pool is smaller than count.
func (l *Loader) SelectQuestions(topicID string, difficulty models.Difficulty, count int) ([]models.Question, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}

	pool := l.Questions(topicID, difficulty)
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoQuestions, topicID, difficulty)
	}

	l.mu.RLock()
	shuffle := l.shuffle
	l.mu.RUnlock()

	return Select(pool, count, shuffle), nil
}

// Select shuffles pool in place and pads or truncates it to count.
// Padding cycles through the shuffled pool; round r of the cycle yields
// ids "<id>-v<r>" and prompts annotated " (variant <r>)".
func Select(pool []models.Question, count int, shuffle func(n int, swap func(i, j int))) []models.Question {
	if len(pool) == 0 || count <= 0 {
		return nil
	}

	shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	if len(pool) >= count {
		return pool[:count:count]
	}

	result := make([]models.Question, 0, count)
	seen := make(map[string]struct{}, count)
	for _, q := range pool {
		result = append(result, q)
		seen[q.ID] = struct{}{}
	}
	for i := len(pool); i < count; i++ {
		round := i / len(pool)
		v := Variant(pool[i%len(pool)], round)
		// a bank may already hold an id shaped like a variant
		for n := 2; ; n++ {
			if _, taken := seen[v.ID]; !taken {
				break
			}
			v.ID = fmt.Sprintf("%s-v%d-%d", pool[i%len(pool)].ID, round, n)
		}
		seen[v.ID] = struct{}{}
		result = append(result, v)
	}
	return result
}

// Variant returns a copy of q marked as the given round of reuse
func Variant(q models.Question, round int) models.Question {
	v := q
	v.ID = fmt.Sprintf("%s-v%d", q.ID, round)
	v.Prompt = fmt.Sprintf("%s (variant %d)", q.Prompt, round)
	v.Options = append([]string(nil), q.Options...)
	return v
}
