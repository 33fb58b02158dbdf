package models

// Difficulty selects a question pool and the time budget of an assessment
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// AllDifficulties lists difficulties in ascending order
var AllDifficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// IsValid reports whether d is one of the known difficulties
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Label returns the display label of the difficulty
func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	default:
		return "Unknown"
	}
}

// BudgetSeconds returns the countdown budget of an assessment at this difficulty
func (d Difficulty) BudgetSeconds() int {
	switch d {
	case DifficultyMedium:
		return 1800
	case DifficultyHard:
		return 2400
	default:
		return 1200
	}
}

// Topic is a named subject area grouping questions (e.g. "Logical Reasoning")
type Topic struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Icon           string       `json:"icon,omitempty"`
	Color          string       `json:"color,omitempty"`
	Difficulties   []Difficulty `json:"difficulties"`
	QuestionsCount int          `json:"questionsCount"`
}

// Supports reports whether the topic offers the given difficulty
func (t *Topic) Supports(d Difficulty) bool {
	for _, td := range t.Difficulties {
		if td == d {
			return true
		}
	}
	return false
}

// Question is a single multiple-choice item. Immutable once loaded.
type Question struct {
	ID            string     `json:"id"`
	TopicID       string     `json:"topicId"`
	Difficulty    Difficulty `json:"difficulty"`
	Prompt        string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correctAnswer"`
	Explanation   string     `json:"explanation,omitempty"`
	TimeLimit     int        `json:"timeLimit,omitempty"` // seconds, 0 = unset
}

// Public strips the answer key so the question can be shown during an attempt
func (q *Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		TopicID:    q.TopicID,
		Difficulty: q.Difficulty,
		Prompt:     q.Prompt,
		Options:    q.Options,
		TimeLimit:  q.TimeLimit,
	}
}

// PublicQuestion is a question without its correct answer or explanation
type PublicQuestion struct {
	ID         string     `json:"id"`
	TopicID    string     `json:"topicId"`
	Difficulty Difficulty `json:"difficulty"`
	Prompt     string     `json:"question"`
	Options    []string   `json:"options"`
	TimeLimit  int        `json:"timeLimit,omitempty"`
}
