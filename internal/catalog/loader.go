package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

const defaultQuestionsCount = 25

// Loader manages loading and caching of topics and their question bank
type Loader struct {
	mu        sync.RWMutex
	topics    map[string]*models.Topic
	questions map[string]*models.Question
	pools     map[poolKey][]*models.Question

	// problems collects files and entries skipped during loading
	problems []error

	shuffle func(n int, swap func(i, j int))
}

type poolKey struct {
	topic      string
	difficulty models.Difficulty
}

// NewLoader creates a new catalog loader
func NewLoader() *Loader {
	return &Loader{
		topics:    make(map[string]*models.Topic),
		questions: make(map[string]*models.Question),
		pools:     make(map[poolKey][]*models.Question),
		shuffle:   defaultShuffle,
	}
}

// LoadFromDir loads every topic directory (one containing topic.yaml) under dir.
// Invalid topics, files and questions are logged and skipped.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading catalog from directory", "dir", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read catalog directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		topicDir := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(topicDir, "topic.yaml")); os.IsNotExist(err) {
			continue // not a topic directory
		}

		topic, err := l.loadTopic(entry.Name(), topicDir)
		if err != nil {
			l.skip("failed to load topic", fmt.Errorf("topic %s: %w", entry.Name(), err))
			continue
		}

		slog.Info("catalog topic loaded", "id", topic.ID, "title", topic.Title,
			"questions", l.countFor(topic.ID))
	}

	l.mu.RLock()
	slog.Info("catalog loaded", "topics", len(l.topics), "questions", len(l.questions),
		"skipped", len(l.problems))
	l.mu.RUnlock()
	return nil
}

// loadTopic parses topic.yaml and every question file under questions/
func (l *Loader) loadTopic(id, dir string) (*models.Topic, error) {
	data, err := os.ReadFile(filepath.Join(dir, "topic.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read topic.yaml: %w", err)
	}

	var tf topicFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse topic.yaml: %w", err)
	}

	if tf.Title == "" {
		return nil, fmt.Errorf("topic title is required")
	}

	topic := &models.Topic{
		ID:             id,
		Title:          tf.Title,
		Description:    tf.Description,
		Icon:           tf.Icon,
		Color:          tf.Color,
		QuestionsCount: tf.QuestionsCount,
	}
	for _, d := range tf.Difficulties {
		diff := models.Difficulty(strings.ToLower(d))
		if !diff.IsValid() {
			return nil, fmt.Errorf("unknown difficulty %q", d)
		}
		topic.Difficulties = append(topic.Difficulties, diff)
	}

	// Apply defaults
	if len(topic.Difficulties) == 0 {
		topic.Difficulties = append([]models.Difficulty(nil), models.AllDifficulties...)
	}
	if topic.QuestionsCount <= 0 {
		topic.QuestionsCount = defaultQuestionsCount
	}

	l.AddTopic(topic)

	questionsDir := filepath.Join(dir, "questions")
	if _, err := os.Stat(questionsDir); err == nil {
		if err := l.loadQuestions(id, questionsDir); err != nil {
			slog.Warn("failed to load questions", "topic", id, "error", err)
		}
	}

	return topic, nil
}

// loadQuestions loads all question YAML files from a questions/ directory
func (l *Loader) loadQuestions(topicID, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read questions dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := l.loadQuestionFile(topicID, path); err != nil {
			l.skip("failed to load question file", fmt.Errorf("%s: %w", path, err))
		}
	}

	return nil
}

// loadQuestionFile loads one file holding a list of questions
func (l *Loader) loadQuestionFile(topicID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read question file: %w", err)
	}

	var qf questionFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return fmt.Errorf("failed to parse question YAML: %w", err)
	}

	for i, entry := range qf.Questions {
		q := entry.toModel(topicID)
		if err := l.AddQuestion(q); err != nil {
			l.skip("invalid question", fmt.Errorf("%s #%d: %w", filepath.Base(path), i, err))
		}
	}
	return nil
}

func (l *Loader) skip(msg string, err error) {
	slog.Warn(msg, "error", err)
	l.mu.Lock()
	l.problems = append(l.problems, err)
	l.mu.Unlock()
}

// AddTopic programmatically adds or replaces a topic
func (l *Loader) AddTopic(topic *models.Topic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.topics[topic.ID] = topic
}

// AddQuestion validates and adds a question to the bank.
// The question's topic must already be known.
func (l *Loader) AddQuestion(q models.Question) error {
	if err := Validate(&q); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.topics[q.TopicID]; !ok {
		return fmt.Errorf("%w: %s", ErrTopicNotFound, q.TopicID)
	}
	if _, dup := l.questions[q.ID]; dup {
		return fmt.Errorf("duplicate question id %q", q.ID)
	}

	stored := q
	stored.Options = append([]string(nil), q.Options...)
	l.questions[q.ID] = &stored
	key := poolKey{topic: q.TopicID, difficulty: q.Difficulty}
	l.pools[key] = append(l.pools[key], &stored)
	return nil
}

// Validate checks the structural rules every question must satisfy
func Validate(q *models.Question) error {
	if q.ID == "" {
		return fmt.Errorf("question id is required")
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("question %s: prompt is required", q.ID)
	}
	if !q.Difficulty.IsValid() {
		return fmt.Errorf("question %s: unknown difficulty %q", q.ID, q.Difficulty)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("question %s: at least 2 options required", q.ID)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("question %s: correct answer %d out of range", q.ID, q.CorrectAnswer)
	}
	if q.TimeLimit < 0 {
		return fmt.Errorf("question %s: negative time limit", q.ID)
	}
	return nil
}

// Problems returns every error recorded while loading
func (l *Loader) Problems() []error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]error(nil), l.problems...)
}

// --- Accessors ---

// ListTopics returns all loaded topics sorted by id
func (l *Loader) ListTopics() []*models.Topic {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Topic, 0, len(l.topics))
	for _, t := range l.topics {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// GetTopic returns a topic by ID, or nil
func (l *Loader) GetTopic(id string) *models.Topic {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.topics[id]
}

// GetQuestion returns a question by ID, or nil
func (l *Loader) GetQuestion(id string) *models.Question {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.questions[id]
}

// Questions returns copies of every question for a topic and difficulty
func (l *Loader) Questions(topicID string, difficulty models.Difficulty) []models.Question {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pool := l.pools[poolKey{topic: topicID, difficulty: difficulty}]
	result := make([]models.Question, len(pool))
	for i, q := range pool {
		result[i] = *q
	}
	return result
}

// Counts returns the number of questions per difficulty for a topic
func (l *Loader) Counts(topicID string) map[models.Difficulty]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[models.Difficulty]int, len(models.AllDifficulties))
	for _, d := range models.AllDifficulties {
		counts[d] = len(l.pools[poolKey{topic: topicID, difficulty: d}])
	}
	return counts
}

func (l *Loader) countFor(topicID string) int {
	n := 0
	for _, c := range l.Counts(topicID) {
		n += c
	}
	return n
}

// --- YAML file structs ---

// topicFile represents the YAML structure of a topic.yaml file
type topicFile struct {
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	Icon           string   `yaml:"icon"`
	Color          string   `yaml:"color"`
	Difficulties   []string `yaml:"difficulties"`
	QuestionsCount int      `yaml:"questions_count"`
}

// questionFile represents the YAML structure of a questions/*.yaml file
type questionFile struct {
	Questions []questionEntry `yaml:"questions"`
}

type questionEntry struct {
	ID            string   `yaml:"id"`
	Difficulty    string   `yaml:"difficulty"`
	Question      string   `yaml:"question"`
	Options       []string `yaml:"options"`
	CorrectAnswer *int     `yaml:"correct_answer"`
	Explanation   string   `yaml:"explanation"`
	TimeLimit     int      `yaml:"time_limit"`
}

func (e questionEntry) toModel(topicID string) models.Question {
	correct := -1 // missing key fails validation
	if e.CorrectAnswer != nil {
		correct = *e.CorrectAnswer
	}
	return models.Question{
		ID:            e.ID,
		TopicID:       topicID,
		Difficulty:    models.Difficulty(strings.ToLower(e.Difficulty)),
		Prompt:        e.Question,
		Options:       e.Options,
		CorrectAnswer: correct,
		Explanation:   e.Explanation,
		TimeLimit:     e.TimeLimit,
	}
}
