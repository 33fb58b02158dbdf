package assessment

import (
	"sync"
	"time"

	"github.com/terra-clan/aptitude-engine/internal/models"
	"github.com/terra-clan/aptitude-engine/internal/scoring"
)

// Session is one timed attempt. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id         string
	owner      string
	topicID    string
	difficulty models.Difficulty
	questions  []models.Question

	answers   []*int
	spent     []time.Duration // accumulated per question
	current   int
	enteredAt time.Time // when the current question came into view
	remaining int
	startedAt time.Time
	state     models.SessionState
}

// Outcome is the scored state of a session at submit time
type Outcome struct {
	Questions     []models.Question
	Answers       []*int
	QuestionTimes []int
	TimeTaken     int
	Forced        bool
	Entry         models.ScoreEntry
}

// NewSession creates an active session whose countdown starts at budget seconds
func NewSession(id, owner, topicID string, difficulty models.Difficulty, questions []models.Question, budget int, now time.Time) *Session {
	return &Session{
		id:         id,
		owner:      owner,
		topicID:    topicID,
		difficulty: difficulty,
		questions:  questions,
		answers:    make([]*int, len(questions)),
		spent:      make([]time.Duration, len(questions)),
		enteredAt:  now,
		remaining:  budget,
		startedAt:  now,
		state:      models.SessionActive,
	}
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Owner returns the identity that started the session
func (s *Session) Owner() string { return s.owner }

// StartedAt returns when the session started
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Difficulty returns the session difficulty
func (s *Session) Difficulty() models.Difficulty { return s.difficulty }

// State returns the current lifecycle state
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectOption records an option for the current question, replacing any
// earlier choice. The pointer does not move.
func (s *Session) SelectOption(option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.SessionActive {
		return ErrSessionClosed
	}
	if option < 0 || option >= len(s.questions[s.current].Options) {
		return ErrInvalidOption
	}

	s.answers[s.current] = &option
	return nil
}

// GoTo moves to an arbitrary question, charging the elapsed time to the one left
func (s *Session) GoTo(index int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveTo(index, now)
}

// Next moves to the following question
func (s *Session) Next(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveTo(s.current+1, now)
}

// Prev moves to the preceding question
func (s *Session) Prev(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveTo(s.current-1, now)
}

// moveTo must be called with mu held
func (s *Session) moveTo(index int, now time.Time) error {
	if s.state != models.SessionActive {
		return ErrSessionClosed
	}
	if index < 0 || index >= len(s.questions) {
		return ErrInvalidIndex
	}

	s.leaveCurrent(now)
	s.current = index
	return nil
}

// leaveCurrent must be called with mu held
func (s *Session) leaveCurrent(now time.Time) {
	if d := now.Sub(s.enteredAt); d > 0 {
		s.spent[s.current] += d
	}
	s.enteredAt = now
}

// Tick decrements the countdown by one second. expired is true on the tick
// that reaches zero; ok is false once the session stopped accepting ticks.
func (s *Session) Tick() (remaining int, expired, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.SessionActive {
		return s.remaining, false, false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	return s.remaining, s.remaining == 0, true
}

// Submit moves an active session to submitting and scores it.
// A manual submit is only accepted on the last question; a forced one always is.
func (s *Session) Submit(now time.Time, forced bool) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.SessionActive {
		return nil, ErrSessionClosed
	}
	if !forced && s.current != len(s.questions)-1 {
		return nil, ErrNotOnLastQuestion
	}

	s.state = models.SessionSubmitting
	s.leaveCurrent(now)

	timeTaken := 0
	if d := now.Sub(s.startedAt); d > 0 {
		timeTaken = int(d / time.Second)
	}

	answers := append([]*int(nil), s.answers...)
	score := scoring.Score(s.questions, answers)
	entry := scoring.NewEntry(s.topicID, s.difficulty, score, len(s.questions), &timeTaken)
	entry.Date = now

	return &Outcome{
		Questions:     s.questions,
		Answers:       answers,
		QuestionTimes: s.questionTimes(),
		TimeTaken:     timeTaken,
		Forced:        forced,
		Entry:         entry,
	}, nil
}

// terminate marks a submitted session as recorded
func (s *Session) terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == models.SessionSubmitting {
		s.state = models.SessionTerminated
	}
}

// Discard tears down an active session without a submit. It returns false
// when the session had already left the active state.
func (s *Session) Discard() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != models.SessionActive {
		return false
	}
	s.state = models.SessionDiscarded
	return true
}

// View returns a snapshot without answer keys. Time on the question in view
// is counted up to now.
func (s *Session) View(now time.Time) models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions := make([]models.PublicQuestion, len(s.questions))
	for i := range s.questions {
		questions[i] = s.questions[i].Public()
	}

	times := s.questionTimes()
	if s.state == models.SessionActive {
		if d := now.Sub(s.enteredAt); d > 0 {
			times[s.current] = int((s.spent[s.current] + d) / time.Second)
		}
	}

	return models.SessionView{
		ID:               s.id,
		TopicID:          s.topicID,
		Difficulty:       s.difficulty,
		State:            s.state,
		Questions:        questions,
		Answers:          append([]*int(nil), s.answers...),
		QuestionTimes:    times,
		CurrentIndex:     s.current,
		RemainingSeconds: s.remaining,
		StartedAt:        s.startedAt,
	}
}

// questionTimes must be called with mu held
func (s *Session) questionTimes() []int {
	times := make([]int, len(s.spent))
	for i, d := range s.spent {
		times[i] = int(d / time.Second)
	}
	return times
}
