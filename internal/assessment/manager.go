// Package assessment runs timed assessment sessions: the per-session state
// machine, its countdown, and the manager that records finished attempts.
package assessment

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/aptitude-engine/internal/catalog"
	"github.com/terra-clan/aptitude-engine/internal/config"
	"github.com/terra-clan/aptitude-engine/internal/history"
	"github.com/terra-clan/aptitude-engine/internal/models"
)

// Common errors
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrResultNotFound       = errors.New("result not found")
	ErrSessionClosed        = errors.New("session is no longer active")
	ErrNotOnLastQuestion    = errors.New("submit is only allowed from the last question")
	ErrInvalidOption        = errors.New("option out of range")
	ErrInvalidIndex         = errors.New("question index out of range")
	ErrInvalidDirection     = errors.New("direction must be next or prev")
	ErrDifficultyNotOffered = errors.New("difficulty not offered for topic")
	ErrTooManyQuestions     = errors.New("question count exceeds limit")
	ErrManagerClosed        = errors.New("assessment manager is closed")
)

// MaxQuestions caps the size of a single assessment
const MaxQuestions = 200

const persistTimeout = 10 * time.Second

// Event types pushed to subscribers
const (
	EventTick      = "tick"
	EventSubmitted = "submitted"
	EventClosed    = "closed"
)

// Event is a countdown or lifecycle notification for one session
type Event struct {
	Type      string  `json:"type"`
	Remaining int     `json:"remaining,omitempty"`
	Result    *Result `json:"result,omitempty"`
}

// Manager defines the interface for assessment management
type Manager interface {
	Start(ctx context.Context, owner string, req models.StartAssessmentRequest) (*models.SessionView, error)
	Get(ctx context.Context, id, owner string) (*models.SessionView, error)
	SelectOption(ctx context.Context, id, owner string, option int) (*models.SessionView, error)
	Navigate(ctx context.Context, id, owner string, req models.NavigateRequest) (*models.SessionView, error)
	Submit(ctx context.Context, id, owner string) (*Result, error)
	Discard(ctx context.Context, id, owner string) error
	Result(ctx context.Context, id, owner string) (*Result, error)
	Subscribe(ctx context.Context, id, owner string) (<-chan Event, func(), error)
	Sweep(ctx context.Context) (discarded, evicted int)
	Close() error
}

// Option configures a SessionManager
type Option func(*SessionManager)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *SessionManager) { m.now = now }
}

// WithBudget replaces the per-difficulty countdown budget in seconds
func WithBudget(budget func(models.Difficulty) int) Option {
	return func(m *SessionManager) { m.budget = budget }
}

// SessionManager implements Manager with in-memory sessions and a
// history.Store for finished attempts.
type SessionManager struct {
	bank   catalog.Bank
	scores history.Store
	cfg    config.AssessmentConfig
	now    func() time.Time
	budget func(models.Difficulty) int

	mu       sync.Mutex
	sessions map[string]*liveSession
	results  map[string]*storedResult
	closed   bool
}

type liveSession struct {
	session   *Session
	countdown *Countdown

	subMu    sync.Mutex
	subs     map[int]chan Event
	nextSub  int
	finished bool
}

type storedResult struct {
	owner     string
	result    *Result
	expiresAt time.Time
}

// NewManager creates a SessionManager
func NewManager(bank catalog.Bank, scores history.Store, cfg config.AssessmentConfig, opts ...Option) *SessionManager {
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = 25
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}

	m := &SessionManager{
		bank:     bank,
		scores:   scores,
		cfg:      cfg,
		now:      time.Now,
		budget:   models.Difficulty.BudgetSeconds,
		sessions: make(map[string]*liveSession),
		results:  make(map[string]*storedResult),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start selects questions and starts a session with its countdown running
func (m *SessionManager) Start(ctx context.Context, owner string, req models.StartAssessmentRequest) (*models.SessionView, error) {
	topic := m.bank.GetTopic(req.TopicID)
	if topic == nil {
		return nil, catalog.ErrTopicNotFound
	}
	if !req.Difficulty.IsValid() || !topic.Supports(req.Difficulty) {
		return nil, ErrDifficultyNotOffered
	}

	count := req.Count
	if count == 0 {
		count = m.cfg.QuestionCount
	}
	if count > MaxQuestions {
		return nil, ErrTooManyQuestions
	}

	questions, err := m.bank.SelectQuestions(topic.ID, req.Difficulty, count)
	if err != nil {
		return nil, err
	}

	now := m.now()
	id := uuid.New().String()
	ls := &liveSession{
		session: NewSession(id, owner, topic.ID, req.Difficulty, questions, m.budget(req.Difficulty), now),
		subs:    make(map[int]chan Event),
	}
	ls.countdown = NewCountdown(m.cfg.TickInterval, func() bool { return m.tick(ls) })

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	m.sessions[id] = ls
	m.mu.Unlock()

	ls.countdown.Start()

	slog.Info("assessment started",
		"id", id,
		"owner", owner,
		"topic", topic.ID,
		"difficulty", req.Difficulty,
		"questions", len(questions),
	)

	view := ls.session.View(now)
	return &view, nil
}

// tick runs on the countdown goroutine
func (m *SessionManager) tick(ls *liveSession) bool {
	remaining, expired, ok := ls.session.Tick()
	if !ok {
		return false
	}

	ls.publish(Event{Type: EventTick, Remaining: remaining})
	if !expired {
		return true
	}

	out, err := ls.session.Submit(m.now(), true)
	if err != nil {
		// a manual submit or discard got there first
		return false
	}

	slog.Info("assessment time expired, submitting", "id", ls.session.ID())

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	m.finish(ctx, ls, out)
	return false
}

// Get returns the candidate view of a live session
func (m *SessionManager) Get(ctx context.Context, id, owner string) (*models.SessionView, error) {
	ls, err := m.live(id, owner)
	if err != nil {
		return nil, err
	}
	view := ls.session.View(m.now())
	return &view, nil
}

// SelectOption records an option for the current question
func (m *SessionManager) SelectOption(ctx context.Context, id, owner string, option int) (*models.SessionView, error) {
	ls, err := m.live(id, owner)
	if err != nil {
		return nil, err
	}
	if err := ls.session.SelectOption(option); err != nil {
		return nil, err
	}
	view := ls.session.View(m.now())
	return &view, nil
}

// Navigate moves the current question pointer
func (m *SessionManager) Navigate(ctx context.Context, id, owner string, req models.NavigateRequest) (*models.SessionView, error) {
	ls, err := m.live(id, owner)
	if err != nil {
		return nil, err
	}

	now := m.now()
	switch {
	case req.To != nil:
		err = ls.session.GoTo(*req.To, now)
	case req.Direction == "next":
		err = ls.session.Next(now)
	case req.Direction == "prev":
		err = ls.session.Prev(now)
	default:
		err = ErrInvalidDirection
	}
	if err != nil {
		return nil, err
	}

	view := ls.session.View(now)
	return &view, nil
}

// Submit scores a session on manual request. Submitting a session that has
// already been recorded returns its stored result.
func (m *SessionManager) Submit(ctx context.Context, id, owner string) (*Result, error) {
	ls, err := m.live(id, owner)
	if err != nil {
		if res, rerr := m.Result(ctx, id, owner); rerr == nil {
			return res, nil
		}
		return nil, err
	}

	out, err := ls.session.Submit(m.now(), false)
	if errors.Is(err, ErrSessionClosed) {
		// the countdown is finishing it; wait for the loop to exit
		ls.countdown.Stop()
		if res, rerr := m.Result(ctx, id, owner); rerr == nil {
			return res, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	ls.countdown.Stop()
	return m.finish(ctx, ls, out), nil
}

// finish records the outcome, retains the result and notifies subscribers.
// It runs exactly once per session, after a successful Session.Submit.
func (m *SessionManager) finish(ctx context.Context, ls *liveSession, out *Outcome) *Result {
	s := ls.session

	previous, err := m.scores.Load(ctx, s.Owner())
	if err != nil {
		slog.Warn("failed to load score history", "owner", s.Owner(), "error", err)
	}

	res := buildResult(s.ID(), out, previous)

	if err := m.scores.Append(ctx, s.Owner(), out.Entry); err != nil {
		res.PersistError = err.Error()
		slog.Error("failed to record score entry",
			"error", err,
			"id", s.ID(),
			"owner", s.Owner(),
		)
	}

	s.terminate()

	m.mu.Lock()
	delete(m.sessions, s.ID())
	m.results[s.ID()] = &storedResult{
		owner:     s.Owner(),
		result:    res,
		expiresAt: m.now().Add(m.cfg.ResultTTL),
	}
	m.mu.Unlock()

	ls.finish(Event{Type: EventSubmitted, Result: res})

	slog.Info("assessment submitted",
		"id", s.ID(),
		"owner", s.Owner(),
		"score", res.Entry.Score,
		"total", res.Entry.Total,
		"forced", res.Forced,
	)
	return res
}

// Discard tears down a live session without recording it
func (m *SessionManager) Discard(ctx context.Context, id, owner string) error {
	ls, err := m.live(id, owner)
	if err != nil {
		return err
	}
	return m.discard(ls)
}

func (m *SessionManager) discard(ls *liveSession) error {
	if !ls.session.Discard() {
		return ErrSessionClosed
	}

	m.mu.Lock()
	delete(m.sessions, ls.session.ID())
	m.mu.Unlock()

	ls.countdown.Stop()
	ls.finish(Event{Type: EventClosed})

	slog.Info("assessment discarded", "id", ls.session.ID(), "owner", ls.session.Owner())
	return nil
}

// Result returns the retained result of a finished session
func (m *SessionManager) Result(ctx context.Context, id, owner string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.results[id]
	if !ok || stored.owner != owner || !m.now().Before(stored.expiresAt) {
		return nil, ErrResultNotFound
	}
	return stored.result, nil
}

// Subscribe streams tick and lifecycle events of a live session. The channel
// is closed after the final event or when cancel is called.
func (m *SessionManager) Subscribe(ctx context.Context, id, owner string) (<-chan Event, func(), error) {
	ls, err := m.live(id, owner)
	if err != nil {
		return nil, nil, err
	}

	ls.subMu.Lock()
	defer ls.subMu.Unlock()

	if ls.finished {
		return nil, nil, ErrSessionClosed
	}

	ch := make(chan Event, 8)
	key := ls.nextSub
	ls.nextSub++
	ls.subs[key] = ch

	cancel := func() {
		ls.subMu.Lock()
		defer ls.subMu.Unlock()
		if c, ok := ls.subs[key]; ok {
			delete(ls.subs, key)
			close(c)
		}
	}
	return ch, cancel, nil
}

// Sweep discards sessions that outlived their budget plus the idle grace
// period and evicts expired results.
func (m *SessionManager) Sweep(ctx context.Context) (discarded, evicted int) {
	now := m.now()

	var stale []*liveSession
	m.mu.Lock()
	for _, ls := range m.sessions {
		limit := time.Duration(m.budget(ls.session.Difficulty()))*time.Second + m.cfg.IdleGrace
		if now.Sub(ls.session.StartedAt()) > limit {
			stale = append(stale, ls)
		}
	}
	for id, stored := range m.results {
		if !now.Before(stored.expiresAt) {
			delete(m.results, id)
			evicted++
		}
	}
	m.mu.Unlock()

	for _, ls := range stale {
		if err := m.discard(ls); err == nil {
			discarded++
		}
	}
	return discarded, evicted
}

// Active returns the number of live sessions
func (m *SessionManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops every countdown. Live sessions are discarded.
func (m *SessionManager) Close() error {
	m.mu.Lock()
	m.closed = true
	live := make([]*liveSession, 0, len(m.sessions))
	for _, ls := range m.sessions {
		live = append(live, ls)
	}
	m.mu.Unlock()

	for _, ls := range live {
		if err := m.discard(ls); err != nil {
			// submitting on the countdown goroutine; let it finish
			ls.countdown.Stop()
		}
	}

	slog.Info("assessment manager closed", "discarded", len(live))
	return nil
}

func (m *SessionManager) live(id, owner string) (*liveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ls, ok := m.sessions[id]
	if !ok || ls.session.Owner() != owner {
		return nil, ErrSessionNotFound
	}
	return ls, nil
}

// publish delivers an event to every subscriber without blocking.
// Slow subscribers miss ticks.
func (ls *liveSession) publish(ev Event) {
	ls.subMu.Lock()
	defer ls.subMu.Unlock()

	for _, ch := range ls.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// finish delivers the final event and closes every subscriber
func (ls *liveSession) finish(ev Event) {
	ls.subMu.Lock()
	defer ls.subMu.Unlock()

	if ls.finished {
		return
	}
	ls.finished = true

	for key, ch := range ls.subs {
		select {
		case ch <- ev:
		default:
			// make room by dropping the oldest tick
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
		close(ch)
		delete(ls.subs, key)
	}
}

var _ Manager = (*SessionManager)(nil)

