package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/aptitude-engine/internal/auth"
	"github.com/terra-clan/aptitude-engine/internal/history"
	"github.com/terra-clan/aptitude-engine/internal/models"
	"github.com/terra-clan/aptitude-engine/internal/scoring"
)

// MaxImport caps how many entries one import call may carry
const MaxImport = 1000

// ErrInvalidEntry is returned for a score entry that could not have come from an assessment
var ErrInvalidEntry = errors.New("invalid score entry")

// Service funnels every state transition through the backing stores.
// A failed operation returns the input state unchanged.
type Service struct {
	auth     auth.AuthStore
	profiles auth.ProfileStore
	scores   history.Store
}

// NewService creates a new application service
func NewService(authStore auth.AuthStore, profiles auth.ProfileStore, scores history.Store) *Service {
	return &Service{
		auth:     authStore,
		profiles: profiles,
		scores:   scores,
	}
}

// Login signs in with a credential and loads the identity's history
func (s *Service) Login(ctx context.Context, st State, req models.SignInRequest) (State, *auth.Session, error) {
	session, err := s.auth.SignIn(ctx, req)
	if err != nil {
		return st, nil, err
	}
	return s.enter(ctx, st, session)
}

// SignUp creates an identity and signs it in
func (s *Service) SignUp(ctx context.Context, st State, req models.SignUpRequest) (State, *auth.Session, error) {
	session, err := s.auth.SignUp(ctx, req)
	if err != nil {
		return st, nil, err
	}
	return s.enter(ctx, st, session)
}

// VerifyPhoneCode signs in with a one-time phone code
func (s *Service) VerifyPhoneCode(ctx context.Context, st State, req models.VerifyPhoneCodeRequest) (State, *auth.Session, error) {
	session, err := s.auth.VerifyPhoneCode(ctx, req)
	if err != nil {
		return st, nil, err
	}
	return s.enter(ctx, st, session)
}

// SendPhoneCode starts the phone sign-in flow
func (s *Service) SendPhoneCode(ctx context.Context, phone string) error {
	return s.auth.SendPhoneCode(ctx, phone)
}

// Restore rebuilds the state behind a live token
func (s *Service) Restore(ctx context.Context, token string) (State, *auth.Session, error) {
	session, err := s.auth.Session(ctx, token)
	if err != nil {
		return State{}, nil, err
	}
	return s.enter(ctx, State{}, session)
}

// Load builds the state of an already authenticated identity
func (s *Service) Load(ctx context.Context, identityID string) (State, error) {
	profile, err := s.profiles.GetProfile(ctx, identityID)
	if err != nil && !errors.Is(err, auth.ErrProfileNotFound) {
		return State{}, err
	}
	scores, err := s.scores.Load(ctx, identityID)
	if err != nil {
		return State{}, fmt.Errorf("failed to load score history: %w", err)
	}
	return State{}.Login(identityID, nil, profile, scores), nil
}

// Logout revokes the token and returns the signed-out state
func (s *Service) Logout(ctx context.Context, st State, token string) (State, error) {
	if err := s.auth.SignOut(ctx, token); err != nil {
		return st, err
	}
	return st.Logout(), nil
}

// UpdateProfile applies a partial profile edit
func (s *Service) UpdateProfile(ctx context.Context, st State, u models.ProfileUpdate) (State, error) {
	if !st.SignedIn() {
		return st, auth.ErrUnauthorized
	}
	p, err := s.profiles.UpdateProfile(ctx, st.IdentityID(), u)
	if err != nil {
		return st, err
	}
	return st.UpdateProfile(p), nil
}

// AddScore appends an entry to the persisted history
func (s *Service) AddScore(ctx context.Context, st State, entry models.ScoreEntry) (State, error) {
	if !st.SignedIn() {
		return st, auth.ErrUnauthorized
	}
	if err := ValidateEntry(entry); err != nil {
		return st, err
	}
	if err := s.scores.Append(ctx, st.IdentityID(), entry); err != nil {
		return st, fmt.Errorf("failed to append score: %w", err)
	}
	return st.AddScore(entry), nil
}

// ImportScores appends entries recorded elsewhere, such as a browser's local history.
// The batch is validated up front and written in one append, so either every
// entry is recorded or none is.
func (s *Service) ImportScores(ctx context.Context, st State, entries []models.ScoreEntry) (State, int, error) {
	if !st.SignedIn() {
		return st, 0, auth.ErrUnauthorized
	}
	if len(entries) > MaxImport {
		return st, 0, fmt.Errorf("%w: at most %d entries per import", ErrInvalidEntry, MaxImport)
	}
	batch := make([]models.ScoreEntry, len(entries))
	for i, e := range entries {
		if err := ValidateEntry(e); err != nil {
			return st, 0, fmt.Errorf("entry %d: %w", i, err)
		}
		if e.PerformanceRating == "" {
			e.PerformanceRating = scoring.Rating(scoring.Percentage(e.Score, e.Total))
		}
		batch[i] = e
	}

	if err := s.scores.Append(ctx, st.IdentityID(), batch...); err != nil {
		return st, 0, fmt.Errorf("failed to import scores: %w", err)
	}

	next := st
	for _, e := range batch {
		next = next.AddScore(e)
	}

	slog.Info("score history imported", "identity_id", st.IdentityID(), "entries", len(batch))
	return next, len(batch), nil
}

// ValidateEntry checks the bounds every recorded entry satisfies
func ValidateEntry(e models.ScoreEntry) error {
	switch {
	case e.Topic == "":
		return fmt.Errorf("%w: topic is required", ErrInvalidEntry)
	case !e.Difficulty.IsValid():
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidEntry, e.Difficulty)
	case e.Total <= 0:
		return fmt.Errorf("%w: total must be positive", ErrInvalidEntry)
	case e.Score < 0 || e.Score > e.Total:
		return fmt.Errorf("%w: score must be between 0 and total", ErrInvalidEntry)
	case e.TimeTaken != nil && *e.TimeTaken < 0:
		return fmt.Errorf("%w: time taken must not be negative", ErrInvalidEntry)
	case e.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidEntry)
	}
	return nil
}

func (s *Service) enter(ctx context.Context, st State, session *auth.Session) (State, *auth.Session, error) {
	scores, err := s.scores.Load(ctx, session.Identity.ID)
	if err != nil {
		return st, nil, fmt.Errorf("failed to load score history: %w", err)
	}
	return st.Login(session.Identity.ID, session.Identity, session.Profile, scores), session, nil
}
