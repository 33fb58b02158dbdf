package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/terra-clan/aptitude-engine/internal/config"
	"github.com/terra-clan/aptitude-engine/internal/models"
	"github.com/terra-clan/aptitude-engine/internal/storage"
)

const (
	minNameLength     = 2
	minPasswordLength = 6
	maxPasswordBytes  = 72 // bcrypt input limit
)

// Service implements AuthStore, ProfileStore and Verifier over a Repository
type Service struct {
	repo       storage.Repository
	tokens     *TokenIssuer
	sender     CodeSender
	codeTTL    time.Duration
	bcryptCost int
	now        func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source for tokens and codes
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.tokens.now = now
	}
}

// NewService creates a new auth service
func NewService(repo storage.Repository, cfg config.AuthConfig, sender CodeSender, opts ...Option) *Service {
	if sender == nil {
		sender = NewLogSender(nil)
	}
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	s := &Service{
		repo:       repo,
		tokens:     NewTokenIssuer(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL),
		sender:     sender,
		codeTTL:    cfg.CodeTTL,
		bcryptCost: cost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp creates an identity with a password and signs it in
func (s *Service) SignUp(ctx context.Context, req models.SignUpRequest) (*Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Phone = normalizePhone(req.Phone)

	if err := validateSignUp(req); err != nil {
		return nil, err
	}

	if req.Email != "" {
		existing, err := s.repo.GetIdentityByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up email: %w", err)
		}
		if existing != nil {
			return nil, ErrIdentityExists
		}
	}
	if req.Phone != "" {
		existing, err := s.repo.GetIdentityByPhone(ctx, req.Phone)
		if err != nil {
			return nil, fmt.Errorf("failed to look up phone: %w", err)
		}
		if existing != nil {
			return nil, ErrIdentityExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	identity := &models.Identity{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Phone:        req.Phone,
		Name:         req.Name,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrIdentityExists
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	slog.Info("identity created", "identity_id", identity.ID, "email", identity.MaskedEmail())
	return s.signIn(ctx, identity)
}

// SignIn checks a password against the identity found by email or phone
func (s *Service) SignIn(ctx context.Context, req models.SignInRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	phone := normalizePhone(req.Phone)

	var (
		identity *models.Identity
		err      error
	)
	switch {
	case email != "":
		identity, err = s.repo.GetIdentityByEmail(ctx, email)
	case phone != "":
		identity, err = s.repo.GetIdentityByPhone(ctx, phone)
	default:
		return nil, fmt.Errorf("%w: email or phone is required", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}
	if identity == nil || identity.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.signIn(ctx, identity)
}

// SignOut revokes a token until it would have expired anyway
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	if err := s.repo.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	slog.Info("identity signed out", "identity_id", claims.Subject)
	return nil
}

// Authenticate implements Verifier
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := s.verify(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Session returns the identity and profile behind a live token
func (s *Service) Session(ctx context.Context, token string) (*Session, error) {
	claims, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	identity, err := s.repo.GetIdentityByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	if identity == nil {
		return nil, ErrUnauthorized
	}

	profile, err := s.ensureProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Identity:  identity,
		Profile:   profile,
	}, nil
}

// SendPhoneCode issues a fresh one-time code, replacing any pending one
func (s *Service) SendPhoneCode(ctx context.Context, phone string) error {
	phone = normalizePhone(phone)
	if !validPhone(phone) {
		return fmt.Errorf("%w: invalid phone number", ErrValidation)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	pending := &models.PhoneCode{
		Phone:     phone,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(s.codeTTL),
	}
	if err := s.repo.SavePhoneCode(ctx, pending); err != nil {
		return fmt.Errorf("failed to save code: %w", err)
	}

	if err := s.sender.SendCode(ctx, phone, code); err != nil {
		_ = s.repo.DeletePhoneCode(ctx, phone)
		return fmt.Errorf("failed to send code: %w", err)
	}
	return nil
}

// VerifyPhoneCode exchanges a code for a session, creating the phone identity on first use
func (s *Service) VerifyPhoneCode(ctx context.Context, req models.VerifyPhoneCodeRequest) (*Session, error) {
	phone := normalizePhone(req.Phone)
	code := strings.TrimSpace(req.Code)
	if !validPhone(phone) || code == "" {
		return nil, fmt.Errorf("%w: phone and code are required", ErrValidation)
	}

	pending, err := s.repo.GetPhoneCode(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get code: %w", err)
	}
	if pending == nil {
		return nil, ErrInvalidCode
	}
	if pending.IsExpired(s.now()) || pending.Attempts >= MaxCodeAttempts {
		_ = s.repo.DeletePhoneCode(ctx, phone)
		return nil, ErrInvalidCode
	}

	if err := bcrypt.CompareHashAndPassword([]byte(pending.CodeHash), []byte(code)); err != nil {
		pending.Attempts++
		if err := s.repo.SavePhoneCode(ctx, pending); err != nil {
			return nil, fmt.Errorf("failed to record attempt: %w", err)
		}
		return nil, ErrInvalidCode
	}

	identity, err := s.repo.GetIdentityByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to look up phone: %w", err)
	}
	if identity == nil {
		identity = &models.Identity{
			ID:        uuid.New().String(),
			Phone:     phone,
			Name:      phone,
			CreatedAt: s.now().UTC(),
		}
		if err := s.repo.CreateIdentity(ctx, identity); err != nil {
			return nil, fmt.Errorf("failed to create identity: %w", err)
		}
		slog.Info("identity created", "identity_id", identity.ID, "phone", maskPhone(phone))
	}

	session, err := s.signIn(ctx, identity)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeletePhoneCode(ctx, phone); err != nil {
		slog.Warn("failed to delete used phone code", "error", err)
	}
	return session, nil
}

// GetProfile implements ProfileStore
func (s *Service) GetProfile(ctx context.Context, identityID string) (*models.Profile, error) {
	p, err := s.repo.GetProfile(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// InsertProfile implements ProfileStore
func (s *Service) InsertProfile(ctx context.Context, p *models.Profile) error {
	if p.IdentityID == "" {
		return fmt.Errorf("%w: profile owner is required", ErrValidation)
	}
	now := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	fillLists(p)

	if err := s.repo.CreateProfile(ctx, p); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return ErrProfileExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// UpdateProfile applies a partial edit and returns the stored result
func (s *Service) UpdateProfile(ctx context.Context, identityID string, u models.ProfileUpdate) (*models.Profile, error) {
	if u.Name != nil && utf8.RuneCountInString(strings.TrimSpace(*u.Name)) < minNameLength {
		return nil, fmt.Errorf("%w: name must be at least %d characters", ErrValidation, minNameLength)
	}
	if u.Phone != nil {
		phone := normalizePhone(*u.Phone)
		if phone != "" && !validPhone(phone) {
			return nil, fmt.Errorf("%w: invalid phone number", ErrValidation)
		}
		u.Phone = &phone
	}

	current, err := s.GetProfile(ctx, identityID)
	if err != nil {
		return nil, err
	}

	updated := current.Apply(u)
	updated.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateProfile(ctx, &updated); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &updated, nil
}

func (s *Service) verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.repo.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func (s *Service) signIn(ctx context.Context, identity *models.Identity) (*Session, error) {
	profile, err := s.ensureProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	token, claims, err := s.tokens.Issue(identity.ID)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Identity:  identity,
		Profile:   profile,
	}, nil
}

// ensureProfile creates the profile from the identity the first time it is needed
func (s *Service) ensureProfile(ctx context.Context, identity *models.Identity) (*models.Profile, error) {
	p, err := s.repo.GetProfile(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if p != nil {
		return p, nil
	}

	p = &models.Profile{
		IdentityID: identity.ID,
		Name:       identity.Name,
		Email:      identity.Email,
		Phone:      identity.Phone,
	}
	if err := s.InsertProfile(ctx, p); err != nil {
		if !errors.Is(err, ErrProfileExists) {
			return nil, err
		}
		// lost a race with a concurrent sign-in
		return s.GetProfile(ctx, identity.ID)
	}
	return p, nil
}

func validateSignUp(req models.SignUpRequest) error {
	if utf8.RuneCountInString(req.Name) < minNameLength {
		return fmt.Errorf("%w: name must be at least %d characters", ErrValidation, minNameLength)
	}
	if req.Email == "" && req.Phone == "" {
		return fmt.Errorf("%w: email or phone is required", ErrValidation)
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return fmt.Errorf("%w: invalid email", ErrValidation)
		}
	}
	if req.Phone != "" && !validPhone(req.Phone) {
		return fmt.Errorf("%w: invalid phone number", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if len(req.Password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, maxPasswordBytes)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// validPhone accepts an optional leading + followed by 7 to 15 digits
func validPhone(phone string) bool {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func fillLists(p *models.Profile) {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []string{}
	}
}
