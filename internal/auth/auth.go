// Package auth implements identities, session tokens, phone one-time codes
// and the profile store on top of storage.Repository.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIdentityExists     = errors.New("identity already exists")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileExists      = errors.New("profile already exists")
)

// Session is a signed-in identity together with its bearer token
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Identity  *models.Identity `json:"identity"`
	Profile   *models.Profile  `json:"profile"`
}

// AuthStore covers sign-up, sign-in and token lifecycle
type AuthStore interface {
	SignUp(ctx context.Context, req models.SignUpRequest) (*Session, error)
	SignIn(ctx context.Context, req models.SignInRequest) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (*Session, error)
	SendPhoneCode(ctx context.Context, phone string) error
	VerifyPhoneCode(ctx context.Context, req models.VerifyPhoneCodeRequest) (*Session, error)
}

// ProfileStore covers profile reads and edits
type ProfileStore interface {
	GetProfile(ctx context.Context, identityID string) (*models.Profile, error)
	InsertProfile(ctx context.Context, p *models.Profile) error
	UpdateProfile(ctx context.Context, identityID string, u models.ProfileUpdate) (*models.Profile, error)
}

// Verifier resolves a bearer token to the identity id it was issued for
type Verifier interface {
	Authenticate(ctx context.Context, token string) (string, error)
}
