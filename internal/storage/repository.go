package storage

import (
	"context"
	"errors"
	"time"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

// Errors
var (
	// ErrDuplicate is returned when a unique column (email, phone, profile owner) is taken
	ErrDuplicate = errors.New("record already exists")
	// ErrNotFound is returned by updates that match no row
	ErrNotFound = errors.New("record not found")
)

// Repository defines the interface for identity and profile persistence.
// Lookups return nil, nil when nothing matches.
type Repository interface {
	// Identities
	CreateIdentity(ctx context.Context, identity *models.Identity) error
	GetIdentityByID(ctx context.Context, id string) (*models.Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error)
	GetIdentityByPhone(ctx context.Context, phone string) (*models.Identity, error)

	// Profiles
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, identityID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error

	// Revoked tokens
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)

	// Phone codes
	SavePhoneCode(ctx context.Context, code *models.PhoneCode) error
	GetPhoneCode(ctx context.Context, phone string) (*models.PhoneCode, error)
	DeletePhoneCode(ctx context.Context, phone string) error
	DeleteExpiredPhoneCodes(ctx context.Context, now time.Time) (int64, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
