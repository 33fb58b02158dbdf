package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the underlying pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Identities ---

// CreateIdentity inserts a new identity
func (r *PostgresRepository) CreateIdentity(ctx context.Context, identity *models.Identity) error {
	query := `
		INSERT INTO identities (id, email, phone, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		identity.ID,
		nullString(identity.Email),
		nullString(identity.Phone),
		identity.Name,
		nullString(identity.PasswordHash),
		identity.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create identity: %w", err)
	}

	return nil
}

// GetIdentityByID retrieves an identity by ID
func (r *PostgresRepository) GetIdentityByID(ctx context.Context, id string) (*models.Identity, error) {
	return r.getIdentity(ctx, "id", id)
}

// GetIdentityByEmail retrieves an identity by email
func (r *PostgresRepository) GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	return r.getIdentity(ctx, "email", email)
}

// GetIdentityByPhone retrieves an identity by phone number
func (r *PostgresRepository) GetIdentityByPhone(ctx context.Context, phone string) (*models.Identity, error) {
	return r.getIdentity(ctx, "phone", phone)
}

func (r *PostgresRepository) getIdentity(ctx context.Context, field, value string) (*models.Identity, error) {
	// field is one of the fixed column names above
	query := `
		SELECT id, email, phone, name, password_hash, created_at
		FROM identities
		WHERE ` + field + ` = $1
	`

	var identity models.Identity
	var email, phone, passwordHash sql.NullString

	err := r.pool.QueryRow(ctx, query, value).Scan(
		&identity.ID,
		&email,
		&phone,
		&identity.Name,
		&passwordHash,
		&identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	identity.Email = email.String
	identity.Phone = phone.String
	identity.PasswordHash = passwordHash.String

	return &identity, nil
}

// --- Profiles ---

// CreateProfile inserts the profile of an identity
func (r *PostgresRepository) CreateProfile(ctx context.Context, p *models.Profile) error {
	lists, err := marshalProfileLists(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO profiles (identity_id, name, email, phone, education, skills, experience, photo_url,
			hsc_percentage, sslc_percentage, certifications, projects, achievements, academic_achievements,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = r.pool.Exec(ctx, query,
		p.IdentityID,
		p.Name,
		p.Email,
		p.Phone,
		p.Education,
		lists[0],
		lists[1],
		nullString(p.PhotoURL),
		nullString(p.HSCPercentage),
		nullString(p.SSLCPercentage),
		lists[2],
		lists[3],
		lists[4],
		lists[5],
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetProfile retrieves the profile of an identity
func (r *PostgresRepository) GetProfile(ctx context.Context, identityID string) (*models.Profile, error) {
	query := `
		SELECT identity_id, name, email, phone, education, skills, experience, photo_url,
			hsc_percentage, sslc_percentage, certifications, projects, achievements, academic_achievements,
			created_at, updated_at
		FROM profiles
		WHERE identity_id = $1
	`

	var p models.Profile
	var photoURL, hsc, sslc sql.NullString
	var skills, experience, certifications, projects, achievements, academic []byte

	err := r.pool.QueryRow(ctx, query, identityID).Scan(
		&p.IdentityID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Education,
		&skills,
		&experience,
		&photoURL,
		&hsc,
		&sslc,
		&certifications,
		&projects,
		&achievements,
		&academic,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.PhotoURL = photoURL.String
	p.HSCPercentage = hsc.String
	p.SSLCPercentage = sslc.String

	targets := []struct {
		raw []byte
		dst any
	}{
		{skills, &p.Skills},
		{experience, &p.Experience},
		{certifications, &p.Certifications},
		{projects, &p.Projects},
		{achievements, &p.Achievements},
		{academic, &p.AcademicAchievements},
	}
	for _, t := range targets {
		if t.raw == nil {
			continue
		}
		if err := json.Unmarshal(t.raw, t.dst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile lists: %w", err)
		}
	}

	return &p, nil
}

// UpdateProfile overwrites every editable column of a profile
func (r *PostgresRepository) UpdateProfile(ctx context.Context, p *models.Profile) error {
	lists, err := marshalProfileLists(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE profiles
		SET name = $2, phone = $3, education = $4, skills = $5, experience = $6, photo_url = $7,
			hsc_percentage = $8, sslc_percentage = $9, certifications = $10, projects = $11,
			achievements = $12, academic_achievements = $13, updated_at = $14
		WHERE identity_id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		p.IdentityID,
		p.Name,
		p.Phone,
		p.Education,
		lists[0],
		lists[1],
		nullString(p.PhotoURL),
		nullString(p.HSCPercentage),
		nullString(p.SSLCPercentage),
		lists[2],
		lists[3],
		lists[4],
		lists[5],
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// marshalProfileLists encodes the JSONB columns in column order:
// skills, experience, certifications, projects, achievements, academic_achievements
func marshalProfileLists(p *models.Profile) ([6][]byte, error) {
	var out [6][]byte
	values := []any{
		nonNil(p.Skills),
		nonNil(p.Experience),
		nonNil(p.Certifications),
		p.Projects,
		nonNil(p.Achievements),
		nonNil(p.AcademicAchievements),
	}
	if p.Projects == nil {
		values[3] = []models.Project{}
	}
	for i, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("failed to marshal profile lists: %w", err)
		}
		out[i] = data
	}
	return out, nil
}

// --- Revoked tokens ---

// RevokeToken records a token id as revoked until expiresAt
func (r *PostgresRepository) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	query := `
		INSERT INTO revoked_tokens (token_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, tokenID, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsTokenRevoked checks whether a token id was revoked
func (r *PostgresRepository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`, tokenID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists, nil
}

// DeleteExpiredRevocations removes revocations of tokens that have expired
func (r *PostgresRepository) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired revocations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Phone codes ---

// SavePhoneCode stores the pending code for a phone, replacing any earlier one
func (r *PostgresRepository) SavePhoneCode(ctx context.Context, code *models.PhoneCode) error {
	query := `
		INSERT INTO phone_codes (phone, code_hash, attempts, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (phone) DO UPDATE
		SET code_hash = EXCLUDED.code_hash, attempts = EXCLUDED.attempts, expires_at = EXCLUDED.expires_at
	`

	if _, err := r.pool.Exec(ctx, query, code.Phone, code.CodeHash, code.Attempts, code.ExpiresAt); err != nil {
		return fmt.Errorf("failed to save phone code: %w", err)
	}

	return nil
}

// GetPhoneCode retrieves the pending code for a phone
func (r *PostgresRepository) GetPhoneCode(ctx context.Context, phone string) (*models.PhoneCode, error) {
	var code models.PhoneCode
	err := r.pool.QueryRow(ctx,
		`SELECT phone, code_hash, attempts, expires_at FROM phone_codes WHERE phone = $1`, phone,
	).Scan(&code.Phone, &code.CodeHash, &code.Attempts, &code.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get phone code: %w", err)
	}
	return &code, nil
}

// DeletePhoneCode removes the pending code for a phone
func (r *PostgresRepository) DeletePhoneCode(ctx context.Context, phone string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM phone_codes WHERE phone = $1`, phone); err != nil {
		return fmt.Errorf("failed to delete phone code: %w", err)
	}
	return nil
}

// DeleteExpiredPhoneCodes removes codes that can no longer be used
func (r *PostgresRepository) DeleteExpiredPhoneCodes(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM phone_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired phone codes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Helper functions for nullable values

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PostgresRepository)(nil)
