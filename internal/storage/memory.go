package storage

import (
	"context"
	"sync"
	"time"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

// MemoryRepository is an in-process Repository for tests and local runs.
// Stored values are copied on the way in and out.
type MemoryRepository struct {
	mu         sync.RWMutex
	identities map[string]models.Identity
	byEmail    map[string]string
	byPhone    map[string]string
	profiles   map[string]models.Profile
	revoked    map[string]time.Time
	codes      map[string]models.PhoneCode
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		identities: make(map[string]models.Identity),
		byEmail:    make(map[string]string),
		byPhone:    make(map[string]string),
		profiles:   make(map[string]models.Profile),
		revoked:    make(map[string]time.Time),
		codes:      make(map[string]models.PhoneCode),
	}
}

// CreateIdentity inserts a new identity
func (r *MemoryRepository) CreateIdentity(_ context.Context, identity *models.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.identities[identity.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := r.byEmail[identity.Email]; ok && identity.Email != "" {
		return ErrDuplicate
	}
	if _, ok := r.byPhone[identity.Phone]; ok && identity.Phone != "" {
		return ErrDuplicate
	}

	r.identities[identity.ID] = *identity
	if identity.Email != "" {
		r.byEmail[identity.Email] = identity.ID
	}
	if identity.Phone != "" {
		r.byPhone[identity.Phone] = identity.ID
	}
	return nil
}

// GetIdentityByID retrieves an identity by ID
func (r *MemoryRepository) GetIdentityByID(_ context.Context, id string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.identity(id), nil
}

// GetIdentityByEmail retrieves an identity by email
func (r *MemoryRepository) GetIdentityByEmail(_ context.Context, email string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.identity(r.byEmail[email]), nil
}

// GetIdentityByPhone retrieves an identity by phone number
func (r *MemoryRepository) GetIdentityByPhone(_ context.Context, phone string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.identity(r.byPhone[phone]), nil
}

func (r *MemoryRepository) identity(id string) *models.Identity {
	identity, ok := r.identities[id]
	if !ok {
		return nil
	}
	return &identity
}

// CreateProfile inserts the profile of an identity
func (r *MemoryRepository) CreateProfile(_ context.Context, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[p.IdentityID]; ok {
		return ErrDuplicate
	}
	r.profiles[p.IdentityID] = copyProfile(*p)
	return nil
}

// GetProfile retrieves the profile of an identity
func (r *MemoryRepository) GetProfile(_ context.Context, identityID string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[identityID]
	if !ok {
		return nil, nil
	}
	cp := copyProfile(p)
	return &cp, nil
}

// UpdateProfile overwrites a stored profile
func (r *MemoryRepository) UpdateProfile(_ context.Context, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.profiles[p.IdentityID]
	if !ok {
		return ErrNotFound
	}
	updated := copyProfile(*p)
	updated.Email = old.Email
	updated.CreatedAt = old.CreatedAt
	r.profiles[p.IdentityID] = updated
	return nil
}

// RevokeToken records a token id as revoked until expiresAt
func (r *MemoryRepository) RevokeToken(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.revoked[tokenID]; !ok {
		r.revoked[tokenID] = expiresAt
	}
	return nil
}

// IsTokenRevoked checks whether a token id was revoked
func (r *MemoryRepository) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.revoked[tokenID]
	return ok, nil
}

// DeleteExpiredRevocations removes revocations of tokens that have expired
func (r *MemoryRepository) DeleteExpiredRevocations(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, id)
			n++
		}
	}
	return n, nil
}

// SavePhoneCode stores the pending code for a phone, replacing any earlier one
func (r *MemoryRepository) SavePhoneCode(_ context.Context, code *models.PhoneCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[code.Phone] = *code
	return nil
}

// GetPhoneCode retrieves the pending code for a phone
func (r *MemoryRepository) GetPhoneCode(_ context.Context, phone string) (*models.PhoneCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.codes[phone]
	if !ok {
		return nil, nil
	}
	return &code, nil
}

// DeletePhoneCode removes the pending code for a phone
func (r *MemoryRepository) DeletePhoneCode(_ context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, phone)
	return nil
}

// DeleteExpiredPhoneCodes removes codes that can no longer be used
func (r *MemoryRepository) DeleteExpiredPhoneCodes(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for phone, code := range r.codes {
		if code.IsExpired(now) {
			delete(r.codes, phone)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds
func (r *MemoryRepository) Ping(context.Context) error { return nil }

// Close is a no-op
func (r *MemoryRepository) Close() error { return nil }

func copyProfile(p models.Profile) models.Profile {
	p.Skills = cloneList(p.Skills)
	p.Experience = cloneList(p.Experience)
	p.Certifications = cloneList(p.Certifications)
	p.Achievements = cloneList(p.Achievements)
	p.AcademicAchievements = cloneList(p.AcademicAchievements)
	if p.Projects != nil {
		p.Projects = append(make([]models.Project, 0, len(p.Projects)), p.Projects...)
	}
	return p
}

func cloneList(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

var _ Repository = (*MemoryRepository)(nil)
