package history

import (
	"context"
	"sync"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

// MemoryStore is an in-process Store, used in tests and single-node demos
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	appends int

	// AppendErr, when set, fails every non-empty Append
	AppendErr error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load returns the identity's entries, oldest first
func (s *MemoryStore) Load(_ context.Context, identityID string) ([]models.ScoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decode(identityID, s.data[Key(identityID)]), nil
}

// Append adds entries to the identity's history under one lock
func (s *MemoryStore) Append(_ context.Context, identityID string, entries ...models.ScoreEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.AppendErr != nil {
		return s.AppendErr
	}

	key := Key(identityID)
	data, err := encode(append(decode(identityID, s.data[key]), entries...))
	if err != nil {
		return err
	}
	s.data[key] = data
	s.appends += len(entries)
	return nil
}

// Put overwrites the raw stored value of an identity's history
func (s *MemoryStore) Put(identityID string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[Key(identityID)] = raw
}

// Appends returns the number of entries appended so far
func (s *MemoryStore) Appends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appends
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
