package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

// RedisStore keeps histories as JSON strings in Redis
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store over an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load returns the identity's entries, oldest first
func (s *RedisStore) Load(ctx context.Context, identityID string) ([]models.ScoreEntry, error) {
	raw, err := s.client.Get(ctx, Key(identityID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.ScoreEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load score history: %w", err)
	}
	return decode(identityID, raw), nil
}

// appendScript splices a JSON array body onto the stored array in one
// server-side step. A value that is not a non-empty JSON array is read as
// an empty history and replaced.
var appendScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur and string.len(cur) > 2 and string.sub(cur, 1, 1) == '[' and string.sub(cur, -1) == ']' then
	redis.call('SET', KEYS[1], string.sub(cur, 1, -2) .. ',' .. ARGV[1] .. ']')
else
	redis.call('SET', KEYS[1], '[' .. ARGV[1] .. ']')
end
return 1
`)

// Append adds entries atomically. Concurrent appends to the same history
// are serialized by Redis and none is lost.
func (s *RedisStore) Append(ctx context.Context, identityID string, entries ...models.ScoreEntry) error {
	if len(entries) == 0 {
		return nil
	}

	data, err := encode(entries)
	if err != nil {
		return fmt.Errorf("failed to encode score entries: %w", err)
	}
	// strip the brackets; the script adds them back around the merged list
	body := string(data[1 : len(data)-1])

	if err := appendScript.Run(ctx, s.client, []string{Key(identityID)}, body).Err(); err != nil {
		return fmt.Errorf("failed to append score entries: %w", err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller
func (s *RedisStore) Close() error {
	return nil
}
