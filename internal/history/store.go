// Package history keeps the per-identity list of score entries as a JSON
// array in a key-value store.
package history

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

// Store reads and appends score entries for an identity
type Store interface {
	Load(ctx context.Context, identityID string) ([]models.ScoreEntry, error)

	// Append adds entries in order as one write: either all of them are
	// stored or none are. Appending nothing is a no-op.
	Append(ctx context.Context, identityID string, entries ...models.ScoreEntry) error

	Close() error
}

// Key returns the storage key of an identity's history
func Key(identityID string) string {
	return "scores:" + identityID
}

// decode parses a stored history. Unparsable data is logged and read as empty.
func decode(identityID string, raw []byte) []models.ScoreEntry {
	if len(raw) == 0 {
		return []models.ScoreEntry{}
	}
	var entries []models.ScoreEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		slog.Warn("discarding unreadable score history", "identity", identityID, "error", err)
		return []models.ScoreEntry{}
	}
	if entries == nil {
		entries = []models.ScoreEntry{}
	}
	return entries
}

func encode(entries []models.ScoreEntry) ([]byte, error) {
	return json.Marshal(entries)
}
