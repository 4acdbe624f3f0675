// Package store persists matches so they survive a restart. Matches are kept as replayable
// records, never as live engine state.
package store

import (
	"context"
	"errors"

	"github.com/benbeisheim/checkers-backend/internal/model"
)

var ErrNotFound = errors.New("match not found")

// Store defines the persistence interface for matches.
type Store interface {
	// Save persists or replaces a match record.
	Save(ctx context.Context, rec model.MatchRecord) error

	// Get retrieves a match record by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (model.MatchRecord, error)

	// ListByPlayer returns the most recently updated matches where playerID holds a seat.
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]model.MatchRecord, error)

	Close() error
}
