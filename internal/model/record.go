package model

import (
	"time"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
)

// MatchRecord is what stores keep for a match: the seats and a replayable game record.
type MatchRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Players     Seats           `json:"players"`
	AdvisorSeat *checkers.Color `json:"advisorSeat,omitempty"`
	Game        checkers.Record `json:"game"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
