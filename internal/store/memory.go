package store

import (
	"context"
	"sort"
	"sync"

	"github.com/benbeisheim/checkers-backend/internal/model"
)

// memory keeps records for the life of the process.
type memory struct {
	mu      sync.RWMutex
	records map[string]model.MatchRecord
}

func NewMemoryStore() Store {
	return &memory{records: make(map[string]model.MatchRecord)}
}

func (m *memory) Save(_ context.Context, rec model.MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *memory) Get(_ context.Context, id string) (model.MatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.records[id]; ok {
		return rec, nil
	}
	return model.MatchRecord{}, ErrNotFound
}

func (m *memory) ListByPlayer(_ context.Context, playerID string, limit int) ([]model.MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.MatchRecord
	for _, rec := range m.records {
		if rec.Players.Light.ID == playerID || rec.Players.Dark.ID == playerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) Close() error { return nil }
