package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/farmchain/assistant-platform/internal/model"
)

// MemoryStore is an in-memory TurnStore for development and tests. Expired
// turns are pruned lazily on access.
type MemoryStore struct {
	mu    sync.RWMutex
	turns []model.ConversationTurn

	// now is swappable in tests.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// CreateTurn persists a new turn.
func (s *MemoryStore) CreateTurn(ctx context.Context, turn *model.ConversationTurn) (*model.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *turn
	if stored.ID == "" {
		stored.ID = uuid.Must(uuid.NewV7()).String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	if stored.Category == "" {
		stored.Category = model.CategoryGeneral
	}

	s.turns = append(s.turns, stored)
	return &stored, nil
}

// FindRecentTurns returns up to limit turns for the session, newest first.
func (s *MemoryStore) FindRecentTurns(ctx context.Context, userID, sessionID string, limit int) ([]model.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()

	var out []model.ConversationTurn
	for i := len(s.turns) - 1; i >= 0 && len(out) < limit; i-- {
		t := s.turns[i]
		if t.UserID == userID && t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

// FindTurnsPaged returns one page of the user's turns, newest first.
func (s *MemoryStore) FindTurnsPaged(ctx context.Context, userID string, page, limit int) ([]model.ConversationTurn, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()

	var all []model.ConversationTurn
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].UserID == userID {
			all = append(all, s.turns[i])
		}
	}

	total := len(all)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return all[start:end], total, nil
}

// CountTurns returns the number of stored turns for the user.
func (s *MemoryStore) CountTurns(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()

	count := 0
	for _, t := range s.turns {
		if t.UserID == userID {
			count++
		}
	}
	return count, nil
}

// DeleteAllTurns removes every turn for the user.
func (s *MemoryStore) DeleteAllTurns(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()

	kept := s.turns[:0]
	deleted := 0
	for _, t := range s.turns {
		if t.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	s.turns = kept
	return deleted, nil
}

// prune drops turns older than the retention period. Caller holds the lock.
func (s *MemoryStore) prune() {
	cutoff := s.now().Add(-RetentionPeriod)
	kept := s.turns[:0]
	for _, t := range s.turns {
		if t.CreatedAt.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.turns = kept
}
