// Package store defines conversation turn persistence.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/farmchain/assistant-platform/internal/model"
)

// RetentionPeriod is how long a turn is kept before it expires.
const RetentionPeriod = 90 * 24 * time.Hour

// ErrNotFound is returned when a requested turn does not exist.
var ErrNotFound = errors.New("store: turn not found")

// TurnStore persists conversation turns. Implementations own their
// concurrency control and enforce the retention period.
type TurnStore interface {
	// CreateTurn persists a new turn and returns it with ID and
	// timestamp populated.
	CreateTurn(ctx context.Context, turn *model.ConversationTurn) (*model.ConversationTurn, error)

	// FindRecentTurns returns up to limit turns for the (user, session)
	// pair, newest first.
	FindRecentTurns(ctx context.Context, userID, sessionID string, limit int) ([]model.ConversationTurn, error)

	// FindTurnsPaged returns one page of a user's turns, newest first,
	// along with the total count. page is 1-based.
	FindTurnsPaged(ctx context.Context, userID string, page, limit int) ([]model.ConversationTurn, int, error)

	// CountTurns returns the number of stored turns for a user.
	CountTurns(ctx context.Context, userID string) (int, error)

	// DeleteAllTurns removes every turn for a user and returns how many
	// were deleted.
	DeleteAllTurns(ctx context.Context, userID string) (int, error)
}
