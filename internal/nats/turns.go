package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/farmchain/assistant-platform/internal/model"
	"github.com/farmchain/assistant-platform/internal/store"
)

const (
	// StreamName is the name of the conversation turns stream.
	StreamName = "CHAT_TURNS"

	// SubjectPrefix is the prefix for all turn subjects.
	SubjectPrefix = "chat.turn"

	fetchBatchSize = 100
)

// TurnStore is a JetStream-backed store.TurnStore. Each turn is one message
// on subject chat.turn.<user>.<session>; the stream's MaxAge enforces the
// retention period and per-user purge implements bulk clear.
type TurnStore struct {
	client *Client
}

// NewTurnStore creates a turn store on top of a connected client.
func NewTurnStore(client *Client) *TurnStore {
	return &TurnStore{client: client}
}

// EnsureStream ensures the turns stream exists with proper configuration.
func (s *TurnStore) EnsureStream(ctx context.Context) error {
	js := s.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      store.RetentionPeriod,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Assistant conversation turns",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// turnSubject returns the subject for a turn.
func turnSubject(userID, sessionID string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, subjectToken(userID), subjectToken(sessionID))
}

// userFilter returns the filter subject matching all of a user's turns.
func userFilter(userID string) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, subjectToken(userID))
}

// subjectToken makes an identifier safe for use as a NATS subject token.
func subjectToken(id string) string {
	r := strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")
	return r.Replace(id)
}

// CreateTurn publishes a turn to the stream.
func (s *TurnStore) CreateTurn(ctx context.Context, turn *model.ConversationTurn) (*model.ConversationTurn, error) {
	stored := *turn
	if stored.ID == "" {
		stored.ID = uuid.Must(uuid.NewV7()).String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	if stored.Category == "" {
		stored.Category = model.CategoryGeneral
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal turn: %w", err)
	}

	subject := turnSubject(stored.UserID, stored.SessionID)
	if _, err := s.client.JetStream().Publish(ctx, subject, data); err != nil {
		return nil, fmt.Errorf("failed to publish turn: %w", err)
	}

	return &stored, nil
}

// FindRecentTurns returns up to limit turns for the session, newest first.
func (s *TurnStore) FindRecentTurns(ctx context.Context, userID, sessionID string, limit int) ([]model.ConversationTurn, error) {
	turns, err := s.fetchAll(ctx, turnSubject(userID, sessionID))
	if err != nil {
		return nil, err
	}

	// Stream order is chronological; keep the tail and reverse.
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	reverse(turns)
	return turns, nil
}

// FindTurnsPaged returns one page of the user's turns, newest first.
func (s *TurnStore) FindTurnsPaged(ctx context.Context, userID string, page, limit int) ([]model.ConversationTurn, int, error) {
	turns, err := s.fetchAll(ctx, userFilter(userID))
	if err != nil {
		return nil, 0, err
	}
	reverse(turns)

	total := len(turns)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return turns[start:end], total, nil
}

// CountTurns returns the number of stored turns for the user.
func (s *TurnStore) CountTurns(ctx context.Context, userID string) (int, error) {
	stream, err := s.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return 0, fmt.Errorf("failed to get stream: %w", err)
	}

	info, err := stream.Info(ctx, jetstream.WithSubjectFilter(userFilter(userID)))
	if err != nil {
		return 0, fmt.Errorf("failed to get stream info: %w", err)
	}

	count := 0
	for _, n := range info.State.Subjects {
		count += int(n)
	}
	return count, nil
}

// DeleteAllTurns purges every turn for the user.
func (s *TurnStore) DeleteAllTurns(ctx context.Context, userID string) (int, error) {
	count, err := s.CountTurns(ctx, userID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	stream, err := s.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return 0, fmt.Errorf("failed to get stream: %w", err)
	}

	if err := stream.Purge(ctx, jetstream.WithPurgeSubject(userFilter(userID))); err != nil {
		return 0, fmt.Errorf("failed to purge turns: %w", err)
	}

	return count, nil
}

// fetchAll reads every turn on the filter subject in stream order using an
// ephemeral consumer.
func (s *TurnStore) fetchAll(ctx context.Context, filterSubject string) ([]model.ConversationTurn, error) {
	js := s.client.JetStream()

	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	var turns []model.ConversationTurn
	for {
		batch, err := consumer.Fetch(fetchBatchSize, jetstream.FetchMaxWait(2*time.Second))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch turns: %w", err)
		}

		received := 0
		for msg := range batch.Messages() {
			received++
			var turn model.ConversationTurn
			if err := json.Unmarshal(msg.Data(), &turn); err != nil {
				continue
			}
			turns = append(turns, turn)
		}

		if batch.Error() != nil && batch.Error() != context.DeadlineExceeded {
			return nil, fmt.Errorf("batch error: %w", batch.Error())
		}

		if received < fetchBatchSize {
			break
		}
	}

	return turns, nil
}

func reverse(turns []model.ConversationTurn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}
