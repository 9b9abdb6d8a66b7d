package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmchain/assistant-platform/internal/assistant"
	"github.com/farmchain/assistant-platform/internal/model"
	"github.com/farmchain/assistant-platform/internal/store"
	"github.com/farmchain/assistant-platform/pkg/logger"
)

// fakeGenerator records the history it was handed and returns a canned
// reply or error.
type fakeGenerator struct {
	reply       string
	err         error
	lastMessage string
	lastHistory []model.HistoryEntry
}

func (g *fakeGenerator) Generate(ctx context.Context, message string, history []model.HistoryEntry) (string, error) {
	g.lastMessage = message
	g.lastHistory = history
	return g.reply, g.err
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) CreateTurn(ctx context.Context, turn *model.ConversationTurn) (*model.ConversationTurn, error) {
	return nil, errors.New("store down")
}

func (failingStore) FindRecentTurns(ctx context.Context, userID, sessionID string, limit int) ([]model.ConversationTurn, error) {
	return nil, errors.New("store down")
}

func (failingStore) FindTurnsPaged(ctx context.Context, userID string, page, limit int) ([]model.ConversationTurn, int, error) {
	return nil, 0, errors.New("store down")
}

func (failingStore) CountTurns(ctx context.Context, userID string) (int, error) {
	return 0, errors.New("store down")
}

func (failingStore) DeleteAllTurns(ctx context.Context, userID string) (int, error) {
	return 0, errors.New("store down")
}

func newTestService(st store.TurnStore, gen Generator) *ChatService {
	return NewChatService(st, gen, assistant.NewEstimator(nil), logger.NewNop())
}

func TestHandleMessageEmptyInput(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(), &fakeGenerator{reply: "hi"})

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := svc.HandleMessage(context.Background(), &ChatRequest{Message: msg})
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestHandleMessageModelReply(t *testing.T) {
	gen := &fakeGenerator{reply: "Here is how listing works! 🌾"}
	svc := newTestService(store.NewMemoryStore(), gen)

	result, err := svc.HandleMessage(context.Background(), &ChatRequest{
		Message: "How do I list my products?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Here is how listing works! 🌾", result.Reply)
	assert.Equal(t, model.SourceModel, result.ReplySource)
	assert.Equal(t, model.CategoryListing, result.Category)
	assert.Equal(t, assistant.QuickReplies(model.CategoryListing), result.QuickReplies)
	assert.False(t, result.Timestamp.IsZero())

	// Trimmed message reaches the generator.
	assert.Equal(t, "How do I list my products?", gen.lastMessage)
}

func TestHandleMessageFallbackReply(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("provider down")}
	svc := newTestService(store.NewMemoryStore(), gen)

	result, err := svc.HandleMessage(context.Background(), &ChatRequest{
		Message: "How do I list my products?",
	})
	require.NoError(t, err)

	assert.Equal(t, model.SourceFallback, result.ReplySource)
	assert.Equal(t, assistant.Respond("How do I list my products?"), result.Reply)
	assert.NotEmpty(t, result.Reply)
}

func TestHandleMessageSentimentAlwaysPresent(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(), &fakeGenerator{reply: "ok"})

	result, err := svc.HandleMessage(context.Background(), &ChatRequest{
		Message: "thanks, this is great!",
	})
	require.NoError(t, err)

	assert.Equal(t, model.SentimentPositive, result.Sentiment.Label)
	assert.Equal(t, model.SourceFallback, result.SentimentSource)
	assert.InDelta(t, 0.6, result.Sentiment.Confidence, 0.001)
}

func TestHandleMessageHistoryMerge(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, qa := range [][2]string{
		{"first question", "first answer"},
		{"second question", "second answer"},
	} {
		_, err := st.CreateTurn(ctx, &model.ConversationTurn{
			UserID:      "user-1",
			SessionID:   "sess-1",
			UserMessage: qa[0],
			BotResponse: qa[1],
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	gen := &fakeGenerator{reply: "ok"}
	svc := newTestService(st, gen)

	_, err := svc.HandleMessage(ctx, &ChatRequest{
		Message:   "third question",
		SessionID: "sess-1",
		UserID:    "user-1",
		History: []model.HistoryEntry{
			{Sender: model.SenderUser, Text: "client entry"},
		},
	})
	require.NoError(t, err)

	// Persisted turns in chronological order, user before bot, then the
	// client-supplied entries.
	require.Len(t, gen.lastHistory, 5)
	assert.Equal(t, "first question", gen.lastHistory[0].Text)
	assert.Equal(t, "first answer", gen.lastHistory[1].Text)
	assert.Equal(t, "second question", gen.lastHistory[2].Text)
	assert.Equal(t, "second answer", gen.lastHistory[3].Text)
	assert.Equal(t, "client entry", gen.lastHistory[4].Text)
	assert.Equal(t, model.SenderUser, gen.lastHistory[0].Sender)
	assert.Equal(t, model.SenderBot, gen.lastHistory[1].Sender)
}

func TestHandleMessageAnonymousNotPersisted(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st, &fakeGenerator{reply: "ok"})

	result, err := svc.HandleMessage(context.Background(), &ChatRequest{
		Message: "hello",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Reply)

	count, err := st.CountTurns(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestHandleMessagePersistsAuthenticatedTurn(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st, &fakeGenerator{reply: "the answer"})

	_, err := svc.HandleMessage(context.Background(), &ChatRequest{
		Message:    "how does payment work",
		UserID:     "user-1",
		UserAgent:  "test-agent",
		RemoteAddr: "10.0.0.1",
	})
	require.NoError(t, err)

	turns, err := st.FindRecentTurns(context.Background(), "user-1", AnonymousSession, 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)

	turn := turns[0]
	assert.Equal(t, "how does payment work", turn.UserMessage)
	assert.Equal(t, "the answer", turn.BotResponse)
	assert.Equal(t, model.CategoryPayment, turn.Category)
	assert.Equal(t, "test-agent", turn.Metadata.UserAgent)
	assert.Equal(t, "10.0.0.1", turn.Metadata.RemoteAddr)
}

func TestHandleMessageSurvivesStoreFailure(t *testing.T) {
	svc := newTestService(failingStore{}, &fakeGenerator{reply: "still fine"})

	result, err := svc.HandleMessage(context.Background(), &ChatRequest{
		Message: "hello",
		UserID:  "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "still fine", result.Reply)
}

func TestGetHistory(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		_, err := st.CreateTurn(ctx, &model.ConversationTurn{
			UserID:    "user-1",
			SessionID: "sess-1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	svc := newTestService(st, &fakeGenerator{reply: "ok"})

	resp, err := svc.GetHistory(ctx, "user-1", 2, 5)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 5, resp.Pagination.Limit)
	assert.Equal(t, 12, resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.Pages)
	assert.Len(t, resp.Messages, 5)
}

func TestGetHistoryClampsParams(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(), &fakeGenerator{reply: "ok"})

	resp, err := svc.GetHistory(context.Background(), "user-1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 50, resp.Pagination.Limit)

	resp, err = svc.GetHistory(context.Background(), "user-1", 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Pagination.Limit)
}

func TestClearHistory(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := st.CreateTurn(ctx, &model.ConversationTurn{UserID: "user-1", SessionID: "s"})
		require.NoError(t, err)
	}

	svc := newTestService(st, &fakeGenerator{reply: "ok"})

	deleted, err := svc.ClearHistory(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
}
