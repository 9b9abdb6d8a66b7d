package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmchain/assistant-platform/internal/assistant"
	"github.com/farmchain/assistant-platform/internal/middleware"
	"github.com/farmchain/assistant-platform/internal/model"
	"github.com/farmchain/assistant-platform/internal/service"
	"github.com/farmchain/assistant-platform/internal/store"
	"github.com/farmchain/assistant-platform/pkg/logger"
)

type staticGenerator struct {
	reply string
}

func (g staticGenerator) Generate(ctx context.Context, message string, history []model.HistoryEntry) (string, error) {
	return g.reply, nil
}

func newTestRouter(st store.TurnStore) *chi.Mux {
	svc := service.NewChatService(st, staticGenerator{reply: "model reply"}, assistant.NewEstimator(nil), logger.NewNop())
	h := NewChatHandler(svc, logger.NewNop())

	r := chi.NewRouter()
	r.Post("/message", h.SendMessage)
	r.Get("/suggestions", h.Suggestions)
	r.Get("/history", h.History)
	r.Delete("/history", h.ClearHistory)
	return r
}

func asUser(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

func TestSendMessage(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore())

	body, _ := json.Marshal(model.SendChatRequest{
		Message:   "How do I list my products?",
		SessionID: "sess-1",
	})

	req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp model.SendChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "model reply", resp.Reply)
	assert.Equal(t, model.CategoryListing, resp.Category)
	assert.Equal(t, assistant.QuickReplies(model.CategoryListing), resp.QuickReplies)
	assert.NotEmpty(t, resp.Sentiment.Label)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestSendMessageValidation(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore())

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"empty message", `{"message":""}`},
		{"whitespace message", `{"message":"   "}`},
		{"oversized session id", `{"message":"hi","session_id":"` + string(bytes.Repeat([]byte("x"), 200)) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader([]byte(tt.body)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestSendMessagePersistsForAuthenticatedUser(t *testing.T) {
	st := store.NewMemoryStore()
	router := newTestRouter(st)

	body, _ := json.Marshal(model.SendChatRequest{Message: "hello", SessionID: "sess-1"})
	req := asUser(httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	count, err := st.CountTurns(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSuggestions(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/suggestions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var suggestions []model.Suggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suggestions))
	require.Len(t, suggestions, 6)
	assert.Equal(t, "How do I list my products?", suggestions[0].Text)
	assert.Equal(t, model.CategoryListing, suggestions[0].Category)
}

func TestHistoryPagination(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		_, err := st.CreateTurn(ctx, &model.ConversationTurn{UserID: "user-1", SessionID: "s"})
		require.NoError(t, err)
	}

	router := newTestRouter(st)

	req := asUser(httptest.NewRequest(http.MethodGet, "/history?page=2&limit=3", nil), "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ChatHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 3, resp.Pagination.Limit)
	assert.Equal(t, 7, resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.Pages)
	assert.Len(t, resp.Messages, 3)
}

func TestHistoryIgnoresBadParams(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore())

	req := asUser(httptest.NewRequest(http.MethodGet, "/history?page=abc&limit=-5", nil), "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ChatHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 50, resp.Pagination.Limit)
}

func TestClearHistory(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := st.CreateTurn(ctx, &model.ConversationTurn{UserID: "user-1", SessionID: "s"})
		require.NoError(t, err)
	}

	router := newTestRouter(st)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/history", nil), "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp["deleted"])

	count, err := st.CountTurns(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
