// Package service provides business logic for the assistant platform.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/farmchain/assistant-platform/internal/assistant"
	"github.com/farmchain/assistant-platform/internal/llm"
	"github.com/farmchain/assistant-platform/internal/model"
	"github.com/farmchain/assistant-platform/internal/store"
	"github.com/farmchain/assistant-platform/pkg/logger"
	"github.com/farmchain/assistant-platform/pkg/metrics"
)

// ErrInvalidInput is returned for an empty or whitespace-only message. It
// is the only failure surfaced to callers; every other problem degrades to
// a best-effort result.
var ErrInvalidInput = errors.New("service: message must not be empty")

// AnonymousSession is the session identifier used when the client supplies
// none.
const AnonymousSession = "anonymous"

// Generator produces a model-backed reply or an error absorbed by the
// deterministic responder.
type Generator interface {
	Generate(ctx context.Context, message string, history []model.HistoryEntry) (string, error)
}

// ChatRequest is one inbound message plus its request context.
type ChatRequest struct {
	Message   string
	SessionID string
	History   []model.HistoryEntry

	// UserID is empty for anonymous callers; anonymous turns are not
	// persisted.
	UserID string

	UserAgent  string
	RemoteAddr string
}

// ChatResult is the assembled pipeline outcome. ReplySource and
// SentimentSource expose which path produced each part.
type ChatResult struct {
	Reply           string
	Category        model.Category
	Sentiment       model.Sentiment
	QuickReplies    []string
	Timestamp       time.Time
	ReplySource     model.Source
	SentimentSource model.Source
}

// ChatService orchestrates the conversation pipeline: classify, estimate
// sentiment, merge history, generate (with fallback), suggest quick
// replies, persist.
type ChatService struct {
	store         store.TurnStore
	generator     Generator
	estimator     *assistant.Estimator
	logger        *logger.Logger
	historyWindow int
}

// NewChatService creates a new chat service.
func NewChatService(st store.TurnStore, gen Generator, est *assistant.Estimator, log *logger.Logger) *ChatService {
	return &ChatService{
		store:         st,
		generator:     gen,
		estimator:     est,
		logger:        log,
		historyWindow: llm.HistoryWindow,
	}
}

// HandleMessage runs the full pipeline for one message. The caller always
// receives a reply unless the message itself is empty.
func (s *ChatService) HandleMessage(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrInvalidInput
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = AnonymousSession
	}

	// Classification and sentiment have no mutual dependency; estimate
	// sentiment concurrently while classifying and loading history.
	type sentimentResult struct {
		sentiment model.Sentiment
		source    model.Source
	}
	sentimentCh := make(chan sentimentResult, 1)
	go func() {
		sentiment, source := s.estimator.Estimate(ctx, message)
		sentimentCh <- sentimentResult{sentiment, source}
	}()

	category := assistant.Classify(message)

	// Server memory first, client's freshest view last.
	history := s.loadHistory(ctx, req.UserID, sessionID)
	history = append(history, req.History...)

	reply, err := s.generator.Generate(ctx, message, history)
	replySource := model.SourceModel
	if err != nil {
		s.logger.Warn("generation unavailable, using fallback responder", zap.Error(err))
		metrics.GenerationFallbacksTotal.Inc()
		reply = assistant.Respond(message)
		replySource = model.SourceFallback
	}

	sentiment := <-sentimentCh
	if sentiment.source == model.SourceFallback {
		metrics.SentimentFallbacksTotal.Inc()
	}

	quickReplies := assistant.QuickReplies(category)

	if req.UserID != "" {
		turn := &model.ConversationTurn{
			UserID:      req.UserID,
			SessionID:   sessionID,
			UserMessage: message,
			BotResponse: reply,
			Category:    category,
			Sentiment:   sentiment.sentiment.Label,
			Metadata: model.TurnMetadata{
				UserAgent:      req.UserAgent,
				RemoteAddr:     req.RemoteAddr,
				ResponseTimeMs: time.Since(start).Milliseconds(),
			},
		}
		if _, err := s.store.CreateTurn(ctx, turn); err != nil {
			// The user-visible reply is unaffected by persistence failures.
			s.logger.Error("failed to persist turn",
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
			metrics.PersistenceFailuresTotal.Inc()
		} else {
			metrics.TurnsTotal.WithLabelValues(string(category)).Inc()
		}
	}

	metrics.ChatMessagesTotal.WithLabelValues(string(category), string(replySource)).Inc()

	return &ChatResult{
		Reply:           reply,
		Category:        category,
		Sentiment:       sentiment.sentiment,
		QuickReplies:    quickReplies,
		Timestamp:       time.Now(),
		ReplySource:     replySource,
		SentimentSource: sentiment.source,
	}, nil
}

// loadHistory fetches the most recent persisted turns for the session and
// expands them into chronological prompt-context entries, user line before
// bot line for each turn. Store failures degrade to no server-side history.
func (s *ChatService) loadHistory(ctx context.Context, userID, sessionID string) []model.HistoryEntry {
	if userID == "" {
		return nil
	}

	turns, err := s.store.FindRecentTurns(ctx, userID, sessionID, s.historyWindow)
	if err != nil {
		s.logger.Warn("failed to load conversation history",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}

	// Newest-first from the store; reverse to chronological order.
	entries := make([]model.HistoryEntry, 0, len(turns)*2)
	for i := len(turns) - 1; i >= 0; i-- {
		entries = append(entries, turns[i].History()...)
	}
	return entries
}

// GetHistory returns one page of the user's persisted turns, newest first.
func (s *ChatService) GetHistory(ctx context.Context, userID string, page, limit int) (*model.ChatHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	turns, total, err := s.store.FindTurnsPaged(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	pages := (total + limit - 1) / limit

	return &model.ChatHistoryResponse{
		Messages: turns,
		Pagination: model.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

// ClearHistory removes every persisted turn for the user and returns the
// deleted count.
func (s *ChatService) ClearHistory(ctx context.Context, userID string) (int, error) {
	return s.store.DeleteAllTurns(ctx, userID)
}
