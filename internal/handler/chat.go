// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/farmchain/assistant-platform/internal/middleware"
	"github.com/farmchain/assistant-platform/internal/model"
	"github.com/farmchain/assistant-platform/internal/service"
	"github.com/farmchain/assistant-platform/pkg/logger"
)

// ChatHandler handles assistant endpoints.
type ChatHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		logger:  log,
	}
}

// SendMessage handles POST /api/v1/chat/message
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.SendChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateSessionID(req.SessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.HandleMessage(ctx, &service.ChatRequest{
		Message:    req.Message,
		SessionID:  req.SessionID,
		History:    req.History,
		UserID:     middleware.GetUserID(ctx),
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		h.logger.Error("failed to process message", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, &model.SendChatResponse{
		Reply:        result.Reply,
		Category:     result.Category,
		Sentiment:    result.Sentiment,
		QuickReplies: result.QuickReplies,
		Timestamp:    result.Timestamp,
	})
}

// Suggestions handles GET /api/v1/chat/suggestions
func (h *ChatHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Suggestions())
}

// History handles GET /api/v1/chat/history
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	page := 1
	limit := 50

	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	resp, err := h.service.GetHistory(ctx, userID, page, limit)
	if err != nil {
		h.logger.Error("failed to get chat history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get chat history")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ClearHistory handles DELETE /api/v1/chat/history
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	deleted, err := h.service.ClearHistory(ctx, userID)
	if err != nil {
		h.logger.Error("failed to clear chat history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear chat history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"deleted": deleted,
	})
}
