package model

import (
	"time"
)

// Source identifies which path produced part of a pipeline result, making
// degradation observable without depending on log output.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// SendChatRequest is the request body for submitting a message.
type SendChatRequest struct {
	Message   string         `json:"message"`
	SessionID string         `json:"session_id,omitempty"`
	History   []HistoryEntry `json:"history,omitempty"`
}

// SendChatResponse is the assembled pipeline result returned to the client.
type SendChatResponse struct {
	Reply        string    `json:"reply"`
	Category     Category  `json:"category"`
	Sentiment    Sentiment `json:"sentiment"`
	QuickReplies []string  `json:"quick_replies"`
	Timestamp    time.Time `json:"timestamp"`
}

// Suggestion is a static starter question shown before the first message.
type Suggestion struct {
	ID       int      `json:"id"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// Suggestions returns the starter questions, category-tagged.
func Suggestions() []Suggestion {
	return []Suggestion{
		{ID: 1, Text: "How do I list my products?", Category: CategoryListing},
		{ID: 2, Text: "What payment methods are supported?", Category: CategoryPayment},
		{ID: 3, Text: "How does blockchain verification work?", Category: CategoryBlockchain},
		{ID: 4, Text: "How can I track my order?", Category: CategoryOrder},
		{ID: 5, Text: "What is KYC verification?", Category: CategoryKYC},
		{ID: 6, Text: "What are the pricing plans?", Category: CategoryPricing},
	}
}

// Pagination describes a page of history results.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ChatHistoryResponse is the paged history listing.
type ChatHistoryResponse struct {
	Messages   []ConversationTurn `json:"messages"`
	Pagination Pagination         `json:"pagination"`
}
