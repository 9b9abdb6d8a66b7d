// Package model defines data structures for the assistant platform.
package model

import (
	"time"
)

// Category is the topic a user message is classified into.
type Category string

const (
	CategoryListing    Category = "listing"
	CategoryPayment    Category = "payment"
	CategoryBlockchain Category = "blockchain"
	CategoryOrder      Category = "order"
	CategoryKYC        Category = "kyc"
	CategoryPricing    Category = "pricing"
	CategorySupport    Category = "support"
	CategoryQuality    Category = "quality"
	CategoryTracking   Category = "tracking"
	CategoryGeneral    Category = "general"
)

// SentimentLabel is one of exactly three sentiment values.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Sentiment is a label with a confidence score in [0,1].
type Sentiment struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
}

// Sender identifies who produced a history entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// HistoryEntry is an ephemeral conversation line used for prompt context.
// It is never persisted on its own; it is either supplied by the client or
// reconstructed from stored turns.
type HistoryEntry struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// TurnMetadata carries request-level details recorded with a turn.
type TurnMetadata struct {
	UserAgent      string `json:"user_agent,omitempty"`
	RemoteAddr     string `json:"remote_addr,omitempty"`
	ResponseTimeMs int64  `json:"response_time_ms,omitempty"`
}

// ConversationTurn is one user message plus the assistant reply.
// Turns are created once by the orchestrator for authenticated callers and
// never mutated afterwards, except for the Helpful flag which a later
// rating action may set.
type ConversationTurn struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id,omitempty"`
	SessionID   string         `json:"session_id"`
	UserMessage string         `json:"user_message"`
	BotResponse string         `json:"bot_response"`
	Category    Category       `json:"category"`
	Sentiment   SentimentLabel `json:"sentiment"`
	Helpful     *bool          `json:"helpful,omitempty"`
	Metadata    TurnMetadata   `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// History expands the turn into its two prompt-context entries, user line
// first.
func (t *ConversationTurn) History() []HistoryEntry {
	return []HistoryEntry{
		{Sender: SenderUser, Text: t.UserMessage},
		{Sender: SenderBot, Text: t.BotResponse},
	}
}
