package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/farmchain/assistant-platform/internal/llm"
	"github.com/farmchain/assistant-platform/internal/model"
)

const (
	// sentimentTimeout bounds the primary estimation path; exceeding it
	// triggers the local heuristic.
	sentimentTimeout = 10 * time.Second

	// primaryConfidence is reported for model-backed estimates.
	primaryConfidence = 0.85

	// fallbackConfidence is reported for heuristic estimates.
	fallbackConfidence = 0.6
)

var positiveWords = []string{"good", "great", "excellent", "thanks", "helpful", "love", "amazing"}

var negativeWords = []string{"bad", "poor", "terrible", "hate", "problem", "issue", "disappointed"}

// Estimator maps a message to a sentiment label with a confidence score.
// The primary path delegates to a model client; the secondary path is a
// keyword-count heuristic. Estimation never fails.
type Estimator struct {
	client llm.Client
}

// NewEstimator creates an estimator. client may be nil, in which case only
// the heuristic path is used.
func NewEstimator(client llm.Client) *Estimator {
	return &Estimator{client: client}
}

// Estimate returns the sentiment of the message and the path that produced
// it.
func (e *Estimator) Estimate(ctx context.Context, message string) (model.Sentiment, model.Source) {
	if e.client == nil {
		return estimateHeuristic(message), model.SourceFallback
	}

	ctx, cancel := context.WithTimeout(ctx, sentimentTimeout)
	defer cancel()

	prompt := fmt.Sprintf(`Analyze the sentiment of this message and respond with ONLY one word: positive, negative, or neutral.

Message: "%s"

Sentiment:`, message)

	resp, err := e.client.Complete(ctx, &llm.CompletionRequest{
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   10,
	})
	if err != nil {
		return estimateHeuristic(message), model.SourceFallback
	}
	if strings.TrimSpace(resp.Content) == "" {
		return estimateHeuristic(message), model.SourceFallback
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Content))
	label := model.SentimentNeutral
	switch {
	case strings.Contains(answer, "positive"):
		label = model.SentimentPositive
	case strings.Contains(answer, "negative"):
		label = model.SentimentNegative
	}

	return model.Sentiment{Label: label, Confidence: primaryConfidence}, model.SourceModel
}

// estimateHeuristic counts positive and negative keyword hits in the
// lower-cased message.
func estimateHeuristic(message string) model.Sentiment {
	lower := strings.ToLower(message)

	hasPositive := containsAny(lower, positiveWords)
	hasNegative := containsAny(lower, negativeWords)

	label := model.SentimentNeutral
	if hasPositive && !hasNegative {
		label = model.SentimentPositive
	}
	if hasNegative && !hasPositive {
		label = model.SentimentNegative
	}

	return model.Sentiment{Label: label, Confidence: fallbackConfidence}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
