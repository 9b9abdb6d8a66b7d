package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmchain/assistant-platform/internal/llm"
	"github.com/farmchain/assistant-platform/internal/model"
)

// stubClient is a canned llm.Client for tests.
type stubClient struct {
	resp    *llm.CompletionResponse
	err     error
	lastReq *llm.CompletionRequest
}

func (c *stubClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.lastReq = req
	return c.resp, c.err
}

func (c *stubClient) Name() string { return "stub" }

func TestEstimateHeuristic(t *testing.T) {
	est := NewEstimator(nil)

	tests := []struct {
		name     string
		message  string
		expected model.SentimentLabel
	}{
		{"positive words", "great, thanks for the help!", model.SentimentPositive},
		{"negative words", "this is a terrible problem", model.SentimentNegative},
		{"mixed words are neutral", "great product but a terrible problem", model.SentimentNeutral},
		{"no signal is neutral", "okay", model.SentimentNeutral},
		{"case insensitive", "AMAZING platform", model.SentimentPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sentiment, source := est.Estimate(context.Background(), tt.message)
			assert.Equal(t, tt.expected, sentiment.Label)
			assert.Equal(t, 0.6, sentiment.Confidence)
			assert.Equal(t, model.SourceFallback, source)
		})
	}
}

func TestEstimatePrimary(t *testing.T) {
	client := &stubClient{resp: &llm.CompletionResponse{Content: "Positive"}}
	est := NewEstimator(client)

	sentiment, source := est.Estimate(context.Background(), "I love this")

	assert.Equal(t, model.SentimentPositive, sentiment.Label)
	assert.Equal(t, 0.85, sentiment.Confidence)
	assert.Equal(t, model.SourceModel, source)

	require.NotNil(t, client.lastReq)
	assert.Contains(t, client.lastReq.Prompt, `Message: "I love this"`)
	assert.Equal(t, 0.3, client.lastReq.Temperature)
	assert.Equal(t, 10, client.lastReq.MaxTokens)
}

func TestEstimatePrimaryLabels(t *testing.T) {
	tests := []struct {
		answer   string
		expected model.SentimentLabel
	}{
		{"negative", model.SentimentNegative},
		{"  Negative.\n", model.SentimentNegative},
		{"neutral", model.SentimentNeutral},
		{"something unexpected", model.SentimentNeutral},
	}

	for _, tt := range tests {
		est := NewEstimator(&stubClient{resp: &llm.CompletionResponse{Content: tt.answer}})
		sentiment, source := est.Estimate(context.Background(), "message")
		assert.Equal(t, tt.expected, sentiment.Label, "answer %q", tt.answer)
		assert.Equal(t, model.SourceModel, source)
	}
}

func TestEstimateClientErrorFallsBack(t *testing.T) {
	est := NewEstimator(&stubClient{err: errors.New("boom")})

	sentiment, source := est.Estimate(context.Background(), "thanks, very helpful")

	assert.Equal(t, model.SentimentPositive, sentiment.Label)
	assert.Equal(t, 0.6, sentiment.Confidence)
	assert.Equal(t, model.SourceFallback, source)
}

func TestEstimateEmptyContentFallsBack(t *testing.T) {
	est := NewEstimator(&stubClient{resp: &llm.CompletionResponse{Content: "   "}})

	sentiment, source := est.Estimate(context.Background(), "this is bad")

	assert.Equal(t, model.SentimentNegative, sentiment.Label)
	assert.Equal(t, model.SourceFallback, source)
}
