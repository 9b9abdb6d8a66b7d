package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmchain/assistant-platform/internal/model"
)

type fakeClient struct {
	resp    *CompletionResponse
	err     error
	lastReq *CompletionRequest
}

func (c *fakeClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	c.lastReq = req
	return c.resp, c.err
}

func (c *fakeClient) Name() string { return "fake" }

func TestGeneratorNotConfigured(t *testing.T) {
	gen := NewGenerator(nil)

	assert.False(t, gen.Configured())

	_, err := gen.Generate(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGeneratorGenerate(t *testing.T) {
	client := &fakeClient{resp: &CompletionResponse{Content: "  Here you go! 🌾  "}}
	gen := NewGenerator(client)

	require.True(t, gen.Configured())

	reply, err := gen.Generate(context.Background(), "How do I list products?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Here you go! 🌾", reply)

	require.NotNil(t, client.lastReq)
	assert.Equal(t, 0.7, client.lastReq.Temperature)
	assert.Equal(t, 40, client.lastReq.TopK)
	assert.Equal(t, 0.95, client.lastReq.TopP)
	assert.Equal(t, 2048, client.lastReq.MaxTokens)
	assert.True(t, client.lastReq.Safety)
}

func TestGeneratorErrorsMapToUnavailable(t *testing.T) {
	gen := NewGenerator(&fakeClient{err: errors.New("rate limited")})

	_, err := gen.Generate(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGeneratorEmptyReplyIsUnavailable(t *testing.T) {
	gen := NewGenerator(&fakeClient{resp: &CompletionResponse{Content: "   \n"}})

	_, err := gen.Generate(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBuildPromptNoHistory(t *testing.T) {
	prompt := BuildPrompt("What is KYC?", nil, HistoryWindow)

	assert.Contains(t, prompt, "FarmChain AI Assistant")
	assert.NotContains(t, prompt, "**Previous Conversation:**")
	assert.Contains(t, prompt, "**Current User Question:**\nWhat is KYC?")
	assert.True(t, strings.HasSuffix(prompt, "**Your Response (be helpful, specific, and friendly):**"))
}

func TestBuildPromptHistoryRoles(t *testing.T) {
	history := []model.HistoryEntry{
		{Sender: model.SenderUser, Text: "hi"},
		{Sender: model.SenderBot, Text: "hello!"},
	}

	prompt := BuildPrompt("next question", history, HistoryWindow)

	assert.Contains(t, prompt, "**Previous Conversation:**\nUser: hi\nAssistant: hello!\n")
}

func TestBuildPromptWindow(t *testing.T) {
	var history []model.HistoryEntry
	for i := 0; i < 8; i++ {
		history = append(history, model.HistoryEntry{
			Sender: model.SenderUser,
			Text:   fmt.Sprintf("entry-%d", i),
		})
	}

	prompt := BuildPrompt("question", history, HistoryWindow)

	// Only the five most recent entries survive the window.
	for i := 0; i < 3; i++ {
		assert.NotContains(t, prompt, fmt.Sprintf("entry-%d", i))
	}
	for i := 3; i < 8; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("entry-%d", i))
	}
}

func TestBuildPromptExactWindow(t *testing.T) {
	history := []model.HistoryEntry{
		{Sender: model.SenderUser, Text: "only-entry"},
	}

	prompt := BuildPrompt("question", history, HistoryWindow)
	assert.Contains(t, prompt, "User: only-entry")
}
