package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/farmchain/assistant-platform/internal/model"
	"github.com/farmchain/assistant-platform/pkg/metrics"
)

const (
	// HistoryWindow is the number of context entries included in the
	// prompt. The merge step takes the most recent entries only.
	HistoryWindow = 5

	// GenerateTimeout bounds a single generation call. The adapter never
	// retries; one failed attempt falls back.
	GenerateTimeout = 30 * time.Second
)

// personaPrompt is the fixed system preamble describing the platform and
// the assistant's role and tone.
const personaPrompt = `You are FarmChain AI Assistant, an intelligent chatbot for a revolutionary agricultural blockchain platform.

**About FarmChain:**
FarmChain is a blockchain-powered agricultural supply chain platform that connects farmers directly to consumers, distributors, and retailers. We use Polygon blockchain for transparency and smart contracts for secure transactions.

**Your Role:**
- Help users understand blockchain-verified agriculture
- Guide farmers on listing products and earning income
- Explain supply chain tracking and transparency
- Assist with payments, orders, and platform features
- Provide information about certifications and quality standards
- Answer questions about blockchain, cryptocurrency, and smart contracts

**Platform Features:**
1. **Blockchain Verification**: Every product is registered on Polygon blockchain
2. **Smart Contract Payments**: Secure escrow payments with MATIC cryptocurrency
3. **Supply Chain Tracking**: Track products from farm to table
4. **Farmer Verification**: KYC and certification system
5. **Direct Trade**: Connect farmers with buyers directly
6. **Quality Assurance**: AI-powered quality detection
7. **Real-time Tracking**: GPS and IoT integration
8. **Transparent Pricing**: Fair prices for farmers

**User Types:**
- Farmers: List products, manage inventory, track earnings
- Distributors: Source products, manage logistics
- Retailers: Purchase verified products
- Consumers: Buy fresh, verified agricultural products

**Key Benefits:**
- 40% higher income for farmers
- 100% product traceability
- Instant cryptocurrency payments
- Reduced intermediary costs
- Quality guaranteed products
- Carbon footprint tracking

**Tone & Style:**
- Be friendly, helpful, and professional
- Use simple language for complex blockchain concepts
- Provide specific, actionable guidance
- Show enthusiasm for sustainable agriculture
- Be concise but comprehensive
- Use emojis occasionally for warmth (🌾, 🚜, 🌱, ✅)

**Important:**
- Always prioritize user needs
- Provide accurate information about the platform
- Guide users to relevant features
- Encourage sustainable farming practices
- Promote transparency and trust

Remember: You're helping revolutionize agriculture through blockchain technology!`

// Generator is the remote generation adapter: it renders a
// context-augmented prompt and submits it through a provider client with
// bounded generation parameters. A nil client means generation is not
// configured and every call returns ErrUnavailable.
type Generator struct {
	client  Client
	window  int
	timeout time.Duration
}

// NewGenerator creates a generator around a provider client. client may be
// nil when no provider credential is configured.
func NewGenerator(client Client) *Generator {
	return &Generator{
		client:  client,
		window:  HistoryWindow,
		timeout: GenerateTimeout,
	}
}

// Configured reports whether a provider client is available.
func (g *Generator) Configured() bool {
	return g.client != nil
}

// Client returns the underlying provider client, or nil when not
// configured. The sentiment estimator shares it for its primary path.
func (g *Generator) Client() Client {
	return g.client
}

// Generate produces a reply for the message given the merged conversation
// history. Any failure maps to ErrUnavailable; it never panics and never
// retries.
func (g *Generator) Generate(ctx context.Context, message string, history []model.HistoryEntry) (string, error) {
	if g.client == nil {
		return "", ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Complete(ctx, &CompletionRequest{
		Prompt:      BuildPrompt(message, history, g.window),
		Temperature: 0.7,
		TopK:        40,
		TopP:        0.95,
		MaxTokens:   2048,
		Safety:      true,
	})
	if err != nil {
		metrics.RecordGeneration(g.client.Name(), "error", time.Since(start).Seconds())
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	metrics.RecordGeneration(g.client.Name(), "success", time.Since(start).Seconds())

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", ErrUnavailable
	}
	return reply, nil
}

// BuildPrompt renders the persona preamble, the last window history entries
// as alternating User/Assistant lines, the current message and the
// instruction suffix into a single prompt.
func BuildPrompt(message string, history []model.HistoryEntry, window int) string {
	var b strings.Builder

	b.WriteString(personaPrompt)
	b.WriteString("\n\n")

	if len(history) > window {
		history = history[len(history)-window:]
	}
	if len(history) > 0 {
		b.WriteString("**Previous Conversation:**\n")
		for _, entry := range history {
			role := "Assistant"
			if entry.Sender == model.SenderUser {
				role = "User"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, entry.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**Current User Question:**\n%s\n\n", message)
	b.WriteString("**Your Response (be helpful, specific, and friendly):**")

	return b.String()
}
