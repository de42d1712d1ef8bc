package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Malikxolo/Customer-Support-agent/internal/llm"
	supportotel "github.com/Malikxolo/Customer-Support-agent/internal/otel"
	"github.com/Malikxolo/Customer-Support-agent/internal/transcript"
)

// canned replies for the degraded paths that must not spend a reasoning call.
const (
	clarificationReply = "Sorry, I didn't quite catch that. Could you tell me a bit more about what you need help with?"
	failureReply       = "Sorry, something went wrong on our side. Please try again in a moment."
)

// Composer writes the customer-facing reply with one reasoning call.
type Composer struct {
	provider llm.Provider
	model    string
	logger   zerolog.Logger
}

// NewComposer wires the composer's model.
func NewComposer(provider llm.Provider, model string, logger zerolog.Logger) *Composer {
	return &Composer{provider: provider, model: model, logger: logger}
}

// Compose renders the final reply. The fallback-clarification analysis is
// answered with a canned line without calling the model.
func (c *Composer) Compose(ctx context.Context, message string, analysis Analysis, snap transcript.Snapshot, toolSummary, language string) (string, error) {
	if analysis.FallbackClarification {
		return clarificationReply, nil
	}

	ctx, span := tracer.Start(ctx, "agent.compose",
		trace.WithAttributes(supportotel.GenAIRequestModel.String(c.model)))
	defer span.End()

	resp, err := c.provider.Generate(ctx, &llm.Request{
		Model:        c.model,
		SystemPrompt: composerSystemPrompt,
		Messages: []llm.Message{{
			Role:    "user",
			Content: buildComposerPrompt(message, analysis, snap, toolSummary, language),
		}},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("compose call: %w", err)
	}

	reply := llm.CleanResponse(resp.Content)
	if reply == "" {
		return "", llm.ErrEmptyResponse
	}
	return reply, nil
}
