// Package llm wraps the external reasoning collaborators behind a single
// Provider interface. The engine issues at most three Generate calls per
// turn: analysis (brain), response (heart), and an optional language probe.
package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutLLMCall bounds every provider call; a turn must not hang on a
// stuck upstream.
const TimeoutLLMCall = 60 * time.Second

// Domain errors for the LLM package.
var (
	ErrProviderNotAvailable = errors.New("provider not available")
	ErrEmptyResponse        = errors.New("provider returned no choices")
)

// Provider is the interface all reasoning collaborators must implement.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "ollama").
	Name() string
	// Generate sends a completion request and returns the response text.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a generation request.
type Request struct {
	Model        string
	Messages     []Message
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Message represents a chat message.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Response represents a generation response.
type Response struct {
	Content      string
	FinishReason string
	InputTokens  int
	OutputTokens int
	Model        string
}
