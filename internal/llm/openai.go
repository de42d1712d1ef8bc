package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/trace"

	supportotel "github.com/Malikxolo/Customer-Support-agent/internal/otel"
)

var tracer = supportotel.Tracer("github.com/Malikxolo/Customer-Support-agent/internal/llm")

// Base URLs for OpenAI-compatible hosted providers. Anything not listed
// uses the go-openai default (api.openai.com).
var compatibleBaseURLs = map[string]string{
	"openrouter": "https://openrouter.ai/api/v1",
	"groq":       "https://api.groq.com/openai/v1",
	"deepseek":   "https://api.deepseek.com/v1",
	"sarvam":     "https://api.sarvam.ai/v1",
}

// OpenAIProvider implements Provider over any OpenAI-compatible chat
// completions API (OpenAI itself, OpenRouter, Groq, DeepSeek, ...).
type OpenAIProvider struct {
	name   string
	client *openai.Client
}

// NewOpenAIProvider creates a provider for the named OpenAI-compatible
// service. The provider name selects the base URL.
func NewOpenAIProvider(providerName, apiKey string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL, ok := compatibleBaseURLs[providerName]; ok {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{name: providerName, client: openai.NewClientWithConfig(cfg)}
}

// NewOpenAIProviderWithBaseURL creates a provider with an explicit base URL
// (e.g. tests pointing at a mock server). baseURL should include the /v1 path.
func NewOpenAIProviderWithBaseURL(providerName, apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIProvider{name: providerName, client: openai.NewClientWithConfig(cfg)}
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Generate sends a chat completion request.
func (p *OpenAIProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "gen_ai.generate",
		trace.WithAttributes(
			supportotel.LLMRequestAttributes(p.name, req.Model, req.Temperature, req.MaxTokens)...,
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, TimeoutLLMCall)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s api call: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s api call: %w", p.name, ErrEmptyResponse)
	}

	span.SetAttributes(
		supportotel.GenAIUsageInputTokens.Int(resp.Usage.PromptTokens),
		supportotel.GenAIUsageOutputTokens.Int(resp.Usage.CompletionTokens),
		supportotel.GenAIResponseFinishReason.String(string(resp.Choices[0].FinishReason)),
	)

	return &Response{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
	}, nil
}
