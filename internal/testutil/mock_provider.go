// Package testutil provides shared fakes for tests.
package testutil

import (
	"context"
	"sync"

	"github.com/Malikxolo/Customer-Support-agent/internal/llm"
)

// MockProvider returns scripted responses in order and records every
// request it saw. When the script runs out it repeats the last response.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []*llm.Request
}

// NewMockProvider scripts the given responses.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewFailingProvider always returns err.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{err: err}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}

	var content string
	switch {
	case len(p.responses) == 0:
		content = ""
	case len(p.requests) <= len(p.responses):
		content = p.responses[len(p.requests)-1]
	default:
		content = p.responses[len(p.responses)-1]
	}

	return &llm.Response{
		Content:      content,
		FinishReason: "stop",
		InputTokens:  10,
		OutputTokens: 20,
		Model:        req.Model,
	}, nil
}

// Calls returns how many requests were issued.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Request returns the i-th recorded request.
func (p *MockProvider) Request(i int) *llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[i]
}
