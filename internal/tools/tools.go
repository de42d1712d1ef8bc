// Package tools defines the capability contract and the dispatcher that
// fans a turn's capability invocations out to their implementations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Tool is a named external capability.
type Tool interface {
	Name() string
	Description() string

	// RequiredParams lists parameter names that must be present and
	// non-empty before Execute is called.
	RequiredParams() []string

	Execute(ctx context.Context, params map[string]any) (any, error)
}

// Call is a single capability invocation the analyzer decided on.
type Call struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"parameters,omitempty"`
}

// Fingerprint renders the call as a stable string for cache keying. JSON
// object keys marshal in sorted order, so equal params yield equal strings.
func (c Call) Fingerprint() string {
	b, err := json.Marshal(c.Params)
	if err != nil {
		b = []byte("{}")
	}
	return c.Tool + ":" + string(b)
}

// Result is the outcome of one invocation. NeedsClarification is a normal
// branch of the conversation, not an error; only Error carries failures.
type Result struct {
	Tool               string   `json:"tool"`
	Success            bool     `json:"success"`
	NeedsClarification bool     `json:"needs_clarification,omitempty"`
	MissingParams      []string `json:"missing_params,omitempty"`
	Question           string   `json:"question,omitempty"`
	Data               any      `json:"data,omitempty"`
	Error              string   `json:"error,omitempty"`
}

// ClarificationError is returned by a tool that needs more input from the
// customer before it can act. The dispatcher converts it to a
// needs_clarification result rather than a failure.
type ClarificationError struct {
	Question      string
	MissingParams []string
}

func (e *ClarificationError) Error() string {
	return fmt.Sprintf("needs clarification: %s", e.Question)
}

// missingParams returns required parameters that are absent or blank.
func missingParams(t Tool, params map[string]any) []string {
	var missing []string
	for _, name := range t.RequiredParams() {
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
