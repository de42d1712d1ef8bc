package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON locates the JSON object embedded in a model response.
// Thinking-style models often lead with free-text reasoning or wrap the
// object in a fenced code block; the span between the first '{' and the
// last '}' is taken as the payload.
func ExtractJSON(response string) string {
	s := strings.TrimSpace(response)

	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
			lines = lines[1:]
		}
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		s = strings.Join(lines, "\n")
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}
	return s
}

// DecodeStructured parses the JSON object embedded in a model response into
// dst. On any parse failure dst is reset to the provided fallback value, and
// ok is false. Every call site supplies a typed fallback so a malformed
// model reply can never crash or block a turn.
func DecodeStructured[T any](response string, fallback T) (dst T, ok bool) {
	raw := ExtractJSON(response)
	if err := json.Unmarshal([]byte(raw), &dst); err != nil {
		return fallback, false
	}
	return dst, true
}

// CleanResponse strips markdown fences from a customer-facing reply.
func CleanResponse(response string) string {
	s := strings.TrimSpace(response)
	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
			lines = lines[1:]
		}
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		s = strings.Join(lines, "\n")
	}
	return strings.TrimSpace(s)
}
