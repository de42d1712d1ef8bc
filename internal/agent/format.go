package agent

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Malikxolo/Customer-Support-agent/internal/tools"
)

// FormatToolResults renders dispatcher output as prompt-ready text, one
// block per invocation in key order. Clarifications and failures are
// labelled so the composer asks or apologizes instead of stating facts.
func FormatToolResults(results map[string]tools.Result) string {
	if len(results) == 0 {
		return ""
	}

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		res := results[key]
		switch {
		case res.NeedsClarification:
			fmt.Fprintf(&b, "[%s] needs clarification", res.Tool)
			if len(res.MissingParams) > 0 {
				fmt.Fprintf(&b, ", missing: %s", strings.Join(res.MissingParams, ", "))
			}
			if res.Question != "" {
				fmt.Fprintf(&b, " (ask: %s)", res.Question)
			}
			b.WriteString("\n")
		case !res.Success:
			fmt.Fprintf(&b, "[%s] unavailable right now\n", res.Tool)
		default:
			fmt.Fprintf(&b, "[%s] %s\n", res.Tool, renderData(res.Data))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// MissingFromResults collects every missing field reported by clarification
// results, deduplicated, sorted.
func MissingFromResults(results map[string]tools.Result) []string {
	seen := make(map[string]bool)
	for _, res := range results {
		if !res.NeedsClarification {
			continue
		}
		for _, field := range res.MissingParams {
			seen[field] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func renderData(data any) string {
	switch v := data.(type) {
	case nil:
		return "done"
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
