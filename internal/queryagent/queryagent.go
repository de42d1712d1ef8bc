// Package queryagent implements the universal database query capability: a
// single reasoning call selects a database and filters from a natural
// language question, and missing selection details come back as a
// clarification request instead of a guess.
package queryagent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Malikxolo/Customer-Support-agent/internal/llm"
	supportotel "github.com/Malikxolo/Customer-Support-agent/internal/otel"
	"github.com/Malikxolo/Customer-Support-agent/internal/tools"
)

var tracer = supportotel.Tracer("queryagent")

// ToolName is the capability name the analyzer uses for generic lookups.
const ToolName = "db_query"

// Database is a queryable collection exposed to the agent.
type Database struct {
	Name        string
	Description string
	Fields      []string
	Rows        []map[string]any
}

// selection is the structured decision the reasoning call returns.
type selection struct {
	NeedsClarification bool           `json:"needs_clarification"`
	Question           string         `json:"question,omitempty"`
	Missing            []string       `json:"missing,omitempty"`
	Database           string         `json:"database,omitempty"`
	Filters            map[string]any `json:"filters,omitempty"`
}

// Agent answers free-form lookup questions over a fixed set of databases.
// It satisfies the capability contract and is registered like any other tool.
type Agent struct {
	provider  llm.Provider
	model     string
	databases map[string]Database
	logger    zerolog.Logger
}

// New builds an agent over the given databases.
func New(provider llm.Provider, model string, logger zerolog.Logger, dbs ...Database) *Agent {
	m := make(map[string]Database, len(dbs))
	for _, db := range dbs {
		m[db.Name] = db
	}
	return &Agent{provider: provider, model: model, databases: m, logger: logger}
}

func (a *Agent) Name() string { return ToolName }

func (a *Agent) Description() string {
	return "Query a support database with a natural-language question"
}

func (a *Agent) RequiredParams() []string { return []string{"query"} }

const selectionPrompt = `You translate a customer support question into a database selection.

Available databases:
%s

Question: %s
%s
Reply with JSON only:
{"needs_clarification": bool, "question": "ask the user this if clarification is needed", "missing": ["missing field names"], "database": "chosen database name", "filters": {"field": "value"}}

Rules:
- Pick a database only when the question clearly identifies one.
- Never invent filter values that are not in the question.
- If the database or a required filter value is unknown, set needs_clarification to true and name it in missing.`

// Execute runs the selection call and then the filter over the chosen
// database. A missing or unknown database selection is a clarification, not
// a failure.
func (a *Agent) Execute(ctx context.Context, params map[string]any) (any, error) {
	query, _ := params["query"].(string)

	ctx, span := tracer.Start(ctx, "queryagent.execute",
		trace.WithAttributes(attribute.String("tool.name", ToolName)))
	defer span.End()

	hint := ""
	if db, _ := params["database"].(string); db != "" {
		hint = fmt.Sprintf("The user already indicated the %q database.\n", db)
	}

	resp, err := a.provider.Generate(ctx, &llm.Request{
		Model:       a.model,
		Messages:    []llm.Message{{Role: "user", Content: fmt.Sprintf(selectionPrompt, a.describeDatabases(), query, hint)}},
		Temperature: 0.1,
		MaxTokens:   400,
	})
	if err != nil {
		return nil, fmt.Errorf("selecting database: %w", err)
	}

	sel, ok := llm.DecodeStructured(resp.Content, selection{
		NeedsClarification: true,
		Question:           "Could you rephrase what you would like me to look up?",
	})
	if !ok {
		a.logger.Warn().Str("event", "queryagent_decode_failed").Msg("selection reply unparseable, asking to rephrase")
	}

	if sel.NeedsClarification {
		return nil, &tools.ClarificationError{Question: sel.Question, MissingParams: sel.Missing}
	}

	db, found := a.databases[sel.Database]
	if !found {
		return nil, &tools.ClarificationError{
			Question:      fmt.Sprintf("Which of these should I check: %s?", strings.Join(a.names(), ", ")),
			MissingParams: []string{"database"},
		}
	}

	rows := filterRows(db.Rows, sel.Filters)
	a.logger.Debug().
		Str("event", "queryagent_result").
		Str("database", db.Name).
		Int("rows", len(rows)).
		Msg("lookup complete")

	return map[string]any{"database": db.Name, "rows": rows, "count": len(rows)}, nil
}

func (a *Agent) describeDatabases() string {
	var b strings.Builder
	for _, name := range a.names() {
		db := a.databases[name]
		fmt.Fprintf(&b, "- %s: %s (fields: %s)\n", db.Name, db.Description, strings.Join(db.Fields, ", "))
	}
	return b.String()
}

func (a *Agent) names() []string {
	names := make([]string, 0, len(a.databases))
	for name := range a.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// filterRows keeps rows whose fields equal every filter value. String
// comparison is case-insensitive; other values compare via fmt formatting.
func filterRows(rows []map[string]any, filters map[string]any) []map[string]any {
	if len(filters) == 0 {
		return rows
	}
	var out []map[string]any
	for _, row := range rows {
		match := true
		for field, want := range filters {
			got, ok := row[field]
			if !ok || !strings.EqualFold(fmt.Sprint(got), fmt.Sprint(want)) {
				match = false
				break
			}
		}
		if match {
			out = append(out, row)
		}
	}
	return out
}
