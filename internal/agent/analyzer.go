package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Malikxolo/Customer-Support-agent/internal/cache"
	"github.com/Malikxolo/Customer-Support-agent/internal/llm"
	supportotel "github.com/Malikxolo/Customer-Support-agent/internal/otel"
	"github.com/Malikxolo/Customer-Support-agent/internal/tools"
	"github.com/Malikxolo/Customer-Support-agent/internal/transcript"
)

var tracer = supportotel.Tracer("agent")

// transcriptTailLen bounds how much raw history the analysis prompt carries;
// everything older is already condensed into the snapshot.
const transcriptTailLen = 6

// Analyzer turns one customer message into a structured decision with
// exactly one reasoning call, memoized per semantic situation.
type Analyzer struct {
	provider  llm.Provider
	model     string
	registry  *tools.Registry
	extractor *transcript.Extractor
	store     *cache.Store
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewAnalyzer wires the analyzer's collaborators.
func NewAnalyzer(provider llm.Provider, model string, registry *tools.Registry, extractor *transcript.Extractor, store *cache.Store, ttl time.Duration, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		provider:  provider,
		model:     model,
		registry:  registry,
		extractor: extractor,
		store:     store,
		ttl:       ttl,
		logger:    logger,
	}
}

// Analyze produces the turn decision. Parse failures degrade to a canned
// clarification analysis; only transport failures return an error.
func (a *Analyzer) Analyze(ctx context.Context, owner, message string, snap transcript.Snapshot, tail []transcript.Message) (Analysis, error) {
	ctx, span := tracer.Start(ctx, "agent.analyze",
		trace.WithAttributes(supportotel.GenAIRequestModel.String(a.model)))
	defer span.End()

	key := a.cacheKey(owner, message, snap)
	if v, ok := a.store.Get(key); ok {
		if an, isAnalysis := v.(Analysis); isAnalysis {
			a.logger.Debug().Str("event", "analysis_cache_hit").Str("owner", owner).Msg("reusing cached analysis")
			a.enforce(&an, message, snap)
			return an, nil
		}
	}

	resp, err := a.provider.Generate(ctx, &llm.Request{
		Model:        a.model,
		SystemPrompt: analysisSystemPrompt,
		Messages: []llm.Message{{
			Role:    "user",
			Content: buildAnalysisPrompt(message, snap, lastN(tail, transcriptTailLen), a.registry.Describe()),
		}},
		Temperature: 0.1,
		MaxTokens:   800,
	})
	if err != nil {
		span.RecordError(err)
		return Analysis{}, fmt.Errorf("analysis call: %w", err)
	}

	an, parsed := llm.DecodeStructured(resp.Content, fallbackAnalysis())
	if !parsed {
		a.logger.Warn().
			Str("event", "analysis_unparseable").
			Str("owner", owner).
			Msg("model reply had no valid JSON, using fallback analysis")
		a.enforce(&an, message, snap)
		return an, nil
	}

	a.store.Set(key, an, a.ttl)
	a.enforce(&an, message, snap)

	a.logger.Info().
		Str("event", "turn_analyzed").
		Str("owner", owner).
		Str("intent", an.Intent).
		Bool("in_scope", an.InScope).
		Bool("needs_more_info", an.NeedsMoreInfo).
		Int("tool_count", len(an.Capabilities)).
		Msg("analysis complete")
	return an, nil
}

// cacheKey collapses identical situations: same owner, same normalized
// message, same capability set, same conversation posture.
func (a *Analyzer) cacheKey(owner, message string, snap transcript.Snapshot) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(message)), " ")
	return cache.Key(cache.NamespaceAnalysis,
		owner,
		normalized,
		cache.Fingerprint(a.registry.Names()),
		string(snap.PendingAction),
		fmt.Sprintf("%t/%t/%t", snap.EscalationOffered, snap.EscalationConfirmed, snap.TicketCreated),
	)
}

// enforce applies the hard invariants the model is asked, but never trusted,
// to uphold. It runs on fresh and cached analyses alike.
func (a *Analyzer) enforce(an *Analysis, message string, snap transcript.Snapshot) {
	confirmed := snap.EscalationConfirmed || a.extractor.ExplicitConfirmation(message)
	an.EscalationAlreadyConfirmed = confirmed

	if !an.InScope {
		an.Capabilities = nil
		an.NeedsMoreInfo = false
		an.MissingInfo = nil
		return
	}

	// Missing info is required slots minus collected minus refused. A
	// refused required slot flips the turn to cannot_proceed instead of
	// asking again.
	var missing []string
	for _, slot := range an.MissingInfo {
		if snap.CollectedInfo[slot] != "" {
			continue
		}
		if snap.InfoRefused[slot] {
			an.UserRefusedInfo = true
			an.RefusedInfoType = slot
			an.CannotProceed = true
			continue
		}
		missing = append(missing, slot)
	}
	an.MissingInfo = missing
	an.NeedsMoreInfo = an.NeedsMoreInfo && len(an.MissingInfo) > 0

	if an.CannotProceed || an.NeedsMoreInfo {
		an.Capabilities = nil
	}

	// Escalation has real-world side effects. Without an explicit
	// confirmation the capability is stripped no matter what the model
	// decided, urgency and fraud risk included.
	if !confirmed {
		kept := make([]tools.Call, 0, len(an.Capabilities))
		for _, call := range an.Capabilities {
			if call.Tool == tools.ToolCreateTicket {
				continue
			}
			kept = append(kept, call)
		}
		an.Capabilities = kept
	}
}

func lastN(msgs []transcript.Message, n int) []transcript.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
