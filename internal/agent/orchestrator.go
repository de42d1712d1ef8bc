package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Malikxolo/Customer-Support-agent/internal/cache"
	"github.com/Malikxolo/Customer-Support-agent/internal/confirm"
	"github.com/Malikxolo/Customer-Support-agent/internal/history"
	"github.com/Malikxolo/Customer-Support-agent/internal/llm"
	"github.com/Malikxolo/Customer-Support-agent/internal/tools"
	"github.com/Malikxolo/Customer-Support-agent/internal/transcript"
)

// TurnRequest is one customer message plus the transcript preceding it.
type TurnRequest struct {
	Owner      string               `json:"conversation_id"`
	Message    string               `json:"message"`
	Transcript []transcript.Message `json:"transcript,omitempty"`
}

// TurnResponse is everything a turn produced.
type TurnResponse struct {
	TurnID      string                  `json:"turn_id"`
	Reply       string                  `json:"reply"`
	Language    string                  `json:"language"`
	Failed      bool                    `json:"failed,omitempty"`
	Analysis    Analysis                `json:"analysis"`
	Snapshot    transcript.Snapshot     `json:"snapshot"`
	ToolResults map[string]tools.Result `json:"tool_results,omitempty"`
}

// Recorder persists turn outcomes. Writes happen on the background worker
// and must never gate the reply.
type Recorder interface {
	RecordTurn(ctx context.Context, turn history.Turn) error
}

// Orchestrator sequences one turn: extract state, analyze, dispatch
// capabilities, compose, and emit background work.
type Orchestrator struct {
	extractor  *transcript.Extractor
	analyzer   *Analyzer
	dispatcher *tools.Dispatcher
	composer   *Composer
	confirms   *confirm.Store
	store      *cache.Store
	worker     *Worker
	recorder   Recorder
	logger     zerolog.Logger

	langProvider llm.Provider
	langModel    string

	toolResultsTTL time.Duration
	toolDataTTL    time.Duration
}

// OrchestratorParams collects the orchestrator's collaborators.
type OrchestratorParams struct {
	Extractor  *transcript.Extractor
	Analyzer   *Analyzer
	Dispatcher *tools.Dispatcher
	Composer   *Composer
	Confirms   *confirm.Store
	Store      *cache.Store
	Worker     *Worker
	Recorder   Recorder
	Logger     zerolog.Logger

	LangProvider llm.Provider
	LangModel    string

	ToolResultsTTL time.Duration
	ToolDataTTL    time.Duration
}

// NewOrchestrator wires a turn pipeline.
func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	if p.ToolResultsTTL <= 0 {
		p.ToolResultsTTL = cache.DefaultToolResultsTTL
	}
	if p.ToolDataTTL <= 0 {
		p.ToolDataTTL = cache.DefaultToolDataTTL
	}
	return &Orchestrator{
		extractor:      p.Extractor,
		analyzer:       p.Analyzer,
		dispatcher:     p.Dispatcher,
		composer:       p.Composer,
		confirms:       p.Confirms,
		store:          p.Store,
		worker:         p.Worker,
		recorder:       p.Recorder,
		logger:         p.Logger,
		langProvider:   p.LangProvider,
		langModel:      p.LangModel,
		toolResultsTTL: p.ToolResultsTTL,
		toolDataTTL:    p.ToolDataTTL,
	}
}

// ProcessTurn runs the full pipeline. It always returns a response: any
// failure, panic included, degrades to a uniform apology in the customer's
// language. No state survives a failed turn beyond the transcript itself.
//
// A confirmation turn normally skips analysis, but if the pending proposal
// vanishes between the peek and the resolve (expiry or a concurrent cancel)
// the turn falls through to normal analysis and spends the analysis call.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) (resp *TurnResponse) {
	turnID := uuid.NewString()
	started := time.Now()

	ctx, span := tracer.Start(ctx, "agent.process_turn",
		trace.WithAttributes(attribute.String("turn.id", turnID)))
	defer span.End()

	snap := transcript.NewSnapshot()
	lang := "en"

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("event", "turn_panic").
				Str("turn_id", turnID).
				Interface("panic", r).
				Msg("turn pipeline panicked")
			resp = o.failTurn(turnID, lang, snap)
		}
		o.logger.Info().
			Str("event", "turn_complete").
			Str("turn_id", turnID).
			Str("owner", req.Owner).
			Bool("failed", resp.Failed).
			Dur("duration", time.Since(started)).
			Msg("turn processed")
	}()

	snap = o.extractor.Extract(req.Transcript)
	lang = o.detectLanguage(ctx, req.Message)

	// A pending proposal plus an explicit "yes" executes the proposed
	// action directly; no analysis call is spent on it.
	if _, pending := o.confirms.Pending(req.Owner); pending && o.extractor.ExplicitConfirmation(req.Message) {
		if done := o.executeConfirmed(ctx, turnID, req, snap, lang); done != nil {
			return done
		}
	}

	analysis, err := o.analyzer.Analyze(ctx, req.Owner, req.Message, snap, req.Transcript)
	if err != nil {
		o.logger.Error().Str("event", "turn_analysis_failed").Str("turn_id", turnID).Err(err).Msg("reasoning collaborator unreachable")
		return o.failTurn(turnID, lang, snap)
	}

	var results map[string]tools.Result
	if !analysis.NeedsMoreInfo && len(analysis.Capabilities) > 0 {
		results = o.dispatch(ctx, req.Owner, analysis.Capabilities)
	}

	composeView := analysis
	if missing := MissingFromResults(results); len(missing) > 0 {
		composeView.NeedsMoreInfo = true
		composeView.MissingInfo = append(append([]string(nil), composeView.MissingInfo...), missing...)
	}

	// A sensitive issue with no prior offer files a proposal and has the
	// composer ask; the action itself waits for the customer's confirmation.
	if analysis.InScope && snap.PendingAction == transcript.PendingOfferEscalation && !analysis.EscalationAlreadyConfirmed {
		o.proposeEscalation(req.Owner, snap)
		composeView.OfferEscalation = true
	}

	reply, err := o.composer.Compose(ctx, req.Message, composeView, snap, FormatToolResults(results), lang)
	if err != nil {
		o.logger.Error().Str("event", "turn_compose_failed").Str("turn_id", turnID).Err(err).Msg("reasoning collaborator unreachable")
		return o.failTurn(turnID, lang, snap)
	}

	resp = &TurnResponse{
		TurnID:      turnID,
		Reply:       reply,
		Language:    lang,
		Analysis:    analysis,
		Snapshot:    snap,
		ToolResults: results,
	}
	o.recordTurn(req, resp)
	return resp
}

// executeConfirmed consumes the owner's proposal and runs it. Returns nil
// when the proposal vanished between the peek and the resolve, in which case
// the turn falls through to normal analysis.
func (o *Orchestrator) executeConfirmed(ctx context.Context, turnID string, req TurnRequest, snap transcript.Snapshot, lang string) *TurnResponse {
	proposal, err := o.confirms.ResolveForOwner(req.Owner)
	if err != nil {
		o.logger.Debug().Str("event", "confirm_resolve_miss").Str("owner", req.Owner).Err(err).Msg("no live proposal to execute")
		return nil
	}

	o.logger.Info().
		Str("event", "confirmed_action_executed").
		Str("owner", req.Owner).
		Str("action", proposal.Action.Kind).
		Msg("running confirmed action")

	results := o.dispatcher.Dispatch(ctx, []tools.Call{{Tool: proposal.Action.Kind, Params: proposal.Action.Params}})

	analysis := Analysis{
		InScope:                    true,
		Intent:                     "confirm_action",
		Sentiment:                  "neutral",
		Urgency:                    "normal",
		EscalationAlreadyConfirmed: true,
	}
	snap.EscalationConfirmed = true

	reply, err := o.composer.Compose(ctx, req.Message, analysis, snap, FormatToolResults(results), lang)
	if err != nil {
		o.logger.Error().Str("event", "turn_compose_failed").Str("turn_id", turnID).Err(err).Msg("reasoning collaborator unreachable")
		return o.failTurn(turnID, lang, snap)
	}

	resp := &TurnResponse{
		TurnID:      turnID,
		Reply:       reply,
		Language:    lang,
		Analysis:    analysis,
		Snapshot:    snap,
		ToolResults: results,
	}
	o.recordTurn(req, resp)
	return resp
}

// dispatch runs the capability fan-out, reusing a previous identical set of
// invocations when all of them succeeded.
func (o *Orchestrator) dispatch(ctx context.Context, owner string, calls []tools.Call) map[string]tools.Result {
	items := make([]string, len(calls))
	for i, call := range calls {
		items[i] = call.Fingerprint()
	}
	key := cache.Key(cache.NamespaceToolResults, owner, cache.Fingerprint(items))

	if v, ok := o.store.Get(key); ok {
		if cached, isMap := v.(map[string]tools.Result); isMap {
			o.logger.Debug().Str("event", "tool_results_cache_hit").Str("owner", owner).Msg("reusing cached tool results")
			return cached
		}
	}

	results := o.dispatcher.Dispatch(ctx, calls)
	if allSucceeded(results) {
		o.store.Set(key, results, o.toolResultsTTL)
		// Formatted payloads keep a longer horizon for follow-up questions.
		o.store.Set(cache.Key(cache.NamespaceToolData, owner, cache.Fingerprint(items)), FormatToolResults(results), o.toolDataTTL)
	}
	return results
}

func allSucceeded(results map[string]tools.Result) bool {
	for _, res := range results {
		if !res.Success {
			return false
		}
	}
	return len(results) > 0
}

func (o *Orchestrator) proposeEscalation(owner string, snap transcript.Snapshot) {
	params := map[string]any{
		"issue": snap.CollectedInfo[transcript.SlotIssueType],
	}
	if orderID := snap.CollectedInfo[transcript.SlotOrderID]; orderID != "" {
		params["order_id"] = orderID
	}
	proposal := o.confirms.Propose(owner, confirm.Action{
		Kind:    tools.ToolCreateTicket,
		Params:  params,
		Summary: "raise a support ticket for a human agent",
	})
	o.logger.Info().
		Str("event", "escalation_proposed").
		Str("owner", owner).
		Str("token", proposal.Token).
		Msg("awaiting customer confirmation")
}

func (o *Orchestrator) failTurn(turnID, lang string, snap transcript.Snapshot) *TurnResponse {
	return &TurnResponse{
		TurnID:   turnID,
		Reply:    localizedFailure(lang),
		Language: lang,
		Failed:   true,
		Snapshot: snap,
	}
}

func (o *Orchestrator) detectLanguage(ctx context.Context, message string) string {
	if o.langProvider == nil {
		return "en"
	}
	return DetectLanguage(ctx, o.langProvider, o.langModel, message)
}

// recordTurn hands persistence to the background worker.
func (o *Orchestrator) recordTurn(req TurnRequest, resp *TurnResponse) {
	if o.recorder == nil || o.worker == nil {
		return
	}
	turn := history.Turn{
		TurnID:    resp.TurnID,
		Owner:     req.Owner,
		Message:   req.Message,
		Reply:     resp.Reply,
		Intent:    resp.Analysis.Intent,
		Sentiment: resp.Analysis.Sentiment,
		Language:  resp.Language,
		ToolCount: len(resp.ToolResults),
		Failed:    resp.Failed,
		CreatedAt: time.Now().UTC(),
	}
	o.worker.Enqueue(func(ctx context.Context) {
		if err := o.recorder.RecordTurn(ctx, turn); err != nil {
			o.logger.Warn().Str("event", "history_write_failed").Str("turn_id", turn.TurnID).Err(err).Msg("turn log write failed")
		}
	})
}
