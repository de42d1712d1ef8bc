package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malikxolo/Customer-Support-agent/internal/cache"
	"github.com/Malikxolo/Customer-Support-agent/internal/confirm"
	"github.com/Malikxolo/Customer-Support-agent/internal/history"
	"github.com/Malikxolo/Customer-Support-agent/internal/llm"
	"github.com/Malikxolo/Customer-Support-agent/internal/testutil"
	"github.com/Malikxolo/Customer-Support-agent/internal/tools"
	"github.com/Malikxolo/Customer-Support-agent/internal/transcript"
)

type memoryRecorder struct {
	mu    sync.Mutex
	turns []history.Turn
}

func (r *memoryRecorder) RecordTurn(_ context.Context, turn history.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, turn)
	return nil
}

func (r *memoryRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.turns)
}

type orchestratorFixture struct {
	orch     *Orchestrator
	confirms *confirm.Store
	worker   *Worker
	recorder *memoryRecorder
	tickets  *tools.CreateTicketTool
}

func newFixture(t *testing.T, provider llm.Provider) *orchestratorFixture {
	t.Helper()

	reg := tools.NewRegistry()
	reg.MustRegister(tools.NewOrderStatusTool(tools.OrderRecord{OrderID: "ORD-1", Status: "shipped", Item: "kettle"}))
	tickets := tools.NewCreateTicketTool()
	reg.MustRegister(tickets)

	extractor := transcript.Default()
	store := cache.New()
	confirms := confirm.NewStore(store, 10*time.Minute)
	worker := NewWorker(16, zerolog.Nop())
	worker.Start(context.Background())
	t.Cleanup(worker.Shutdown)
	recorder := &memoryRecorder{}

	orch := NewOrchestrator(OrchestratorParams{
		Extractor:  extractor,
		Analyzer:   NewAnalyzer(provider, "brain-model", reg, extractor, store, time.Hour, zerolog.Nop()),
		Dispatcher: tools.NewDispatcher(reg, zerolog.Nop()),
		Composer:   NewComposer(provider, "heart-model", zerolog.Nop()),
		Confirms:   confirms,
		Store:      store,
		Worker:     worker,
		Recorder:   recorder,
		Logger:     zerolog.Nop(),
	})

	return &orchestratorFixture{orch: orch, confirms: confirms, worker: worker, recorder: recorder, tickets: tickets}
}

const happyAnalysis = `{
	"in_scope": true, "intent": "order_status", "sentiment": "neutral", "urgency": "normal",
	"needs_more_info": false,
	"tools_to_use": [{"tool": "order_status", "parameters": {"order_id": "ORD-1"}}]
}`

func TestProcessTurnHappyPath(t *testing.T) {
	provider := testutil.NewMockProvider(happyAnalysis, "Your kettle shipped and is on its way!")
	f := newFixture(t, provider)

	resp := f.orch.ProcessTurn(context.Background(), TurnRequest{
		Owner:   "conv-1",
		Message: "Where is my order ORD-1?",
	})

	assert.False(t, resp.Failed)
	assert.Equal(t, "Your kettle shipped and is on its way!", resp.Reply)
	assert.Equal(t, "en", resp.Language)
	require.Contains(t, resp.ToolResults, "order_status_0")
	assert.True(t, resp.ToolResults["order_status_0"].Success)
	// One analysis call, one compose call.
	assert.Equal(t, 2, provider.Calls())
}

func TestProcessTurnAnalysisTransportFailure(t *testing.T) {
	provider := testutil.NewFailingProvider(errors.New("connection refused"))
	f := newFixture(t, provider)

	resp := f.orch.ProcessTurn(context.Background(), TurnRequest{Owner: "conv-1", Message: "help"})

	assert.True(t, resp.Failed)
	assert.Equal(t, failureReply, resp.Reply)
	assert.Empty(t, resp.ToolResults)
}

func TestProcessTurnNeedsMoreInfoSkipsDispatch(t *testing.T) {
	provider := testutil.NewMockProvider(`{
		"in_scope": true, "intent": "order_status", "sentiment": "neutral", "urgency": "normal",
		"needs_more_info": true, "missing_info": ["order_id"]
	}`, "Could you share your order id?")
	f := newFixture(t, provider)

	resp := f.orch.ProcessTurn(context.Background(), TurnRequest{Owner: "conv-1", Message: "where is my stuff"})

	assert.False(t, resp.Failed)
	assert.Empty(t, resp.ToolResults)
	assert.True(t, resp.Analysis.NeedsMoreInfo)
}

func TestProcessTurnProposesEscalation(t *testing.T) {
	provider := testutil.NewMockProvider(`{
		"in_scope": true, "intent": "damage_report", "sentiment": "frustrated", "urgency": "high",
		"deescalation_needed": true, "needs_more_info": false
	}`, "I'm so sorry about the damage. Would you like me to connect you with a human agent?")
	f := newFixture(t, provider)

	resp := f.orch.ProcessTurn(context.Background(), TurnRequest{
		Owner:   "conv-1",
		Message: "My order ORD-1 arrived broken!",
		Transcript: []transcript.Message{
			{Role: transcript.RoleUser, Content: "My order ORD-1 arrived broken!"},
		},
	})

	assert.False(t, resp.Failed)
	proposal, ok := f.confirms.Pending("conv-1")
	require.True(t, ok)
	assert.Equal(t, tools.ToolCreateTicket, proposal.Action.Kind)
	assert.Equal(t, "damage", proposal.Action.Params["issue"])
	assert.Empty(t, f.tickets.Tickets())
}

func TestProcessTurnConfirmationExecutesProposal(t *testing.T) {
	provider := testutil.NewMockProvider("Done! Ticket raised, a human agent will reach out shortly.")
	f := newFixture(t, provider)

	f.confirms.Propose("conv-1", confirm.Action{
		Kind:   tools.ToolCreateTicket,
		Params: map[string]any{"issue": "damage", "order_id": "ORD-1"},
	})

	resp := f.orch.ProcessTurn(context.Background(), TurnRequest{
		Owner:   "conv-1",
		Message: "yes please",
		Transcript: []transcript.Message{
			{Role: transcript.RoleUser, Content: "My order ORD-1 arrived broken!"},
			{Role: transcript.RoleAssistant, Content: "Would you like me to connect you with a human agent?"},
		},
	})

	assert.False(t, resp.Failed)
	require.Contains(t, resp.ToolResults, "create_ticket_0")
	assert.True(t, resp.ToolResults["create_ticket_0"].Success)
	require.Len(t, f.tickets.Tickets(), 1)
	assert.Equal(t, "ORD-1", f.tickets.Tickets()[0].OrderID)

	// Proposal consumed, only the compose call was spent.
	_, ok := f.confirms.Pending("conv-1")
	assert.False(t, ok)
	assert.Equal(t, 1, provider.Calls())
}

type panickingProvider struct{}

func (panickingProvider) Name() string { return "panicking" }

func (panickingProvider) Generate(context.Context, *llm.Request) (*llm.Response, error) {
	panic("language probe exploded")
}

// A panic before analysis, here in the language probe, must still degrade to
// the uniform failure reply instead of escaping ProcessTurn.
func TestProcessTurnEarlyPanicDegradesToFailureReply(t *testing.T) {
	provider := testutil.NewMockProvider(happyAnalysis, "unused")
	f := newFixture(t, provider)
	f.orch.langProvider = panickingProvider{}
	f.orch.langModel = "lang-model"

	resp := f.orch.ProcessTurn(context.Background(), TurnRequest{
		Owner:   "conv-1",
		Message: "¿Dónde está mi pedido?",
	})

	require.NotNil(t, resp)
	assert.True(t, resp.Failed)
	assert.Equal(t, failureReply, resp.Reply)
	assert.Equal(t, 0, provider.Calls())
}

func TestProcessTurnRecordsHistory(t *testing.T) {
	provider := testutil.NewMockProvider(happyAnalysis, "On its way!")
	f := newFixture(t, provider)

	f.orch.ProcessTurn(context.Background(), TurnRequest{Owner: "conv-1", Message: "Where is my order ORD-1?"})
	f.worker.Shutdown()

	assert.Equal(t, 1, f.recorder.count())
}

func TestProcessTurnToolResultCacheReused(t *testing.T) {
	provider := testutil.NewMockProvider(happyAnalysis, "On its way!", "Still on its way!")
	f := newFixture(t, provider)

	req := TurnRequest{Owner: "conv-1", Message: "Where is my order ORD-1?"}
	first := f.orch.ProcessTurn(context.Background(), req)
	second := f.orch.ProcessTurn(context.Background(), req)

	assert.False(t, first.Failed)
	assert.False(t, second.Failed)
	// Analysis cached after the first turn, tools served from cache,
	// so only the compose call repeats.
	assert.Equal(t, 3, provider.Calls())
	assert.Equal(t, first.ToolResults, second.ToolResults)
}
