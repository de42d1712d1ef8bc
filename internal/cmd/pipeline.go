package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Malikxolo/Customer-Support-agent/internal/agent"
	"github.com/Malikxolo/Customer-Support-agent/internal/cache"
	"github.com/Malikxolo/Customer-Support-agent/internal/config"
	"github.com/Malikxolo/Customer-Support-agent/internal/confirm"
	"github.com/Malikxolo/Customer-Support-agent/internal/history"
	"github.com/Malikxolo/Customer-Support-agent/internal/llm"
	"github.com/Malikxolo/Customer-Support-agent/internal/queryagent"
	"github.com/Malikxolo/Customer-Support-agent/internal/tools"
	"github.com/Malikxolo/Customer-Support-agent/internal/transcript"
)

// pipeline bundles everything a running process needs.
type pipeline struct {
	orchestrator *agent.Orchestrator
	store        *cache.Store
	confirms     *confirm.Store
	historyStore *history.Store
	worker       *agent.Worker
}

// buildPipeline wires the turn pipeline from config. The brain model runs
// analysis and database selection; the heart model writes replies and
// detects language.
func buildPipeline(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pipeline, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	brain := llm.NewFromConfig(cfg.Brain, cfg.OllamaBaseURL)
	heart := llm.NewFromConfig(cfg.Heart, cfg.OllamaBaseURL)

	registry := tools.NewRegistry()
	registry.MustRegister(tools.NewOrderStatusTool(demoOrders()...))
	registry.MustRegister(tools.NewFAQSearchTool(demoFAQ()...))
	registry.MustRegister(tools.NewCreateTicketTool())
	registry.MustRegister(queryagent.New(brain, cfg.Brain.Model, logger, demoDatabases()...))

	extractor := transcript.Default()
	store := cache.New()
	confirms := confirm.NewStore(store, cfg.ConfirmTTL)

	historyStore, err := history.NewStore(cfg.HistoryDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}

	worker := agent.NewWorker(128, logger)
	worker.Start(ctx)

	orchestrator := agent.NewOrchestrator(agent.OrchestratorParams{
		Extractor:      extractor,
		Analyzer:       agent.NewAnalyzer(brain, cfg.Brain.Model, registry, extractor, store, cfg.AnalysisTTL, logger),
		Dispatcher:     tools.NewDispatcher(registry, logger),
		Composer:       agent.NewComposer(heart, cfg.Heart.Model, logger),
		Confirms:       confirms,
		Store:          store,
		Worker:         worker,
		Recorder:       historyStore,
		Logger:         logger,
		LangProvider:   heart,
		LangModel:      cfg.Heart.Model,
		ToolResultsTTL: cfg.ToolResultsTTL,
		ToolDataTTL:    cfg.ToolDataTTL,
	})

	return &pipeline{
		orchestrator: orchestrator,
		store:        store,
		confirms:     confirms,
		historyStore: historyStore,
		worker:       worker,
	}, nil
}

// close flushes background work and releases storage.
func (p *pipeline) close() {
	p.worker.Shutdown()
	_ = p.historyStore.Close()
}

// Demo backends stand in for the real order and knowledge-base systems.

func demoOrders() []tools.OrderRecord {
	return []tools.OrderRecord{
		{OrderID: "ORD-1001", Status: "shipped", Item: "electric kettle", ETA: "2 days", Carrier: "BlueDart", Tracking: "BD123456789"},
		{OrderID: "ORD-1002", Status: "processing", Item: "running shoes", ETA: "5 days"},
		{OrderID: "ORD-1003", Status: "delivered", Item: "phone case"},
	}
}

func demoFAQ() []tools.FAQEntry {
	return []tools.FAQEntry{
		{Question: "What is the return window?", Answer: "Items can be returned within 30 days of delivery.", Keywords: []string{"return", "refund"}},
		{Question: "How long does shipping take?", Answer: "Standard shipping takes 3-5 business days.", Keywords: []string{"shipping", "delivery"}},
		{Question: "How do I cancel an order?", Answer: "Orders can be cancelled any time before they ship.", Keywords: []string{"cancel"}},
	}
}

func demoDatabases() []queryagent.Database {
	return []queryagent.Database{
		{
			Name:        "orders",
			Description: "customer orders and their fulfilment status",
			Fields:      []string{"order_id", "status", "item"},
			Rows: []map[string]any{
				{"order_id": "ORD-1001", "status": "shipped", "item": "electric kettle"},
				{"order_id": "ORD-1002", "status": "processing", "item": "running shoes"},
				{"order_id": "ORD-1003", "status": "delivered", "item": "phone case"},
			},
		},
		{
			Name:        "products",
			Description: "product catalog with stock levels",
			Fields:      []string{"sku", "name", "in_stock"},
			Rows: []map[string]any{
				{"sku": "KET-01", "name": "electric kettle", "in_stock": true},
				{"sku": "SHO-02", "name": "running shoes", "in_stock": false},
			},
		},
	}
}
