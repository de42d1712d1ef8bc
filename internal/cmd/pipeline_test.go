package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malikxolo/Customer-Support-agent/internal/config"
	"github.com/Malikxolo/Customer-Support-agent/internal/tools"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:        t.TempDir(),
		Brain:          config.ModelConfig{Provider: "openrouter", Model: "brain-model"},
		Heart:          config.ModelConfig{Provider: "openrouter", Model: "heart-model"},
		OllamaBaseURL:  config.DefaultOllamaURL,
		AnalysisTTL:    time.Hour,
		ToolResultsTTL: time.Hour,
		ToolDataTTL:    2 * time.Hour,
		ConfirmTTL:     10 * time.Minute,
		GlobalRPM:      600,
		PerOwnerRPM:    60,
	}
}

func TestBuildPipelineWiresComponents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := buildPipeline(ctx, testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer p.close()

	require.NotNil(t, p.orchestrator)
	require.NotNil(t, p.store)
	require.NotNil(t, p.confirms)
	require.NotNil(t, p.historyStore)
	require.NotNil(t, p.worker)
}

func TestDemoBackends(t *testing.T) {
	orderTool := tools.NewOrderStatusTool(demoOrders()...)
	res, err := orderTool.Execute(context.Background(), map[string]any{"order_id": "ord-1001"})
	require.NoError(t, err)
	assert.NotNil(t, res)

	assert.NotEmpty(t, demoFAQ())
	assert.NotEmpty(t, demoDatabases())
}
