package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DataDir:        "/tmp/support-agent",
		Brain:          ModelConfig{Provider: "openrouter", Model: "brain-model"},
		Heart:          ModelConfig{Provider: "openrouter", Model: "heart-model"},
		AnalysisTTL:    time.Hour,
		ToolResultsTTL: time.Hour,
		ToolDataTTL:    2 * time.Hour,
		ConfirmTTL:     10 * time.Minute,
		GlobalRPM:      600,
		PerOwnerRPM:    60,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, validConfig().validate())
}

func TestValidateRejectsMissingModels(t *testing.T) {
	cfg := validConfig()
	cfg.Brain.Model = ""
	assert.ErrorContains(t, cfg.validate(), "brain_model")

	cfg = validConfig()
	cfg.Heart.Model = ""
	assert.ErrorContains(t, cfg.validate(), "heart_model")
}

func TestValidateRejectsBadTTLs(t *testing.T) {
	cfg := validConfig()
	cfg.ToolDataTTL = 0
	assert.ErrorContains(t, cfg.validate(), "TTLs")

	cfg = validConfig()
	cfg.ConfirmTTL = -time.Second
	assert.ErrorContains(t, cfg.validate(), "confirm_ttl")
}

func TestValidateRejectsBadRateLimits(t *testing.T) {
	cfg := validConfig()
	cfg.PerOwnerRPM = 0
	assert.ErrorContains(t, cfg.validate(), "rate limits")
}

func TestHistoryDBPath(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, filepath.Join("/tmp/support-agent", "history.db"), cfg.HistoryDBPath())
}

func TestEnsureDataDir(t *testing.T) {
	cfg := validConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "nested", "state")
	require.NoError(t, cfg.EnsureDataDir())
	require.NoError(t, cfg.EnsureDataDir())
}
