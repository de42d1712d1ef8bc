// Package config holds OPERATOR-LEVEL configuration for a support-agent
// installation.
//
// This is infrastructure config set by whoever deploys the process, NOT
// per-conversation state (which is always rebuilt from the transcript).
// Values are read via env vars (SUPPORT_*) or a config file
// (support.config.yaml). The two reasoning models are configured
// separately: the "brain" model runs turn analysis, the "heart" model
// writes the customer-facing reply.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the SUPPORT_ prefix
// (e.g. "brain_model" → SUPPORT_BRAIN_MODEL) and to a YAML field
// in support.config.yaml.
const (
	KeyDataDir = "data_dir"

	KeyBrainProvider = "brain_provider"
	KeyBrainModel    = "brain_model"
	KeyBrainAPIKey   = "brain_api_key"

	KeyHeartProvider = "heart_provider"
	KeyHeartModel    = "heart_model"
	KeyHeartAPIKey   = "heart_api_key"

	KeyOllamaBaseURL = "ollama_base_url"

	KeyCacheAnalysisTTL    = "cache_analysis_ttl"
	KeyCacheToolResultsTTL = "cache_tool_results_ttl"
	KeyCacheToolDataTTL    = "cache_tool_data_ttl"
	KeyConfirmTTL          = "confirm_ttl"

	KeyHistoryRetentionDays = "history_retention_days"

	KeyListenAddr   = "listen_addr"
	KeyGlobalRPM    = "global_rpm"
	KeyPerOwnerRPM  = "per_owner_rpm"
	KeyAPIKeys      = "api_keys"
	KeyHistoryTurns = "history_max_turns"
)

// Defaults. Cache TTLs follow the original deployment: analysis and raw
// tool results live one hour, formatted tool data two hours. Pending
// confirmations are short-lived by design.
const (
	DefaultBrainProvider = "openrouter"
	DefaultBrainModel    = "qwen/qwen3-235b-a22b-thinking-2507"
	DefaultHeartProvider = "openrouter"
	DefaultHeartModel    = "meta-llama/llama-4-maverick"
	DefaultOllamaURL     = "http://localhost:11434"

	DefaultAnalysisTTL    = time.Hour
	DefaultToolResultsTTL = time.Hour
	DefaultToolDataTTL    = 2 * time.Hour
	DefaultConfirmTTL     = 10 * time.Minute

	DefaultRetentionDays = 30
	DefaultListenAddr    = ":8080"
	DefaultGlobalRPM     = 600
	DefaultPerOwnerRPM   = 60
)

// ModelConfig identifies one reasoning collaborator.
type ModelConfig struct {
	Provider string // "openai", "openrouter", "groq", "deepseek", "ollama"
	Model    string
	APIKey   string
}

// Config holds resolved operator-level configuration for a process.
type Config struct {
	DataDir string // base directory for local state (~/.support-agent)

	Brain ModelConfig // analysis model
	Heart ModelConfig // response model

	OllamaBaseURL string

	AnalysisTTL    time.Duration
	ToolResultsTTL time.Duration
	ToolDataTTL    time.Duration
	ConfirmTTL     time.Duration

	HistoryRetentionDays int

	ListenAddr  string
	GlobalRPM   int
	PerOwnerRPM int
	APIKeys     map[string]string // api key -> owner/caller name
}

// HistoryDBPath returns the full path to the turn-history SQLite database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}

func init() {
	viper.SetEnvPrefix("SUPPORT")
	viper.AutomaticEnv()
	viper.SetDefault(KeyBrainProvider, DefaultBrainProvider)
	viper.SetDefault(KeyBrainModel, DefaultBrainModel)
	viper.SetDefault(KeyHeartProvider, DefaultHeartProvider)
	viper.SetDefault(KeyHeartModel, DefaultHeartModel)
	viper.SetDefault(KeyOllamaBaseURL, DefaultOllamaURL)
	viper.SetDefault(KeyCacheAnalysisTTL, DefaultAnalysisTTL)
	viper.SetDefault(KeyCacheToolResultsTTL, DefaultToolResultsTTL)
	viper.SetDefault(KeyCacheToolDataTTL, DefaultToolDataTTL)
	viper.SetDefault(KeyConfirmTTL, DefaultConfirmTTL)
	viper.SetDefault(KeyHistoryRetentionDays, DefaultRetentionDays)
	viper.SetDefault(KeyListenAddr, DefaultListenAddr)
	viper.SetDefault(KeyGlobalRPM, DefaultGlobalRPM)
	viper.SetDefault(KeyPerOwnerRPM, DefaultPerOwnerRPM)
}

// Load reads configuration from Viper (which merges env vars, config
// file, and defaults) and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir: resolveDataDir(),
		Brain: ModelConfig{
			Provider: viper.GetString(KeyBrainProvider),
			Model:    viper.GetString(KeyBrainModel),
			APIKey:   viper.GetString(KeyBrainAPIKey),
		},
		Heart: ModelConfig{
			Provider: viper.GetString(KeyHeartProvider),
			Model:    viper.GetString(KeyHeartModel),
			APIKey:   viper.GetString(KeyHeartAPIKey),
		},
		OllamaBaseURL:        viper.GetString(KeyOllamaBaseURL),
		AnalysisTTL:          viper.GetDuration(KeyCacheAnalysisTTL),
		ToolResultsTTL:       viper.GetDuration(KeyCacheToolResultsTTL),
		ToolDataTTL:          viper.GetDuration(KeyCacheToolDataTTL),
		ConfirmTTL:           viper.GetDuration(KeyConfirmTTL),
		HistoryRetentionDays: viper.GetInt(KeyHistoryRetentionDays),
		ListenAddr:           viper.GetString(KeyListenAddr),
		GlobalRPM:            viper.GetInt(KeyGlobalRPM),
		PerOwnerRPM:          viper.GetInt(KeyPerOwnerRPM),
		APIKeys:              viper.GetStringMapString(KeyAPIKeys),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func resolveDataDir() string {
	if dir := viper.GetString(KeyDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".support-agent"
	}
	return filepath.Join(home, ".support-agent")
}

func (c *Config) validate() error {
	if c.Brain.Model == "" {
		return fmt.Errorf("brain_model must be set")
	}
	if c.Heart.Model == "" {
		return fmt.Errorf("heart_model must be set")
	}
	if c.AnalysisTTL <= 0 || c.ToolResultsTTL <= 0 || c.ToolDataTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.ConfirmTTL <= 0 {
		return fmt.Errorf("confirm_ttl must be positive")
	}
	if c.GlobalRPM <= 0 || c.PerOwnerRPM <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}
