package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Classifier providers.
const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// Config holds application configuration.
type Config struct {
	// OllamaEndpoint is the base URL of the local Ollama server used for
	// embeddings (and for classification when ClassifierProvider is "ollama").
	OllamaEndpoint string `json:"ollama_endpoint,omitempty"`

	// EmbedModel is the Ollama embedding model name.
	EmbedModel string `json:"embed_model,omitempty"`

	// ClassifierProvider selects the semantic classifier backend:
	// "ollama" (local) or "anthropic".
	ClassifierProvider string `json:"classifier_provider,omitempty"`

	// ClassifierModel is the model name passed to the classifier backend.
	ClassifierModel string `json:"classifier_model,omitempty"`

	// AnthropicAPIKey authenticates the Anthropic backend.
	// Falls back to the ANTHROPIC_API_KEY environment variable when empty.
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty"`

	// EmbedTimeoutSecs bounds a single embedding provider call.
	EmbedTimeoutSecs int `json:"embed_timeout_secs,omitempty"`

	// ClassifyTimeoutSecs bounds a single semantic classifier call.
	ClassifyTimeoutSecs int `json:"classify_timeout_secs,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OllamaEndpoint:      "http://localhost:11434",
		EmbedModel:          "nomic-embed-text",
		ClassifierProvider:  ProviderOllama,
		ClassifierModel:     "llama3.1",
		EmbedTimeoutSecs:    30,
		ClassifyTimeoutSecs: 60,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.sift.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// ResolveAnthropicKey returns the configured API key, falling back to
// the ANTHROPIC_API_KEY environment variable.
func (c *Config) ResolveAnthropicKey() string {
	if c.AnthropicAPIKey != "" {
		return c.AnthropicAPIKey
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.OllamaEndpoint = stringOr(overlay.OllamaEndpoint, base.OllamaEndpoint)
	result.EmbedModel = stringOr(overlay.EmbedModel, base.EmbedModel)
	result.ClassifierProvider = stringOr(overlay.ClassifierProvider, base.ClassifierProvider)
	result.ClassifierModel = stringOr(overlay.ClassifierModel, base.ClassifierModel)
	result.AnthropicAPIKey = stringOr(overlay.AnthropicAPIKey, base.AnthropicAPIKey)

	result.EmbedTimeoutSecs = intOr(overlay.EmbedTimeoutSecs, base.EmbedTimeoutSecs)
	result.ClassifyTimeoutSecs = intOr(overlay.ClassifyTimeoutSecs, base.ClassifyTimeoutSecs)
	result.DBMaxOpenConns = intOr(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = intOr(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func stringOr(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func intOr(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
