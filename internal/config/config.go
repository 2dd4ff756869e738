// Package config provides configuration management for Reverie.
// Settings are loaded from environment variables with the REVERIE_ prefix,
// with sensible defaults for a local single-user setup.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all configuration settings for the Reverie application.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Oracle  OracleConfig
	Agent   AgentConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 7171)
	Host string // Server host (default: 127.0.0.1)

	// RateLimit is the sustained requests-per-second budget for the API;
	// RateBurst is the burst allowance on top of it.
	RateLimit float64
	RateBurst int
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	Driver      string // Storage driver: sqlite or postgres (default: sqlite)
	DataPath    string // Path to data directory (default: ./data)
	PostgresDSN string // Connection string when Driver is postgres
}

// SQLitePath returns the database file path under the data directory.
func (s StorageConfig) SQLitePath() string {
	return filepath.Join(s.DataPath, "reverie.db")
}

// OracleConfig contains model oracle configuration.
type OracleConfig struct {
	Provider        string // ollama, openai, anthropic (default: ollama)
	OllamaURL       string // Ollama API URL (default: http://localhost:11434)
	OllamaModel     string // Ollama completion model (default: qwen2.5:7b)
	EmbeddingModel  string // Embedding model (default: nomic-embed-text)
	OpenAIAPIKey    string
	OpenAIModel     string // default: gpt-4o-mini
	AnthropicAPIKey string
	AnthropicModel  string // default: claude-haiku-4-5-20251001
}

// AgentConfig contains pipeline tuning knobs.
type AgentConfig struct {
	// SynthesisWorkers is the background synthesis pool size (default: 2).
	SynthesisWorkers int

	// ProfilePath is the YAML user profile location
	// (default: <data>/profile.yaml).
	ProfilePath string
}

// Load builds a Config from environment variables and defaults.
func Load() *Config {
	dataPath := getEnv("REVERIE_DATA_PATH", "./data")
	return &Config{
		Server: ServerConfig{
			Port:      getEnvInt("REVERIE_PORT", 7171),
			Host:      getEnv("REVERIE_HOST", "127.0.0.1"),
			RateLimit: getEnvFloat("REVERIE_RATE_LIMIT", 10),
			RateBurst: getEnvInt("REVERIE_RATE_BURST", 20),
		},
		Storage: StorageConfig{
			Driver:      getEnv("REVERIE_STORAGE_DRIVER", "sqlite"),
			DataPath:    dataPath,
			PostgresDSN: getEnv("REVERIE_POSTGRES_DSN", ""),
		},
		Oracle: OracleConfig{
			Provider:        getEnv("REVERIE_ORACLE_PROVIDER", "ollama"),
			OllamaURL:       getEnv("REVERIE_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("REVERIE_OLLAMA_MODEL", "qwen2.5:7b"),
			EmbeddingModel:  getEnv("REVERIE_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIAPIKey:    getEnv("REVERIE_OPENAI_API_KEY", ""),
			OpenAIModel:     getEnv("REVERIE_OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicAPIKey: getEnv("REVERIE_ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("REVERIE_ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
		},
		Agent: AgentConfig{
			SynthesisWorkers: getEnvInt("REVERIE_SYNTHESIS_WORKERS", 2),
			ProfilePath:      getEnv("REVERIE_PROFILE_PATH", filepath.Join(dataPath, "profile.yaml")),
		},
	}
}

// Merged resolves the active provider's credentials and model names into
// the provider-neutral fields the oracle factory consumes.
func (o OracleConfig) Merged() (provider, apiKey, model, embedModel, baseURL string) {
	switch o.Provider {
	case "openai":
		return o.Provider, o.OpenAIAPIKey, o.OpenAIModel, o.EmbeddingModel, ""
	case "anthropic":
		return o.Provider, o.AnthropicAPIKey, o.AnthropicModel, o.EmbeddingModel, ""
	default:
		return "ollama", "", o.OllamaModel, o.EmbeddingModel, o.OllamaURL
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value when unset or unparseable.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value when unset or unparseable.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
