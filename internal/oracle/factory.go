package oracle

import "fmt"

// ClientConfig is the provider-neutral configuration the factory consumes.
type ClientConfig struct {
	Provider   string // "ollama", "openai", or "anthropic"
	APIKey     string
	Model      string
	EmbedModel string
	BaseURL    string
}

// NewTextGenerator creates the TextGenerator for the configured provider.
// An empty provider defaults to ollama.
func NewTextGenerator(cfg ClientConfig) (TextGenerator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}), nil
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{APIKey: cfg.APIKey, Model: cfg.Model}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %q", cfg.Provider)
	}
}

// NewEmbeddingGenerator creates the EmbeddingGenerator for the configured
// provider. Anthropic has no embeddings endpoint, so it falls back to a
// local Ollama embedder.
func NewEmbeddingGenerator(cfg ClientConfig) (EmbeddingGenerator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{APIKey: cfg.APIKey, EmbedModel: cfg.EmbedModel, BaseURL: cfg.BaseURL}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{BaseURL: cfg.BaseURL, EmbedModel: cfg.EmbedModel}), nil
	case "anthropic":
		// No embeddings API; use a local Ollama embedder at its default URL.
		return NewOllamaClient(OllamaConfig{EmbedModel: cfg.EmbedModel}), nil
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %q", cfg.Provider)
	}
}
