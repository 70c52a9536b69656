package ai

import (
	"fmt"
	"time"
)

// Known OpenAI-compatible endpoints, selectable by provider name at
// configuration time. A configured base_url always wins over these.
var providerBaseURLs = map[string]string{
	"openai":      "https://api.openai.com/v1",
	"groq":        "https://api.groq.com/openai/v1",
	"huggingface": "https://router.huggingface.co/v1",
}

// ProviderConfig is the provider selection resolved from application config.
type ProviderConfig struct {
	Provider       string
	BaseURL        string
	APIKey         string
	Model          string
	FallbackModels []string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
}

// NewProviders builds the chat and embedding providers for the named
// provider. Both share one HTTP client so timeouts are configured once.
func NewProviders(cfg ProviderConfig) (ChatProvider, EmbeddingProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		known, ok := providerBaseURLs[cfg.Provider]
		if !ok {
			return nil, nil, fmt.Errorf("unknown provider %q and no base_url configured", cfg.Provider)
		}
		baseURL = known
	}
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("provider %q requires an api key", cfg.Provider)
	}
	if cfg.Model == "" || cfg.EmbeddingModel == "" {
		return nil, nil, fmt.Errorf("provider %q requires model and embedding_model", cfg.Provider)
	}

	client := NewOpenAICompatibleClient(baseURL, cfg.APIKey, cfg.Timeout)
	chat := NewCompatibleChat(client, cfg.Provider, cfg.Model, cfg.FallbackModels, cfg.Temperature, cfg.MaxTokens)
	embedder := NewCompatibleEmbedder(client, cfg.Provider, cfg.EmbeddingModel)
	return chat, embedder, nil
}
