package ai

import (
	"context"
	"fmt"
	"log"
)

// CompatibleChat implements ChatProvider with an ordered model-fallback
// policy: the primary model is tried first, then each fallback in turn.
// Every attempt and its outcome is logged so failures stay observable.
type CompatibleChat struct {
	client      *OpenAICompatibleClient
	provider    string
	models      []string
	temperature float64
	maxTokens   int
}

func NewCompatibleChat(client *OpenAICompatibleClient, provider, model string, fallbacks []string, temperature float64, maxTokens int) *CompatibleChat {
	models := append([]string{model}, fallbacks...)
	return &CompatibleChat{
		client:      client,
		provider:    provider,
		models:      models,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (c *CompatibleChat) Name() string {
	return c.provider + "/" + c.models[0]
}

func (c *CompatibleChat) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	opts := completionOptions{Temperature: c.temperature, MaxTokens: c.maxTokens}

	var lastErr error
	for i, model := range c.models {
		answer, err := c.client.complete(ctx, model, messages, opts)
		if err == nil {
			if i > 0 {
				log.Printf("chat fallback: model %s answered after %d failed attempt(s)", model, i)
			}
			return answer, nil
		}
		log.Printf("chat attempt with model %s failed: %v", model, err)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: all %d model(s) failed, last: %v", ErrProvider, len(c.models), lastErr)
}
