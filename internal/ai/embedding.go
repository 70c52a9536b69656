package ai

import (
	"context"
	"fmt"
	"strings"
)

// CompatibleEmbedder implements EmbeddingProvider over an OpenAI-compatible
// /embeddings endpoint.
type CompatibleEmbedder struct {
	client   *OpenAICompatibleClient
	provider string
	model    string
}

func NewCompatibleEmbedder(client *OpenAICompatibleClient, provider, model string) *CompatibleEmbedder {
	return &CompatibleEmbedder{client: client, provider: provider, model: model}
}

func (e *CompatibleEmbedder) Name() string {
	return e.provider + "/" + e.model
}

func (e *CompatibleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: embedding input is empty", ErrProvider)
	}
	vectors, err := e.client.embed(ctx, e.model, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: empty embedding in response", ErrProvider)
	}
	return vectors[0], nil
}

// EmbedBatch embeds the texts in one call. The caller is responsible for
// keeping batches within provider limits; vectors come back in input order.
func (e *CompatibleEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: embedding input %d is empty", ErrProvider, i)
		}
	}
	vectors, err := e.client.embed(ctx, e.model, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrProvider, len(vectors), len(texts))
	}
	return vectors, nil
}
