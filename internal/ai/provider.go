package ai

import (
	"context"
	"errors"
)

// ErrProvider wraps any failure of an external chat or embedding call.
var ErrProvider = errors.New("provider call failed")

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatProvider produces a completion for a prompt assembled by the caller.
type ChatProvider interface {
	Name() string
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// EmbeddingProvider converts texts into fixed-dimension vectors. A vector
// index is only comparable against queries embedded by the same provider
// and model, so Name must identify both.
type EmbeddingProvider interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
