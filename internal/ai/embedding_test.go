package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingServer(t *testing.T, vectorsPerInput int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input interface{} `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		count := 1
		if inputs, ok := req.Input.([]interface{}); ok {
			count = len(inputs)
		}
		if vectorsPerInput >= 0 {
			count = vectorsPerInput
		}
		data := make([]map[string]interface{}, count)
		for i := range data {
			data[i] = map[string]interface{}{"embedding": []float32{float32(i), 1, 0}}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
}

func TestCompatibleEmbedder_NameIdentifiesProviderAndModel(t *testing.T) {
	e := NewCompatibleEmbedder(nil, "groq", "embed-v1")
	if e.Name() != "groq/embed-v1" {
		t.Fatalf("Name() = %q", e.Name())
	}
}

func TestCompatibleEmbedder_EmbedBatchKeepsOrder(t *testing.T) {
	server := embeddingServer(t, -1)
	defer server.Close()

	e := NewCompatibleEmbedder(NewOpenAICompatibleClient(server.URL, "k", 0), "openai", "embed-v1")
	vectors, err := e.EmbedBatch(context.Background(), []string{"satu", "dua", "tiga"})
	if err != nil {
		t.Fatalf("EmbedBatch returned error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Fatalf("vector %d out of order: %v", i, v)
		}
	}
}

func TestCompatibleEmbedder_RejectsEmptyInput(t *testing.T) {
	e := NewCompatibleEmbedder(nil, "openai", "embed-v1")

	if _, err := e.Embed(context.Background(), "   "); !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider for blank text, got %v", err)
	}
	if _, err := e.EmbedBatch(context.Background(), []string{"ok", ""}); !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider for blank batch entry, got %v", err)
	}
}

func TestCompatibleEmbedder_CountMismatch(t *testing.T) {
	server := embeddingServer(t, 1)
	defer server.Close()

	e := NewCompatibleEmbedder(NewOpenAICompatibleClient(server.URL, "k", 0), "openai", "embed-v1")
	if _, err := e.EmbedBatch(context.Background(), []string{"satu", "dua"}); !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider on count mismatch, got %v", err)
	}
}
