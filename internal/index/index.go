package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"bizadvisor/internal/ai"
	"bizadvisor/internal/ingest"
)

var (
	// ErrEmbedding aborts index construction; a partial index is never built.
	ErrEmbedding = errors.New("embedding failed")
	// ErrNoIndex means retrieval was attempted with no knowledge base installed.
	ErrNoIndex = errors.New("no knowledge base for session")
)

// Providers commonly cap embedding batch sizes around this.
const embedBatchSize = 10

// Scored pairs a chunk with its similarity to a query.
type Scored struct {
	Chunk ingest.Chunk
	Score float32
}

// VectorIndex holds the session's (chunk, vector) pairs. It is immutable
// after Build, so concurrent searches need no locking; replacing a session's
// index swaps the whole value.
type VectorIndex struct {
	embedderName string
	dimension    int
	chunks       []ingest.Chunk
	vectors      [][]float32
}

// Build embeds every chunk in batches and assembles the index. Any embedding
// failure aborts the whole construction: the caller keeps whatever index it
// had before.
func Build(ctx context.Context, embedder ai.EmbeddingProvider, chunks []ingest.Chunk) (*VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to embed", ErrEmbedding)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(texts); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := embedder.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %v", ErrEmbedding, i, end, err)
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbedding, len(vectors), len(chunks))
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrEmbedding, i, len(v), dim)
		}
	}

	return &VectorIndex{
		embedderName: embedder.Name(),
		dimension:    dim,
		chunks:       chunks,
		vectors:      vectors,
	}, nil
}

func (x *VectorIndex) Len() int             { return len(x.chunks) }
func (x *VectorIndex) Dimension() int       { return x.dimension }
func (x *VectorIndex) EmbedderName() string { return x.embedderName }

// Search ranks all chunks by cosine similarity to the query vector,
// descending, ties broken by original chunk order.
func (x *VectorIndex) Search(query []float32, k int) []Scored {
	if k <= 0 || len(x.chunks) == 0 {
		return nil
	}

	scored := make([]Scored, len(x.chunks))
	for i := range x.chunks {
		scored[i] = Scored{Chunk: x.chunks[i], Score: cosineSimilarity(query, x.vectors[i])}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// Retrieve embeds the query with the same embedder the index was built with
// and searches. Mixing embedding spaces corrupts scores silently, so the
// embedder identity is checked hard. Safe on a nil index: callers hold a
// snapshot that a concurrent clear may have replaced with nil.
func (x *VectorIndex) Retrieve(ctx context.Context, embedder ai.EmbeddingProvider, query string, k int) ([]Scored, error) {
	if x == nil {
		return nil, ErrNoIndex
	}
	if embedder.Name() != x.embedderName {
		return nil, fmt.Errorf("embedder mismatch: index built with %s, query uses %s", x.embedderName, embedder.Name())
	}
	vec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	if len(vec) != x.dimension {
		return nil, fmt.Errorf("query vector dimension %d, index dimension %d", len(vec), x.dimension)
	}
	return x.Search(vec, k), nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
