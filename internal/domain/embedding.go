package domain

import "context"

// Embedder is the text vectorization contract shared by the vector sources.
// Vectors are returned in input order, one per text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (EmbeddingResult, error)
}

// EmbeddingResult carries the vectors and the provider's token usage.
type EmbeddingResult struct {
	Vectors     [][]float32
	TotalTokens int
}
