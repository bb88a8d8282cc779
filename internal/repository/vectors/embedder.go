package vectors

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/openalex4ml/internal/domain"
)

// EmbedderTable asks an embedding provider for token vectors.
// Repeated tokens are embedded once per lookup.
type EmbedderTable struct {
	embedder domain.Embedder
}

// NewEmbedderTable wraps e as a vector table.
func NewEmbedderTable(e domain.Embedder) *EmbedderTable {
	return &EmbedderTable{embedder: e}
}

// Lookup embeds the distinct tokens in one call and fans the result out.
func (t *EmbedderTable) Lookup(ctx context.Context, tokens []string) ([][]float32, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	index := make(map[string]int, len(tokens))
	var distinct []string
	for _, tok := range tokens {
		if _, ok := index[tok]; !ok {
			index[tok] = len(distinct)
			distinct = append(distinct, tok)
		}
	}

	res, err := t.embedder.Embed(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("embed tokens: %w", err)
	}
	if len(res.Vectors) != len(distinct) {
		return nil, fmt.Errorf("%w: got %d vectors for %d tokens",
			domain.ErrEmbeddingProviderError, len(res.Vectors), len(distinct))
	}

	out := make([][]float32, len(tokens))
	for i, tok := range tokens {
		out[i] = res.Vectors[index[tok]]
	}
	return out, nil
}
