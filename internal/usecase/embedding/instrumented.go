// Package embedding decorates embedding providers for bulk use.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/domain"
)

// DefaultMaxAPIBatchSize is the maximum number of texts sent in one API request.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEmbedder splits large inputs into API-sized chunks and logs
// every request. Transport metrics are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner     domain.Embedder
	model     string
	chunkSize int
	logger    *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with chunking and logging.
func NewInstrumentedEmbedder(inner domain.Embedder, model string, logger *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:     inner,
		model:     model,
		chunkSize: DefaultMaxAPIBatchSize,
		logger:    logger,
	}
}

// WithChunkSize overrides the per-request text limit.
func (p *InstrumentedEmbedder) WithChunkSize(n int) *InstrumentedEmbedder {
	if n > 0 {
		p.chunkSize = n
	}
	return p
}

// Embed delegates to the inner embedder one chunk at a time and joins the results.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, texts []string) (domain.EmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.EmbeddingResult{}, nil
	}

	start := time.Now()
	out := domain.EmbeddingResult{Vectors: make([][]float32, 0, len(texts))}

	for offset := 0; offset < len(texts); offset += p.chunkSize {
		end := min(offset+p.chunkSize, len(texts))
		chunk := texts[offset:end]

		res, err := p.inner.Embed(ctx, chunk)
		if err != nil {
			p.logger.Error("Embedding request failed",
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.EmbeddingResult{}, fmt.Errorf("embed chunk at %d: %w", offset, err)
		}
		if len(res.Vectors) != len(chunk) {
			return domain.EmbeddingResult{}, fmt.Errorf("chunk at %d: got %d vectors for %d texts: %w",
				offset, len(res.Vectors), len(chunk), domain.ErrEmbeddingProviderError)
		}

		out.Vectors = append(out.Vectors, res.Vectors...)
		out.TotalTokens += res.TotalTokens
	}

	p.logger.Debug("Embedding completed",
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("texts", len(texts)),
		zap.Int("total_tokens", out.TotalTokens),
	)
	return out, nil
}
