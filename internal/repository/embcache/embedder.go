package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/db"
	"github.com/kailas-cloud/openalex4ml/internal/domain"
)

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	SetMulti(ctx context.Context, items []db.KVItem) error
}

// CachedEmbedder caches embeddings in a key-value store.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. Keys are "{prefix}emb:{sha256(model|text)}".
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	s store,
	prefix, model string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		prefix:     prefix + "emb:" + model + ":",
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns cached vectors where available and asks the inner embedder
// for the rest in a single call. Cached texts consume no tokens.
// Cache failures degrade to misses.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) (domain.EmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.EmbeddingResult{}, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.cacheKey(t)
	}

	vectors := make([][]float32, len(texts))
	cached := c.lookup(ctx, keys)

	var missIdx []int
	var missTexts []string
	for i := range texts {
		if cached[i] != nil {
			vectors[i] = cached[i]
			c.incCache("hit")
			continue
		}
		c.incCache("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}

	if len(missTexts) == 0 {
		return domain.EmbeddingResult{Vectors: vectors}, nil
	}

	res, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed %d texts: %w", len(missTexts), err)
	}
	if len(res.Vectors) != len(missTexts) {
		return domain.EmbeddingResult{}, fmt.Errorf(
			"%w: got %d vectors for %d texts", domain.ErrEmbeddingProviderError, len(res.Vectors), len(missTexts),
		)
	}

	items := make([]db.KVItem, len(missIdx))
	for j, i := range missIdx {
		vectors[i] = res.Vectors[j]
		items[j] = db.KVItem{Key: keys[i], Value: db.EncodeVector(res.Vectors[j])}
	}
	if err := c.store.SetMulti(ctx, items); err != nil {
		c.logger.Warn("Failed to cache embeddings", zap.Int("count", len(items)), zap.Error(err))
	}

	return domain.EmbeddingResult{Vectors: vectors, TotalTokens: res.TotalTokens}, nil
}

func (c *CachedEmbedder) lookup(ctx context.Context, keys []string) [][]float32 {
	out := make([][]float32, len(keys))
	blobs, err := c.store.MGet(ctx, keys)
	if err != nil {
		c.logger.Warn("Failed to get cached embeddings", zap.Error(err))
		return out
	}
	for i, data := range blobs {
		if len(data) == 0 {
			continue
		}
		vec, err := db.DecodeVector(data)
		if err != nil {
			c.logger.Warn("Failed to parse cached embedding", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		out[i] = vec
	}
	return out
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(h[:])
}
