package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/db"
	"github.com/kailas-cloud/openalex4ml/internal/domain"
)

type mockEmbedder struct {
	vector []float32
	tokens int
	err    error
	calls  int
	texts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) (domain.EmbeddingResult, error) {
	m.calls++
	m.texts = append(m.texts, texts...)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = m.vector
	}
	return domain.EmbeddingResult{Vectors: vectors, TotalTokens: m.tokens * len(texts)}, nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data    map[string][]byte
	mgetErr error
	setErr  error
	sets    int
}

func (m *mockKVStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if m.mgetErr != nil {
		return nil, m.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *mockKVStore) SetMulti(_ context.Context, items []db.KVItem) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	for _, it := range items {
		m.data[it.Key] = it.Value
		m.sets++
	}
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	ce := New(inner, ms, "test:", "model-a", nil, zap.NewNop())
	return ce, ms
}
