package embcache

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/db"
)

func TestEmbed_AllMisses(t *testing.T) {
	inner := &mockEmbedder{vector: []float32{0.1, 0.2}, tokens: 5}
	ce, ms := newTestCachedEmbedder(t, inner)

	res, err := ce.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(res.Vectors))
	}
	if ms.sets != 2 {
		t.Errorf("expected 2 cache puts, got %d", ms.sets)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call to inner, got %d", inner.calls)
	}
	if res.TotalTokens != 10 {
		t.Errorf("expected TotalTokens=10, got %d", res.TotalTokens)
	}
}

func TestEmbed_SecondCallHitsCache(t *testing.T) {
	inner := &mockEmbedder{vector: []float32{0.4}, tokens: 3}
	ce, _ := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	if _, err := ce.Embed(ctx, []string{"x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := ce.Embed(ctx, []string{"x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected inner to be called once, got %d", inner.calls)
	}
	if res.TotalTokens != 0 {
		t.Errorf("expected TotalTokens=0 on cache hit, got %d", res.TotalTokens)
	}
	if res.Vectors[0][0] != 0.4 {
		t.Errorf("unexpected cached vector: %v", res.Vectors[0])
	}
}

func TestEmbed_MixedHitsMisses(t *testing.T) {
	inner := &mockEmbedder{vector: []float32{0.5}, tokens: 3}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data = map[string][]byte{ce.cacheKey("hit1"): db.EncodeVector([]float32{0.9})}

	res, err := ce.Embed(context.Background(), []string{"miss1", "hit1", "miss2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Vectors[1][0] != 0.9 {
		t.Errorf("expected cached vec for index 1, got %v", res.Vectors[1])
	}
	if res.Vectors[0][0] != 0.5 || res.Vectors[2][0] != 0.5 {
		t.Errorf("expected inner vec for misses, got %v, %v", res.Vectors[0], res.Vectors[2])
	}
	if len(inner.texts) != 2 || inner.texts[0] != "miss1" || inner.texts[1] != "miss2" {
		t.Errorf("inner must only see misses, got %v", inner.texts)
	}
	if res.TotalTokens != 6 {
		t.Errorf("expected TotalTokens=6, got %d", res.TotalTokens)
	}
}

func TestEmbed_StoreFailureDegradesToMiss(t *testing.T) {
	inner := &mockEmbedder{vector: []float32{0.1}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.mgetErr = errors.New("conn refused")
	ms.setErr = errors.New("conn refused")

	res, err := ce.Embed(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("cache failure must not fail embedding: %v", err)
	}
	if len(res.Vectors) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(res.Vectors))
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, _ := newTestCachedEmbedder(t, inner)

	if _, err := ce.Embed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error from inner embedder")
	}
}

func TestEmbed_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	ce, _ := newTestCachedEmbedder(t, inner)

	res, err := ce.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Vectors != nil || inner.calls != 0 {
		t.Errorf("expected no work for empty input")
	}
}

func TestEmbed_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "cache_total"}, []string{"result"})
	inner := &mockEmbedder{vector: []float32{1}}
	ms := &mockKVStore{}
	ce := New(inner, ms, "p:", "m", counter, zap.NewNop())
	ctx := context.Background()

	_, _ = ce.Embed(ctx, []string{"a"})
	_, _ = ce.Embed(ctx, []string{"a", "b"})

	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
}

func TestCacheKey_ModelScoped(t *testing.T) {
	a := New(nil, nil, "p:", "m1", nil, zap.NewNop())
	b := New(nil, nil, "p:", "m2", nil, zap.NewNop())
	if a.cacheKey("t") == b.cacheKey("t") {
		t.Fatal("cache keys must differ across models")
	}
}
