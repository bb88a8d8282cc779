package batch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
)

type mockShardWriter struct {
	names  []string
	shards []*document.Shard[document.Record]
	err    error
}

func (m *mockShardWriter) Write(name string, v any) error {
	if m.err != nil {
		return m.err
	}
	m.names = append(m.names, name)
	m.shards = append(m.shards, v.(*document.Shard[document.Record]))
	return nil
}

func recs(n int) []document.Record {
	out := make([]document.Record, n)
	for i := range out {
		out[i] = document.NewRecord(document.Tokens([]string{"w"}), nil)
	}
	return out
}

func TestWriter_ThresholdCheckedPerSubject(t *testing.T) {
	out := &mockShardWriter{}
	w := New(out, zap.NewNop()).WithThreshold(3)

	steps := []struct {
		id string
		n  int
	}{{"A", 2}, {"B", 2}, {"C", 0}, {"D", 1}}
	for _, s := range steps {
		if err := w.Accumulate(s.id, recs(s.n)); err != nil {
			t.Fatalf("accumulate %s: %v", s.id, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if diff := cmp.Diff([]string{"1.json", "2.json"}, out.names); diff != "" {
		t.Fatalf("shard names mismatch: %s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B"}, out.shards[0].Subjects()); diff != "" {
		t.Errorf("first shard must hold whole subjects A and B: %s", diff)
	}
	if out.shards[0].Len() != 4 {
		t.Errorf("first shard records = %d, want 4", out.shards[0].Len())
	}
	if diff := cmp.Diff([]string{"C", "D"}, out.shards[1].Subjects()); diff != "" {
		t.Errorf("empty subject C must be kept: %s", diff)
	}
	if w.Shards() != 2 {
		t.Errorf("Shards() = %d, want 2", w.Shards())
	}
}

func TestWriter_CloseFlushesEmptySubjects(t *testing.T) {
	out := &mockShardWriter{}
	w := New(out, zap.NewNop()).WithThreshold(2)
	_ = w.Accumulate("A", recs(2))
	_ = w.Accumulate("B", nil)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(out.names) != 2 || out.shards[1].Len() != 0 {
		t.Fatalf("expected trailing shard with empty subject B, got %v", out.names)
	}
}

func TestWriter_CloseWithoutSubjects(t *testing.T) {
	out := &mockShardWriter{}
	w := New(out, zap.NewNop()).WithThreshold(2)
	_ = w.Accumulate("A", recs(2))
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(out.names) != 1 {
		t.Fatalf("expected 1 shard, got %v", out.names)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close must be a no-op: %v", err)
	}
	if err := w.Accumulate("C", nil); err == nil {
		t.Error("accumulate after close must fail")
	}
}

func TestWriter_WriteError(t *testing.T) {
	w := New(&mockShardWriter{err: errors.New("disk full")}, zap.NewNop()).WithThreshold(1)
	if err := w.Accumulate("A", recs(1)); err == nil {
		t.Fatal("expected flush error")
	}
}
