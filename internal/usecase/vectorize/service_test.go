package vectorize

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
	"github.com/kailas-cloud/openalex4ml/internal/metrics"
)

type mapTable map[string][]float32

func (m mapTable) Lookup(_ context.Context, tokens []string) ([][]float32, error) {
	out := make([][]float32, len(tokens))
	for i, t := range tokens {
		out[i] = m[t]
	}
	return out, nil
}

type failingTable struct{}

func (failingTable) Lookup(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("store down")
}

type memDir struct {
	raw     map[string]string
	names   []string
	written map[string]any
}

func (m *memDir) Names() ([]string, error) { return m.names, nil }

func (m *memDir) ReadRaw(name string) ([]byte, error) { return []byte(m.raw[name]), nil }

func (m *memDir) Write(name string, v any) error {
	if m.written == nil {
		m.written = make(map[string]any)
	}
	m.written[name] = v
	return nil
}

var table = mapTable{"cell": {1, 0}, "growth": {0, 1}}

func TestRecord_DropsMisses(t *testing.T) {
	s := New(table, zap.NewNop())
	before := testutil.ToFloat64(metrics.TokenLookupsTotal.WithLabelValues("miss"))

	got, err := s.Record(context.Background(), document.Record{
		ID:       "r1",
		Data:     document.Tokens([]string{"cell", "zzz", "growth"}),
		Subjects: document.Scores{{ID: "S", Value: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]float32{{1, 0}, {0, 1}}
	if diff := cmp.Diff(want, got.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	if got.ID != "r1" || got.Subjects.IDs()[0] != "S" {
		t.Errorf("identity not carried over: %+v", got)
	}
	if d := testutil.ToFloat64(metrics.TokenLookupsTotal.WithLabelValues("miss")) - before; d != 1 {
		t.Errorf("miss counter delta = %v, want 1", d)
	}
}

func TestRecord_RawTextSplitOnWhitespace(t *testing.T) {
	s := New(table, zap.NewNop())
	got, err := s.Record(context.Background(), document.Record{ID: "r", Data: document.Text("cell  growth\tcell")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Data) != 3 {
		t.Errorf("got %d vectors, want 3", len(got.Data))
	}
}

func TestRecord_AllMissesYieldsEmptyList(t *testing.T) {
	s := New(table, zap.NewNop())
	got, _ := s.Record(context.Background(), document.Record{ID: "r", Data: document.Tokens([]string{"nope"})})
	b, _ := json.Marshal(got.Data)
	if string(b) != "[]" {
		t.Errorf("data = %s, want []", b)
	}
}

func TestRun_KeepsShape(t *testing.T) {
	in := &memDir{
		names: []string{"1.json", "test.json"},
		raw: map[string]string{
			"1.json":    `{"B":[{"id":"a","data":["cell"],"subjects":{"B":1}}],"A":[]}`,
			"test.json": `[{"id":"b","data":"growth cell","subjects":{"A":0.5}}]`,
		},
	}
	out := &memDir{}
	if err := New(table, zap.NewNop()).Run(context.Background(), in, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sh, ok := out.written["1.json"].(*document.Shard[document.Vectorized])
	if !ok {
		t.Fatalf("1.json written as %T", out.written["1.json"])
	}
	if diff := cmp.Diff([]string{"B", "A"}, sh.Subjects()); diff != "" {
		t.Errorf("subject order mismatch (-want +got):\n%s", diff)
	}
	list, ok := out.written["test.json"].([]document.Vectorized)
	if !ok || len(list) != 1 || len(list[0].Data) != 2 {
		t.Errorf("test.json written as %#v", out.written["test.json"])
	}
}

func TestRun_LookupError(t *testing.T) {
	in := &memDir{
		names: []string{"1.json"},
		raw:   map[string]string{"1.json": `[{"id":"a","data":["x"],"subjects":{}}]`},
	}
	if err := New(failingTable{}, zap.NewNop()).Run(context.Background(), in, &memDir{}); err == nil {
		t.Fatal("expected error")
	}
}
