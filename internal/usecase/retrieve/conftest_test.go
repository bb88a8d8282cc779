package retrieve

import (
	"context"
	"testing"

	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
	"github.com/kailas-cloud/openalex4ml/internal/domain/subject"
	"github.com/kailas-cloud/openalex4ml/internal/domain/work"
)

// mockFetcher serves pages per works URL; missing pages are empty.
type mockFetcher struct {
	pages map[string][]work.Page
	errAt map[string]int
	err   error
	calls []int
}

func (m *mockFetcher) FetchPage(ctx context.Context, worksURL string, page int) (work.Page, error) {
	m.calls = append(m.calls, page)
	if err := ctx.Err(); err != nil {
		return work.Page{}, err
	}
	if at, ok := m.errAt[worksURL]; ok && page == at {
		return work.Page{}, m.err
	}
	ps := m.pages[worksURL]
	if page-1 < len(ps) {
		return ps[page-1], nil
	}
	return work.Page{}, nil
}

type mockNormalizer struct {
	err error
}

func (m *mockNormalizer) Normalize(text string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []string{text}, nil
}

type mockAccumulator struct {
	order  []string
	bySubj map[string][]document.Record
	closed bool
}

func (m *mockAccumulator) Accumulate(id string, recs []document.Record) error {
	if m.bySubj == nil {
		m.bySubj = make(map[string][]document.Record)
	}
	m.order = append(m.order, id)
	m.bySubj[id] = recs
	return nil
}

func (m *mockAccumulator) Close() error {
	m.closed = true
	return nil
}

func mustSubject(t *testing.T, id string) subject.Subject {
	t.Helper()
	s, err := subject.New(id, "name "+id, nil, "https://api.test/works?filter=concepts.id:"+id)
	if err != nil {
		t.Fatalf("subject %s: %v", id, err)
	}
	return s
}

func mustCatalog(t *testing.T, ids ...string) *subject.Catalog {
	t.Helper()
	subs := make([]subject.Subject, len(ids))
	for i, id := range ids {
		subs[i] = mustSubject(t, id)
	}
	c, err := subject.NewCatalog(subs)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func abstract(word string) *work.InvertedIndex {
	return &work.InvertedIndex{{Word: word, Positions: []int{0}}}
}

func w(id, title string, concepts ...work.Concept) work.Work {
	return work.Work{ID: id, DisplayName: title, AbstractInvertedIndex: abstract("body"), Concepts: concepts}
}
