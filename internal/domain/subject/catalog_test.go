package subject

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/openalex4ml/internal/domain"
)

const worksURL = "https://api.openalex.org/works?filter=concepts.id:C1"

func mustSubject(t *testing.T, id string, ancestors ...string) Subject {
	t.Helper()
	anc := make([]Ancestor, len(ancestors))
	for i, a := range ancestors {
		anc[i] = Ancestor{ID: a, Name: a}
	}
	s, err := New(id, "name "+id, anc, worksURL)
	if err != nil {
		t.Fatalf("New(%s): %v", id, err)
	}
	return s
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		ancestors []Ancestor
		url       string
	}{
		{"empty id", "", nil, worksURL},
		{"ancestor without id", "S1", []Ancestor{{Name: "x"}}, worksURL},
		{"self ancestor", "S1", []Ancestor{{ID: "S1"}}, worksURL},
		{"missing url", "S1", nil, ""},
		{"relative url", "S1", nil, "/works?filter=x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.id, "n", tc.ancestors, tc.url)
			if !errors.Is(err, domain.ErrMalformedCatalog) {
				t.Fatalf("expected ErrMalformedCatalog, got %v", err)
			}
		})
	}
}

func TestNew_CopiesAncestors(t *testing.T) {
	anc := []Ancestor{{ID: "S0", Name: "root"}}
	s, err := New("S1", "leaf", anc, worksURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	anc[0].ID = "mutated"
	if s.Ancestors()[0].ID != "S0" {
		t.Error("subject must not alias caller's ancestor slice")
	}
	if s.Name() != "leaf" || s.WorksURL() != worksURL {
		t.Errorf("unexpected accessors: %q %q", s.Name(), s.WorksURL())
	}
}

func TestNewCatalog_Order(t *testing.T) {
	c, err := NewCatalog([]Subject{
		mustSubject(t, "S2"), mustSubject(t, "S1", "S2"), mustSubject(t, "S3", "S1", "S2"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	subs := c.Subjects()
	if c.Len() != 3 || subs[0].ID() != "S2" || subs[1].ID() != "S1" || subs[2].ID() != "S3" {
		t.Fatalf("unexpected order: %v", subs)
	}
	if !c.Has("S1") || c.Has("S9") {
		t.Error("Has mismatch")
	}
}

func TestNewCatalog_Duplicate(t *testing.T) {
	_, err := NewCatalog([]Subject{mustSubject(t, "S1"), mustSubject(t, "S1")})
	if !errors.Is(err, domain.ErrMalformedCatalog) {
		t.Fatalf("expected ErrMalformedCatalog, got %v", err)
	}
}

func TestNewCatalog_Cycle(t *testing.T) {
	_, err := NewCatalog([]Subject{
		mustSubject(t, "A", "B"), mustSubject(t, "B", "C"), mustSubject(t, "C", "A"),
	})
	if !errors.Is(err, domain.ErrMalformedCatalog) {
		t.Fatalf("expected ErrMalformedCatalog for cycle, got %v", err)
	}
}

func TestNewCatalog_ForeignAncestor(t *testing.T) {
	c, err := NewCatalog([]Subject{mustSubject(t, "S1", "EXTERNAL")})
	if err != nil {
		t.Fatalf("foreign ancestor ids are allowed: %v", err)
	}
	anc, err := c.Ancestors("S1")
	if err != nil || len(anc) != 1 || anc[0].ID != "EXTERNAL" {
		t.Fatalf("unexpected ancestors: %v %v", anc, err)
	}
}

func TestCatalog_AncestorsUnknown(t *testing.T) {
	c, err := NewCatalog(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = c.Ancestors("nope")
	if !errors.Is(err, domain.ErrUnknownAncestor) {
		t.Fatalf("expected ErrUnknownAncestor, got %v", err)
	}
}
