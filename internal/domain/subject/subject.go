// Package subject holds the topical taxonomy: subjects, their ancestor lists
// and the read-only catalog shared by every pipeline stage.
package subject

import (
	"fmt"
	"net/url"

	"github.com/kailas-cloud/openalex4ml/internal/domain"
)

// Ancestor is a broader subject reference. The id is an opaque foreign key and
// need not resolve to a catalog entry.
type Ancestor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Subject is a taxonomy node (immutable value object).
type Subject struct {
	id        string
	name      string
	ancestors []Ancestor
	worksURL  string
}

// New validates and creates a Subject.
// Ancestor ids must be non-empty and must not point back to the subject;
// the works URL must parse as an absolute URL.
func New(id, name string, ancestors []Ancestor, worksURL string) (Subject, error) {
	if id == "" {
		return Subject{}, domain.NewMalformedCatalog("", "empty subject id")
	}
	for i, a := range ancestors {
		if a.ID == "" {
			return Subject{}, domain.NewMalformedCatalog(id, fmt.Sprintf("ancestor %d has no id", i))
		}
		if a.ID == id {
			return Subject{}, domain.NewMalformedCatalog(id, "subject lists itself as ancestor")
		}
	}
	if worksURL == "" {
		return Subject{}, domain.NewMalformedCatalog(id, "works_api_url is required")
	}
	u, err := url.Parse(worksURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Subject{}, domain.NewMalformedCatalog(id, fmt.Sprintf("invalid works_api_url %q", worksURL))
	}

	anc := make([]Ancestor, len(ancestors))
	copy(anc, ancestors)
	return Subject{id: id, name: name, ancestors: anc, worksURL: worksURL}, nil
}

// ID returns the subject identifier.
func (s Subject) ID() string { return s.id }

// Name returns the display name.
func (s Subject) Name() string { return s.name }

// Ancestors returns the full transitive ancestor list in source order.
func (s Subject) Ancestors() []Ancestor { return s.ancestors }

// WorksURL returns the works listing endpoint of the subject.
func (s Subject) WorksURL() string { return s.worksURL }
