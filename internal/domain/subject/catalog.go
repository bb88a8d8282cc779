package subject

import (
	"fmt"

	"github.com/kailas-cloud/openalex4ml/internal/domain"
)

// Catalog is the loaded taxonomy, keyed by subject id, iterated in load order.
// Safe for concurrent reads; never mutated after NewCatalog.
type Catalog struct {
	ids  []string
	byID map[string]Subject
}

// NewCatalog builds a catalog from subjects in source order.
// Duplicate ids and ancestor chains that lead back to a subject are rejected.
func NewCatalog(subjects []Subject) (*Catalog, error) {
	c := &Catalog{
		ids:  make([]string, 0, len(subjects)),
		byID: make(map[string]Subject, len(subjects)),
	}
	for _, s := range subjects {
		if _, dup := c.byID[s.ID()]; dup {
			return nil, domain.NewMalformedCatalog(s.ID(), "duplicate subject id")
		}
		c.ids = append(c.ids, s.ID())
		c.byID[s.ID()] = s
	}
	for _, id := range c.ids {
		if c.reaches(id) {
			return nil, domain.NewMalformedCatalog(id, "ancestor chain cycles back to subject")
		}
	}
	return c, nil
}

// reaches reports whether id is reachable from its own ancestors through
// entries that resolve locally.
func (c *Catalog) reaches(id string) bool {
	visited := make(map[string]bool)
	stack := make([]string, 0, len(c.byID[id].ancestors))
	for _, a := range c.byID[id].ancestors {
		stack = append(stack, a.ID)
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == id {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if s, ok := c.byID[cur]; ok {
			for _, a := range s.ancestors {
				stack = append(stack, a.ID)
			}
		}
	}
	return false
}

// Get returns a subject by id.
func (c *Catalog) Get(id string) (Subject, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Has reports whether id is a catalog subject.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Ancestors returns the ancestor list of id.
func (c *Catalog) Ancestors(id string) ([]Ancestor, error) {
	s, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("ancestors of %s: %w", id, domain.NewUnknownAncestor(id))
	}
	return s.ancestors, nil
}

// Subjects returns all subjects in load order.
func (c *Catalog) Subjects() []Subject {
	out := make([]Subject, len(c.ids))
	for i, id := range c.ids {
		out[i] = c.byID[id]
	}
	return out
}

// Len returns the number of subjects.
func (c *Catalog) Len() int { return len(c.ids) }
