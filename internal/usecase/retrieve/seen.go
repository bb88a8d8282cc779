package retrieve

// Seen is the set of work ids already emitted during one retrieval run.
// It is shared across subjects and owned by a single sequential loop.
type Seen struct {
	ids map[string]struct{}
}

// NewSeen creates an empty set.
func NewSeen() *Seen {
	return &Seen{ids: make(map[string]struct{})}
}

// Has reports whether id was already emitted.
func (s *Seen) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Add marks id as emitted.
func (s *Seen) Add(id string) { s.ids[id] = struct{}{} }

// Len returns the number of emitted ids.
func (s *Seen) Len() int { return len(s.ids) }
