package document

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/openalex4ml/internal/jsonobj"
)

// Shard is an ordered subject id → records mapping persisted as one file.
type Shard[T any] struct {
	order   []string
	records map[string][]T
}

// NewShard creates an empty shard.
func NewShard[T any]() *Shard[T] {
	return &Shard[T]{records: make(map[string][]T)}
}

// Add appends records under subjectID, registering the key even when recs is empty.
func (s *Shard[T]) Add(subjectID string, recs ...T) {
	if s.records == nil {
		s.records = make(map[string][]T)
	}
	cur, ok := s.records[subjectID]
	if !ok {
		s.order = append(s.order, subjectID)
		cur = []T{}
	}
	s.records[subjectID] = append(cur, recs...)
}

// Subjects returns the subject keys in insertion order.
func (s *Shard[T]) Subjects() []string { return s.order }

// Records returns the records stored under subjectID.
func (s *Shard[T]) Records(subjectID string) []T { return s.records[subjectID] }

// NumSubjects returns the number of subject keys.
func (s *Shard[T]) NumSubjects() int { return len(s.order) }

// Len returns the total number of records.
func (s *Shard[T]) Len() int {
	n := 0
	for _, recs := range s.records {
		n += len(recs)
	}
	return n
}

// MarshalJSON implements json.Marshaler.
func (s *Shard[T]) MarshalJSON() ([]byte, error) {
	return jsonobj.Marshal(len(s.order), func(i int) (string, any) {
		return s.order[i], s.records[s.order[i]]
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Shard[T]) UnmarshalJSON(data []byte) error {
	out := NewShard[T]()
	err := jsonobj.Unmarshal(data, func(key string, dec *json.Decoder) error {
		var recs []T
		if err := dec.Decode(&recs); err != nil {
			return fmt.Errorf("records of %s: %w", key, err)
		}
		if _, dup := out.records[key]; dup {
			// last value wins, first position is kept
			out.records[key] = append([]T{}, recs...)
			return nil
		}
		out.Add(key, recs...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("decode shard: %w", err)
	}
	*s = *out
	return nil
}
