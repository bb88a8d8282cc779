package document

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/openalex4ml/internal/jsonobj"
)

// Score is one subject assignment of a document.
type Score struct {
	ID    string
	Value float64
}

// Scores is the ordered subject → score mapping of a document.
// Order is significant: it decides which descendant's score an inserted
// ancestor inherits. Serialized as a JSON object in slice order.
type Scores []Score

// Get returns the score of id.
func (s Scores) Get(id string) (float64, bool) {
	for _, sc := range s {
		if sc.ID == id {
			return sc.Value, true
		}
	}
	return 0, false
}

// Has reports whether id is assigned.
func (s Scores) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// IDs returns the assigned subject ids in order.
func (s Scores) IDs() []string {
	ids := make([]string, len(s))
	for i, sc := range s {
		ids[i] = sc.ID
	}
	return ids
}

// MarshalJSON implements json.Marshaler.
func (s Scores) MarshalJSON() ([]byte, error) {
	return jsonobj.Marshal(len(s), func(i int) (string, any) { return s[i].ID, s[i].Value })
}

// UnmarshalJSON implements json.Unmarshaler. Duplicate keys keep the first
// position and the last value, matching a decoded JSON object.
func (s *Scores) UnmarshalJSON(data []byte) error {
	if jsonobj.IsNull(data) {
		*s = nil
		return nil
	}
	out := Scores{}
	index := make(map[string]int)
	err := jsonobj.Unmarshal(data, func(key string, dec *json.Decoder) error {
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("score of %s: %w", key, err)
		}
		if i, ok := index[key]; ok {
			out[i].Value = v
			return nil
		}
		index[key] = len(out)
		out = append(out, Score{ID: key, Value: v})
		return nil
	})
	if err != nil {
		return fmt.Errorf("decode subjects: %w", err)
	}
	*s = out
	return nil
}
