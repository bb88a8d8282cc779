// Package work models the OpenAlex work listing payload and the text
// assembled from it.
package work

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/openalex4ml/internal/jsonobj"
)

// Concept is a subject score attached to a work by the source.
type Concept struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Work is one entry of a listing page. AbstractInvertedIndex is nil when the
// source has no abstract.
type Work struct {
	ID                    string         `json:"id"`
	DisplayName           string         `json:"display_name"`
	AbstractInvertedIndex *InvertedIndex `json:"abstract_inverted_index"`
	Concepts              []Concept      `json:"concepts"`
}

// Page is one response of the work-listing endpoint.
type Page struct {
	Results []Work `json:"results"`
}

// Posting lists the positions of one word in the abstract.
type Posting struct {
	Word      string
	Positions []int
}

// InvertedIndex maps words to their positions, in document key order.
type InvertedIndex []Posting

// UnmarshalJSON implements json.Unmarshaler.
func (ix *InvertedIndex) UnmarshalJSON(data []byte) error {
	out := InvertedIndex{}
	err := jsonobj.Unmarshal(data, func(key string, dec *json.Decoder) error {
		var positions []int
		if err := dec.Decode(&positions); err != nil {
			return fmt.Errorf("positions of %q: %w", key, err)
		}
		out = append(out, Posting{Word: key, Positions: positions})
		return nil
	})
	if err != nil {
		return fmt.Errorf("decode inverted index: %w", err)
	}
	*ix = out
	return nil
}

// Abstract rebuilds the abstract text. With N the total number of positions,
// each position in [0, N) emits every word holding it, in index order, each
// followed by a single space. Positions at or beyond N are dropped.
func (ix InvertedIndex) Abstract() string {
	n := 0
	for _, p := range ix {
		n += len(p.Positions)
	}
	buckets := make([][]string, n)
	for _, p := range ix {
		seen := make(map[int]struct{}, len(p.Positions))
		for _, pos := range p.Positions {
			if pos < 0 || pos >= n {
				continue
			}
			if _, dup := seen[pos]; dup {
				continue
			}
			seen[pos] = struct{}{}
			buckets[pos] = append(buckets[pos], p.Word)
		}
	}

	var b strings.Builder
	for _, words := range buckets {
		for _, w := range words {
			b.WriteString(w)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Text joins a title and an abstract into one passage.
func Text(title, abstract string) string {
	switch {
	case title == "":
		return abstract
	case strings.HasSuffix(title, ". "):
		return title + abstract
	case strings.HasSuffix(title, "."):
		return title + " " + abstract
	default:
		return title + ". " + abstract
	}
}
