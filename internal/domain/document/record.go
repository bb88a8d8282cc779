// Package document holds the persisted corpus units: records, their subject
// scores and the shards that group them.
package document

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Data is the textual payload of a record: a token sequence for normalized
// documents or the raw title+abstract string otherwise.
type Data struct {
	tokens []string
	text   string
	raw    bool
}

// Tokens wraps a normalized token sequence.
func Tokens(tokens []string) Data { return Data{tokens: tokens} }

// Text wraps a raw, unnormalized string.
func Text(text string) Data { return Data{text: text, raw: true} }

// IsText reports whether the payload is a raw string.
func (d Data) IsText() bool { return d.raw }

// Tokens returns the token sequence (nil for raw text).
func (d Data) Tokens() []string { return d.tokens }

// String returns the raw text (empty for token payloads).
func (d Data) String() string { return d.text }

// Words returns the tokens, or the whitespace-separated words of raw text.
func (d Data) Words() []string {
	if d.raw {
		return strings.Fields(d.text)
	}
	return d.tokens
}

// MarshalJSON implements json.Marshaler.
func (d Data) MarshalJSON() ([]byte, error) {
	if d.raw {
		return json.Marshal(d.text)
	}
	if d.tokens == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.tokens)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Data) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*d = Text(text)
		return nil
	}
	var tokens []string
	if err := json.Unmarshal(b, &tokens); err != nil {
		return fmt.Errorf("data must be a string or a list of strings: %w", err)
	}
	*d = Tokens(tokens)
	return nil
}

// Record is the unit persisted in shards. ID is synthetic, assigned when the
// record is created, and identifies the record across stages.
type Record struct {
	ID       string `json:"id"`
	Data     Data   `json:"data"`
	Subjects Scores `json:"subjects"`
}

// NewRecord creates a record with a fresh identity.
func NewRecord(data Data, subjects Scores) Record {
	return Record{ID: uuid.NewString(), Data: data, Subjects: subjects}
}

// WithSubjects returns a copy of the record carrying other subject scores.
func (r Record) WithSubjects(subjects Scores) Record {
	r.Subjects = subjects
	return r
}

// UnmarshalJSON implements json.Unmarshaler. Records written without an id
// get a fresh one on read.
func (r *Record) UnmarshalJSON(b []byte) error {
	type plain Record
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	*r = Record(p)
	return nil
}

// Vectorized is a record whose tokens were projected into embedding space.
type Vectorized struct {
	ID       string      `json:"id"`
	Data     [][]float32 `json:"data"`
	Subjects Scores      `json:"subjects"`
}
