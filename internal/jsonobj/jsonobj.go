// Package jsonobj reads and writes JSON objects member by member so that
// key order survives a round trip. OpenAlex exports and the shard files are
// order-sensitive: catalog order drives sharding and score order drives the
// ancestor tie-break.
package jsonobj

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned when the decoded value is not a JSON object.
var ErrNotObject = errors.New("json value is not an object")

// MemberFunc decodes the value of one object member. It must consume exactly
// one JSON value from dec.
type MemberFunc func(key string, dec *json.Decoder) error

// Decode reads one JSON object from dec, calling member for each key in
// document order.
func Decode(dec *json.Decoder, member MemberFunc) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read object start: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("got %v: %w", tok, ErrNotObject)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read object key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		if err := member(key, dec); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read object end: %w", err)
	}
	return nil
}

// Unmarshal is Decode over an in-memory document.
func Unmarshal(data []byte, member MemberFunc) error {
	return Decode(json.NewDecoder(bytes.NewReader(data)), member)
}

// IsNull reports whether data is the JSON literal null.
func IsNull(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "null"
}

// Marshal writes an object of n members; member returns the i-th key and value.
func Marshal(n int, member func(i int) (string, any)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, val := member(i)
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", key, err)
		}
		vb, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("marshal value of %q: %w", key, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
