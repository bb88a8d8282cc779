package stats

import "github.com/kailas-cloud/openalex4ml/internal/jsonobj"

// Table is a name-keyed report that keeps first-insertion order.
type Table[T any] struct {
	keys   []string
	values map[string]T
}

func newTable[T any]() *Table[T] {
	return &Table[T]{values: make(map[string]T)}
}

// Update applies fn to the value under key, inserting the zero value first.
func (t *Table[T]) Update(key string, fn func(T) T) {
	v, ok := t.values[key]
	if !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = fn(v)
}

// Get returns the value under key.
func (t *Table[T]) Get(key string) (T, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (t *Table[T]) Keys() []string { return t.keys }

// MarshalJSON implements json.Marshaler.
func (t *Table[T]) MarshalJSON() ([]byte, error) {
	return jsonobj.Marshal(len(t.keys), func(i int) (string, any) {
		return t.keys[i], t.values[t.keys[i]]
	})
}
