// Package vectors provides token → vector tables backed by an embeddings
// text file, Valkey or an embedding provider.
package vectors

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kailas-cloud/openalex4ml/internal/domain"
)

const maxLineBytes = 4 << 20

// Scan parses an embeddings text file: a header line followed by
// "token v1 ... vk" lines. Blank lines are skipped. All vectors must share
// the dimension of the first one.
func Scan(r io.Reader, fn func(token string, vec []float32) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line, dim := 0, 0
	for sc.Scan() {
		line++
		if line == 1 {
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return fmt.Errorf("%w: line %d: token without values", domain.ErrMalformedVectors, line)
		}
		vec := make([]float32, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return fmt.Errorf("%w: line %d: %w", domain.ErrMalformedVectors, line, err)
			}
			vec[i] = float32(v)
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return fmt.Errorf("%w: line %d: dimension %d, want %d", domain.ErrMalformedVectors, line, len(vec), dim)
		}
		if err := fn(fields[0], vec); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: line %d: %w", domain.ErrMalformedVectors, line+1, err)
	}
	return nil
}

// Table is an in-memory token → vector table.
type Table struct {
	vecs map[string][]float32
	dim  int
}

// LoadFile reads a whole embeddings file into memory.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open vectors %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load vectors %s: %w", path, err)
	}
	return t, nil
}

// Read builds a Table from an embeddings stream. Repeated tokens keep the first vector.
func Read(r io.Reader) (*Table, error) {
	t := &Table{vecs: make(map[string][]float32)}
	err := Scan(r, func(token string, vec []float32) error {
		if _, ok := t.vecs[token]; !ok {
			t.vecs[token] = vec
		}
		t.dim = len(vec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Len returns the vocabulary size.
func (t *Table) Len() int { return len(t.vecs) }

// Dim returns the vector dimension (0 for an empty table).
func (t *Table) Dim() int { return t.dim }

// Lookup returns one entry per token; unknown tokens yield nil.
func (t *Table) Lookup(_ context.Context, tokens []string) ([][]float32, error) {
	out := make([][]float32, len(tokens))
	for i, tok := range tokens {
		out[i] = t.vecs[tok]
	}
	return out, nil
}
