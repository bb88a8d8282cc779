// Package shard stores shard files in a directory: numbered pre-split shards
// ("1.json", "2.json", ...), post-split training lists and the global test list.
package shard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/openalex4ml/internal/domain"
	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
)

// TestName is the file holding the global test list of a split directory.
const TestName = "test.json"

const ext = ".json"

// Name returns the file name of the n-th numbered shard.
func Name(n int) string { return strconv.Itoa(n) + ext }

// Dir is a directory of shard files.
type Dir struct {
	path string
}

// Open returns an existing shard directory.
func Open(path string) (*Dir, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open shard dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open shard dir: %s is not a directory", path)
	}
	return &Dir{path: path}, nil
}

// Create returns an output shard directory, creating it when missing.
// Shard files left by an earlier run are removed so the directory only
// ever holds the shard set being written.
func Create(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create shard dir: %w", err)
	}
	d := &Dir{path: path}
	if err := d.Clear(); err != nil {
		return nil, err
	}
	return d, nil
}

// Clear removes every shard file and leftover temp file from the directory.
// Other files are kept.
func (d *Dir) Clear() error {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return fmt.Errorf("clear shard dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ext) || strings.HasSuffix(name, ext+".tmp")) {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, name)); err != nil {
			return fmt.Errorf("clear shard dir: %w", err)
		}
	}
	return nil
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// Names lists the shard files: numbered shards in numeric order first,
// then any other .json file by name.
func (d *Dir) Names() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("list shards: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.SortFunc(names, compareNames)
	return names, nil
}

func compareNames(a, b string) int {
	na, errA := strconv.Atoi(strings.TrimSuffix(a, ext))
	nb, errB := strconv.Atoi(strings.TrimSuffix(b, ext))
	switch {
	case errA == nil && errB == nil:
		return na - nb
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Write atomically stores v as JSON under name (tmp file + rename).
func (d *Dir) Write(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal shard %s: %w", name, err)
	}

	path := filepath.Join(d.path, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write shard %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename shard %s: %w", name, err)
	}
	return nil
}

// Shape tells the two persisted shard forms apart.
type Shape int

// Shard shapes.
const (
	ShapeMap  Shape = iota + 1 // subject id → records, before splitting
	ShapeList                  // flat record list, after splitting
)

// Peek reports the shape of a shard file from its first JSON token.
func Peek(data []byte) (Shape, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return 0, fmt.Errorf("%w: empty file", domain.ErrMalformedShard)
	}
	switch trimmed[0] {
	case '{':
		return ShapeMap, nil
	case '[':
		return ShapeList, nil
	default:
		return 0, fmt.Errorf("%w: unexpected leading byte %q", domain.ErrMalformedShard, trimmed[0])
	}
}

// ReadRaw returns the bytes of a shard file.
func (d *Dir) ReadRaw(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.path, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("read shard %s: %w", name, err)
	}
	return data, nil
}

// ReadMap reads a pre-split shard.
func (d *Dir) ReadMap(name string) (*document.Shard[document.Record], error) {
	data, err := d.ReadRaw(name)
	if err != nil {
		return nil, err
	}
	return DecodeMap[document.Record](name, data)
}

// ReadList reads a post-split record list.
func (d *Dir) ReadList(name string) ([]document.Record, error) {
	data, err := d.ReadRaw(name)
	if err != nil {
		return nil, err
	}
	return DecodeList[document.Record](name, data)
}

// DecodeMap decodes a subject-keyed shard.
func DecodeMap[T any](name string, data []byte) (*document.Shard[T], error) {
	if shape, err := Peek(data); err != nil || shape != ShapeMap {
		return nil, fmt.Errorf("%w: %s is not a subject map", domain.ErrMalformedShard, name)
	}
	sh := document.NewShard[T]()
	if err := json.Unmarshal(data, sh); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrMalformedShard, name, err)
	}
	return sh, nil
}

// DecodeList decodes a flat record list.
func DecodeList[T any](name string, data []byte) ([]T, error) {
	if shape, err := Peek(data); err != nil || shape != ShapeList {
		return nil, fmt.Errorf("%w: %s is not a record list", domain.ErrMalformedShard, name)
	}
	var recs []T
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrMalformedShard, name, err)
	}
	return recs, nil
}
