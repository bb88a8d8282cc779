package vectors

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/db"
)

// kvReader is the consumer interface for vector lookups (ISP).
type kvReader interface {
	MGet(ctx context.Context, keys []string) ([][]byte, error)
}

// kvWriter is the consumer interface for the importer (ISP).
type kvWriter interface {
	SetMulti(ctx context.Context, items []db.KVItem) error
}

// Key returns the store key of a token vector.
func Key(prefix, token string) string { return prefix + "vec:" + token }

// StoreTable looks token vectors up in a key-value store.
type StoreTable struct {
	store  kvReader
	prefix string
}

// NewStoreTable creates a store-backed table.
func NewStoreTable(s kvReader, prefix string) *StoreTable {
	return &StoreTable{store: s, prefix: prefix}
}

// Lookup fetches all tokens in one MGET; unknown tokens yield nil.
func (t *StoreTable) Lookup(ctx context.Context, tokens []string) ([][]float32, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	keys := make([]string, len(tokens))
	for i, tok := range tokens {
		keys[i] = Key(t.prefix, tok)
	}

	blobs, err := t.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("lookup %d tokens: %w", len(tokens), err)
	}

	out := make([][]float32, len(tokens))
	for i, data := range blobs {
		if data == nil {
			continue
		}
		vec, err := db.DecodeVector(data)
		if err != nil {
			return nil, fmt.Errorf("token %q: %w", tokens[i], err)
		}
		out[i] = vec
	}
	return out, nil
}

// Importer copies an embeddings file into a key-value store.
type Importer struct {
	store     kvWriter
	prefix    string
	batchSize int
	logger    *zap.Logger
}

// NewImporter creates an importer writing batchSize vectors per round-trip.
func NewImporter(s kvWriter, prefix string, batchSize int, logger *zap.Logger) *Importer {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Importer{store: s, prefix: prefix, batchSize: batchSize, logger: logger}
}

// Import streams r into the store and returns the number of vectors written.
func (im *Importer) Import(ctx context.Context, r io.Reader) (int, error) {
	batch := make([]db.KVItem, 0, im.batchSize)
	total := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := im.store.SetMulti(ctx, batch); err != nil {
			return fmt.Errorf("store %d vectors: %w", len(batch), err)
		}
		total += len(batch)
		batch = batch[:0]
		im.logger.Debug("Imported vector batch", zap.Int("total", total))
		return nil
	}

	err := Scan(r, func(token string, vec []float32) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch = append(batch, db.KVItem{Key: Key(im.prefix, token), Value: db.EncodeVector(vec)})
		if len(batch) >= im.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}
	im.logger.Info("Vectors imported", zap.Int("count", total))
	return total, nil
}
