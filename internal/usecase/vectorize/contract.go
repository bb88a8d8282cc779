package vectorize

import "context"

// VectorTable resolves tokens to vectors. The result has one entry per
// token; unknown tokens yield nil.
type VectorTable interface {
	Lookup(ctx context.Context, tokens []string) ([][]float32, error)
}

// ShardSource lists shards and returns their raw bytes.
type ShardSource interface {
	Names() ([]string, error)
	ReadRaw(name string) ([]byte, error)
}

// ShardSink writes shards.
type ShardSink interface {
	Write(name string, v any) error
}
