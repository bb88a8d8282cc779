package batch

// ShardWriter persists one shard file.
type ShardWriter interface {
	Write(name string, v any) error
}
