package correct

import (
	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
	"github.com/kailas-cloud/openalex4ml/internal/domain/subject"
)

// AncestorResolver returns the full ancestor list of a subject.
type AncestorResolver interface {
	Ancestors(id string) ([]subject.Ancestor, error)
}

// ShardSource lists and reads pre-split shards.
type ShardSource interface {
	Names() ([]string, error)
	ReadMap(name string) (*document.Shard[document.Record], error)
}

// ShardSink writes shards.
type ShardSink interface {
	Write(name string, v any) error
}
