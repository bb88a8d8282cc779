package stats

import (
	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
	"github.com/kailas-cloud/openalex4ml/internal/domain/subject"
)

// Catalog resolves subject ids to names.
type Catalog interface {
	Subjects() []subject.Subject
	Get(id string) (subject.Subject, bool)
}

// ShardSource lists and reads pre-split shards.
type ShardSource interface {
	Names() ([]string, error)
	ReadMap(name string) (*document.Shard[document.Record], error)
}

// ReportSink writes report files.
type ReportSink interface {
	Write(name string, v any) error
}
