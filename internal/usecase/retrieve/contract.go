package retrieve

import (
	"context"

	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
	"github.com/kailas-cloud/openalex4ml/internal/domain/work"
)

// PageFetcher fetches one listing page of a works endpoint.
type PageFetcher interface {
	FetchPage(ctx context.Context, worksURL string, page int) (work.Page, error)
}

// Normalizer turns raw text into tokens.
type Normalizer interface {
	Normalize(text string) ([]string, error)
}

// Accumulator receives the records of each completed subject.
type Accumulator interface {
	Accumulate(subjectID string, recs []document.Record) error
	Close() error
}
