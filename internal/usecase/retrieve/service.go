// Package retrieve pages through each subject's works endpoint and yields
// labeled document records.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
	"github.com/kailas-cloud/openalex4ml/internal/domain/subject"
	"github.com/kailas-cloud/openalex4ml/internal/domain/work"
	"github.com/kailas-cloud/openalex4ml/internal/metrics"
)

// DefaultQuota is the number of documents retrieved per subject.
const DefaultQuota = 100

// Service retrieves documents for the subjects of a catalog.
type Service struct {
	catalog    *subject.Catalog
	fetcher    PageFetcher
	normalizer Normalizer
	quota      int
	logger     *zap.Logger
}

// New creates a retrieval service. A nil normalizer keeps raw text.
func New(catalog *subject.Catalog, fetcher PageFetcher, normalizer Normalizer, logger *zap.Logger) *Service {
	return &Service{
		catalog:    catalog,
		fetcher:    fetcher,
		normalizer: normalizer,
		quota:      DefaultQuota,
		logger:     logger,
	}
}

// WithQuota configures the per-subject document count. Zero is allowed.
func (s *Service) WithQuota(n int) *Service {
	if n >= 0 {
		s.quota = n
	}
	return s
}

// Run retrieves every catalog subject in catalog order into out and closes it.
// Subject failures are logged and skipped; only cancellation and out's own
// errors end the run.
func (s *Service) Run(ctx context.Context, out Accumulator) error {
	seen := NewSeen()
	subjects := s.catalog.Subjects()

	for i, subj := range subjects {
		if err := ctx.Err(); err != nil {
			break
		}
		s.logger.Info("Retrieving documents",
			zap.String("subject", subj.ID()),
			zap.String("name", subj.Name()),
			zap.Int("index", i+1),
			zap.Int("total", len(subjects)),
		)

		var recs []document.Record
		for rec := range s.Fetch(ctx, subj, seen) {
			recs = append(recs, rec)
		}
		if err := out.Accumulate(subj.ID(), recs); err != nil {
			return fmt.Errorf("accumulate %s: %w", subj.ID(), err)
		}
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	s.logger.Info("Retrieval finished", zap.Int("documents", seen.Len()))
	return ctx.Err()
}

// Fetch lazily yields at most quota records for subj, skipping works in seen
// and works without an abstract. Any failure ends the sequence early.
func (s *Service) Fetch(ctx context.Context, subj subject.Subject, seen *Seen) iter.Seq[document.Record] {
	return func(yield func(document.Record) bool) {
		log := s.logger.With(zap.String("subject", subj.ID()))
		yielded := 0
		if s.quota == 0 {
			return
		}

		for page := 1; ; page++ {
			p, err := s.fetcher.FetchPage(ctx, subj.WorksURL(), page)
			if err != nil {
				s.abort(log, err, "source", yielded, page)
				return
			}
			if len(p.Results) == 0 {
				log.Info("Source exhausted", zap.Int("page", page), zap.Int("documents", yielded))
				return
			}

			for _, w := range p.Results {
				if seen.Has(w.ID) {
					metrics.WorksSkippedTotal.WithLabelValues("duplicate").Inc()
					continue
				}
				if w.AbstractInvertedIndex == nil {
					metrics.WorksSkippedTotal.WithLabelValues("no_abstract").Inc()
					continue
				}

				rec, err := s.record(w)
				if err != nil {
					s.abort(log, err, "normalize", yielded, page)
					return
				}
				seen.Add(w.ID)
				yielded++
				metrics.DocumentsRetrievedTotal.Inc()
				if !yield(rec) {
					return
				}
				if yielded == s.quota {
					log.Info("Quota reached", zap.Int("documents", yielded))
					return
				}
			}
		}
	}
}

func (s *Service) record(w work.Work) (document.Record, error) {
	text := work.Text(w.DisplayName, w.AbstractInvertedIndex.Abstract())

	data := document.Text(text)
	if s.normalizer != nil {
		tokens, err := s.normalizer.Normalize(text)
		if err != nil {
			return document.Record{}, fmt.Errorf("normalize work %s: %w", w.ID, err)
		}
		data = document.Tokens(tokens)
	}
	return document.NewRecord(data, s.scores(w.Concepts)), nil
}

// scores keeps the concepts present in the catalog, in concept order.
func (s *Service) scores(concepts []work.Concept) document.Scores {
	out := document.Scores{}
	index := make(map[string]int, len(concepts))
	for _, c := range concepts {
		if !s.catalog.Has(c.ID) {
			continue
		}
		if i, ok := index[c.ID]; ok {
			out[i].Value = c.Score
			continue
		}
		index[c.ID] = len(out)
		out = append(out, document.Score{ID: c.ID, Value: c.Score})
	}
	return out
}

func (s *Service) abort(log *zap.Logger, err error, reason string, yielded, page int) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		reason = "canceled"
	}
	metrics.SubjectsAbortedTotal.WithLabelValues(reason).Inc()
	log.Error("Retrieval stopped early",
		zap.String("reason", reason),
		zap.Int("page", page),
		zap.Int("documents", yielded),
		zap.Error(err),
	)
}
