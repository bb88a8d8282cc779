// Package correct closes document labels under the subject hierarchy.
package correct

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
	"github.com/kailas-cloud/openalex4ml/internal/metrics"
)

// Complete returns scores extended with every ancestor of every assigned
// subject. Original pairs are kept as they are; a missing ancestor takes the
// score of the first original subject, in order, that lists it.
func Complete(scores document.Scores, catalog AncestorResolver) (document.Scores, error) {
	out := make(document.Scores, len(scores), len(scores)*2)
	copy(out, scores)

	present := make(map[string]struct{}, len(scores))
	for _, sc := range scores {
		present[sc.ID] = struct{}{}
	}

	for _, sc := range scores {
		ancestors, err := catalog.Ancestors(sc.ID)
		if err != nil {
			return nil, fmt.Errorf("complete %s: %w", sc.ID, err)
		}
		for _, a := range ancestors {
			if _, ok := present[a.ID]; ok {
				continue
			}
			present[a.ID] = struct{}{}
			out = append(out, document.Score{ID: a.ID, Value: sc.Value})
		}
	}
	return out, nil
}

// Service corrects a directory of shards.
type Service struct {
	catalog AncestorResolver
	logger  *zap.Logger
}

// New creates a correction service.
func New(catalog AncestorResolver, logger *zap.Logger) *Service {
	return &Service{catalog: catalog, logger: logger}
}

// Run rewrites every shard of in into out under the same name.
// The first unknown subject aborts the run.
func (s *Service) Run(ctx context.Context, in ShardSource, out ShardSink) error {
	names, err := in.Names()
	if err != nil {
		return fmt.Errorf("list input shards: %w", err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		sh, err := in.ReadMap(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		fixed, added, err := s.correctShard(sh)
		if err != nil {
			return fmt.Errorf("correct %s: %w", name, err)
		}
		if err := out.Write(name, fixed); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		metrics.ShardsWrittenTotal.WithLabelValues("correct").Inc()
		metrics.RecordsWrittenTotal.WithLabelValues("correct").Add(float64(fixed.Len()))
		s.logger.Info("Shard corrected",
			zap.String("shard", name),
			zap.Int("records", fixed.Len()),
			zap.Int("labels_added", added),
		)
	}
	return nil
}

func (s *Service) correctShard(sh *document.Shard[document.Record]) (*document.Shard[document.Record], int, error) {
	out := document.NewShard[document.Record]()
	added := 0
	for _, id := range sh.Subjects() {
		recs := sh.Records(id)
		fixed := make([]document.Record, len(recs))
		for i, r := range recs {
			scores, err := Complete(r.Subjects, s.catalog)
			if err != nil {
				return nil, 0, fmt.Errorf("record %s: %w", r.ID, err)
			}
			added += len(scores) - len(r.Subjects)
			fixed[i] = r.WithSubjects(scores)
		}
		out.Add(id, fixed...)
	}
	return out, added, nil
}
