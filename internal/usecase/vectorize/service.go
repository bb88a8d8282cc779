// Package vectorize replaces record tokens with embedding vectors.
package vectorize

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
	"github.com/kailas-cloud/openalex4ml/internal/metrics"
	"github.com/kailas-cloud/openalex4ml/internal/repository/shard"
)

// Service projects shards through a vector table.
type Service struct {
	table  VectorTable
	logger *zap.Logger
}

// New creates a vectorizer.
func New(table VectorTable, logger *zap.Logger) *Service {
	return &Service{table: table, logger: logger}
}

// Record vectorizes one record. Tokens missing from the table are dropped.
func (s *Service) Record(ctx context.Context, r document.Record) (document.Vectorized, error) {
	words := r.Data.Words()
	vecs, err := s.table.Lookup(ctx, words)
	if err != nil {
		return document.Vectorized{}, fmt.Errorf("record %s: %w", r.ID, err)
	}

	data := make([][]float32, 0, len(words))
	for _, v := range vecs {
		if v != nil {
			data = append(data, v)
		}
	}
	misses := len(words) - len(data)
	metrics.TokenLookupsTotal.WithLabelValues("hit").Add(float64(len(data)))
	metrics.TokenLookupsTotal.WithLabelValues("miss").Add(float64(misses))
	s.logger.Debug("Record vectorized",
		zap.String("record", r.ID),
		zap.Int("tokens", len(words)),
		zap.Int("misses", misses),
	)
	return document.Vectorized{ID: r.ID, Data: data, Subjects: r.Subjects}, nil
}

// Run vectorizes every shard of in and writes it to out in the same shape
// and under the same name.
func (s *Service) Run(ctx context.Context, in ShardSource, out ShardSink) error {
	names, err := in.Names()
	if err != nil {
		return fmt.Errorf("list input shards: %w", err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := in.ReadRaw(name)
		if err != nil {
			return err
		}
		shape, err := shard.Peek(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		var (
			result any
			count  int
		)
		switch shape {
		case shard.ShapeMap:
			sh, err := shard.DecodeMap[document.Record](name, data)
			if err != nil {
				return err
			}
			result, count, err = s.vectorizeMap(ctx, sh)
			if err != nil {
				return fmt.Errorf("vectorize %s: %w", name, err)
			}
		case shard.ShapeList:
			recs, err := shard.DecodeList[document.Record](name, data)
			if err != nil {
				return err
			}
			result, err = s.vectorizeList(ctx, recs)
			if err != nil {
				return fmt.Errorf("vectorize %s: %w", name, err)
			}
			count = len(recs)
		}

		if err := out.Write(name, result); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		metrics.ShardsWrittenTotal.WithLabelValues("vectorize").Inc()
		metrics.RecordsWrittenTotal.WithLabelValues("vectorize").Add(float64(count))
		s.logger.Info("Shard vectorized", zap.String("shard", name), zap.Int("records", count))
	}
	return nil
}

func (s *Service) vectorizeMap(ctx context.Context, sh *document.Shard[document.Record]) (*document.Shard[document.Vectorized], int, error) {
	out := document.NewShard[document.Vectorized]()
	for _, id := range sh.Subjects() {
		vecs, err := s.vectorizeList(ctx, sh.Records(id))
		if err != nil {
			return nil, 0, err
		}
		out.Add(id, vecs...)
	}
	return out, out.Len(), nil
}

func (s *Service) vectorizeList(ctx context.Context, recs []document.Record) ([]document.Vectorized, error) {
	out := make([]document.Vectorized, 0, len(recs))
	for _, r := range recs {
		v, err := s.Record(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
