// Package split draws a stratified test sample from each shard.
package split

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/domain"
	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
	"github.com/kailas-cloud/openalex4ml/internal/metrics"
	"github.com/kailas-cloud/openalex4ml/internal/repository/shard"
)

// DefaultFraction is the share of each subject's records moved to the test set.
const DefaultFraction = 0.01

// TestCount returns ceil(n*fraction) capped at n, so every non-empty subject
// contributes at least one test record when fraction > 0.
func TestCount(n int, fraction float64) int {
	k := int(math.Ceil(float64(n) * fraction))
	return min(max(k, 0), n)
}

// Service splits shards into training lists and one global test list.
// Selection is tracked by record id and accumulates across shards.
type Service struct {
	fraction float64
	rng      *rand.Rand
	selected map[string]struct{}
	logger   *zap.Logger
}

// New creates a splitter. fraction must lie in [0, 1]. A nil rng draws from
// a randomly seeded source.
func New(fraction float64, rng *rand.Rand, logger *zap.Logger) (*Service, error) {
	if math.IsNaN(fraction) || fraction < 0 || fraction > 1 {
		return nil, fmt.Errorf("%w: got %v", domain.ErrInvalidFraction, fraction)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Service{
		fraction: fraction,
		rng:      rng,
		selected: make(map[string]struct{}),
		logger:   logger,
	}, nil
}

// NewSeeded creates a splitter whose draws are reproducible for seed.
func NewSeeded(fraction float64, seed uint64, logger *zap.Logger) (*Service, error) {
	return New(fraction, rand.New(rand.NewPCG(seed, seed)), logger)
}

// Split samples each subject's records for test and returns the rest,
// flattened in subject order, as training data.
func (s *Service) Split(sh *document.Shard[document.Record]) (train, test []document.Record) {
	train = []document.Record{}
	test = []document.Record{}
	for _, id := range sh.Subjects() {
		recs := sh.Records(id)
		k := TestCount(len(recs), s.fraction)
		for _, i := range s.rng.Perm(len(recs))[:k] {
			test = append(test, recs[i])
			s.selected[recs[i].ID] = struct{}{}
		}
		for _, r := range recs {
			if _, ok := s.selected[r.ID]; !ok {
				train = append(train, r)
			}
		}
		s.logger.Debug("Subject split",
			zap.String("subject", id),
			zap.Int("records", len(recs)),
			zap.Int("test", k),
		)
	}
	return train, test
}

// Run splits every shard of in, writing training lists under the same
// names and the accumulated test list as test.json.
func (s *Service) Run(ctx context.Context, in ShardSource, out ShardSink) error {
	names, err := in.Names()
	if err != nil {
		return fmt.Errorf("list input shards: %w", err)
	}

	tests := []document.Record{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if name == shard.TestName {
			continue
		}
		sh, err := in.ReadMap(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		train, test := s.Split(sh)
		tests = append(tests, test...)
		if err := out.Write(name, train); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		metrics.ShardsWrittenTotal.WithLabelValues("split").Inc()
		metrics.RecordsWrittenTotal.WithLabelValues("split").Add(float64(len(train)))
		s.logger.Info("Training shard written", zap.String("shard", name), zap.Int("records", len(train)))
	}

	if err := out.Write(shard.TestName, tests); err != nil {
		return fmt.Errorf("write %s: %w", shard.TestName, err)
	}
	metrics.ShardsWrittenTotal.WithLabelValues("split").Inc()
	metrics.RecordsWrittenTotal.WithLabelValues("split").Add(float64(len(tests)))
	s.logger.Info("Test set written", zap.Int("records", len(tests)))
	return nil
}
