// Package batch accumulates retrieved records per subject and flushes them
// to numbered shard files.
package batch

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/openalex4ml/internal/domain/document"
	"github.com/kailas-cloud/openalex4ml/internal/metrics"
	"github.com/kailas-cloud/openalex4ml/internal/repository/shard"
)

// DefaultThreshold is the record count that triggers a flush.
const DefaultThreshold = 3000

// Writer buffers whole subjects and starts a new shard once the buffered
// record count reaches the threshold. Boundaries never split a subject.
type Writer struct {
	out       ShardWriter
	threshold int
	logger    *zap.Logger

	current *document.Shard[document.Record]
	count   int
	next    int
	closed  bool
}

// New creates a batch writer.
func New(out ShardWriter, logger *zap.Logger) *Writer {
	return &Writer{
		out:       out,
		threshold: DefaultThreshold,
		logger:    logger,
		current:   document.NewShard[document.Record](),
		next:      1,
	}
}

// WithThreshold configures the flush threshold.
func (w *Writer) WithThreshold(n int) *Writer {
	if n > 0 {
		w.threshold = n
	}
	return w
}

// Accumulate adds the complete record list of one subject. A subject with
// no records is still kept as a key. The threshold is checked afterwards.
func (w *Writer) Accumulate(subjectID string, recs []document.Record) error {
	if w.closed {
		return fmt.Errorf("accumulate %s: writer closed", subjectID)
	}
	w.current.Add(subjectID, recs...)
	w.count += len(recs)

	if w.count >= w.threshold {
		return w.flush()
	}
	return nil
}

// Close flushes a remainder holding at least one subject key, even when
// those subjects yielded no records. Later calls are no-ops.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.current.NumSubjects() == 0 {
		return nil
	}
	return w.flush()
}

// Shards returns the number of shards written so far.
func (w *Writer) Shards() int { return w.next - 1 }

func (w *Writer) flush() error {
	name := shard.Name(w.next)
	if err := w.out.Write(name, w.current); err != nil {
		return fmt.Errorf("flush shard %s: %w", name, err)
	}
	metrics.ShardsWrittenTotal.WithLabelValues("fetch").Inc()
	metrics.RecordsWrittenTotal.WithLabelValues("fetch").Add(float64(w.count))
	w.logger.Info("Shard written",
		zap.String("shard", name),
		zap.Int("subjects", w.current.NumSubjects()),
		zap.Int("records", w.count),
	)

	w.next++
	w.count = 0
	w.current = document.NewShard[document.Record]()
	return nil
}
