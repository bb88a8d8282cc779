package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline Prometheus metrics.
var (
	SourceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Work-listing page requests by outcome",
		},
		[]string{"status"}, // "ok" / "transport" / "http" / "decode"
	)

	SourceRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Work-listing page request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	DocumentsRetrievedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_retrieved_total",
			Help:      "Documents emitted by the retriever",
		},
	)

	WorksSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "works_skipped_total",
			Help:      "Works skipped during retrieval",
		},
		[]string{"reason"}, // "duplicate" / "no_abstract"
	)

	SubjectsAbortedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subjects_aborted_total",
			Help:      "Subjects whose retrieval stopped on a failure",
		},
		[]string{"reason"}, // "source" / "normalize" / "canceled"
	)

	ShardsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shards_written_total",
			Help:      "Shard files written by stage",
		},
		[]string{"stage"},
	)

	RecordsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Records written by stage",
		},
		[]string{"stage"},
	)

	TokenLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_lookups_total",
			Help:      "Vectorizer token lookups by result",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerOnce sync.Once

// Register adds every collector of the package to reg. Later calls are no-ops.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			SourceRequestsTotal,
			SourceRequestDuration,
			DocumentsRetrievedTotal,
			WorksSkippedTotal,
			SubjectsAbortedTotal,
			ShardsWrittenTotal,
			RecordsWrittenTotal,
			TokenLookupsTotal,
		)
		reg.MustRegister(embeddingCollectors()...)
		reg.MustRegister(httpRequestDuration, httpRequestsTotal)
	})
}
