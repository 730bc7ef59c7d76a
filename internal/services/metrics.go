package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Data endpoint metrics
	SnapshotLoads *prometheus.CounterVec // result: "full" or "not_modified"
	SnapshotSaves prometheus.Counter
	SaveFailures  *prometheus.CounterVec // type: "write_failure" or "verification_failure"
	DegradedSaves prometheus.Counter

	// Retrieval metrics
	RetrievalQueries prometheus.Counter
	AutoResponseHits prometheus.Counter
	RetrievalLatency prometheus.Histogram

	// Summarizer metrics
	SummariesProduced prometheus.Counter
	SummaryFailures   prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics(broadcaster *Broadcaster) *Metrics {
	metrics := &Metrics{
		SnapshotLoads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "supportboard_snapshot_loads_total",
			Help: "Total number of snapshot reads by result",
		}, []string{"result"}),

		SnapshotSaves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supportboard_snapshot_saves_total",
			Help: "Total number of successful snapshot writes",
		}),

		SaveFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "supportboard_snapshot_save_failures_total",
			Help: "Total number of failed snapshot writes by failure type",
		}, []string{"type"}),

		DegradedSaves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supportboard_snapshot_degraded_saves_total",
			Help: "Total number of saves that landed in process memory only",
		}),

		RetrievalQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supportboard_retrieval_queries_total",
			Help: "Total number of retrieval queries processed",
		}),

		AutoResponseHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supportboard_auto_response_hits_total",
			Help: "Total number of queries short-circuited by an auto-response",
		}),

		RetrievalLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "supportboard_retrieval_duration_seconds",
			Help:    "Retrieval query latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),

		SummariesProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supportboard_summaries_produced_total",
			Help: "Total number of thread summaries queued for review",
		}),

		SummaryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "supportboard_summary_failures_total",
			Help: "Total number of failed summarization calls",
		}),
	}

	// Dashboard clients currently subscribed to change events.
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "supportboard_event_subscribers_current",
			Help: "Current number of websocket event subscribers",
		},
		func() float64 {
			if broadcaster != nil {
				return float64(broadcaster.Count())
			}
			return 0
		},
	))

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}
