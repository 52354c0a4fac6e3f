package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline. A nil *Metrics is
// safe to call, which keeps unit tests free of registry setup.
type Metrics struct {
	FilesIngested    *prometheus.CounterVec
	RowsParsed       *prometheus.CounterVec
	IngestDuration   prometheus.Histogram
	JoinOutcomes     *prometheus.CounterVec
	ViolationsRaised *prometheus.CounterVec
	RateLookups      *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		FilesIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_files_ingested_total",
			Help: "Files processed by the ingestion pipeline, by detected type and outcome.",
		}, []string{"file_type", "outcome"}),
		RowsParsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_rows_parsed_total",
			Help: "Rows extracted from ingested files, by validity.",
		}, []string{"file_type", "validity"}),
		IngestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "compass_ingest_duration_seconds",
			Help:    "Wall time spent parsing a single file.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		JoinOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_join_outcomes_total",
			Help: "Salary rows joined against performance rows, by match type.",
		}, []string{"match_type"}),
		ViolationsRaised: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_policy_violations_total",
			Help: "Policy violations emitted per validation pass, by type and severity.",
		}, []string{"type", "severity"}),
		RateLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_rate_lookups_total",
			Help: "Currency rate lookups, by source (api, cache, fallback).",
		}, []string{"source"}),
	}
}

func (m *Metrics) ObserveFileIngested(fileType, outcome string) {
	if m == nil {
		return
	}
	m.FilesIngested.WithLabelValues(fileType, outcome).Inc()
}

func (m *Metrics) AddRowsParsed(fileType, validity string, n int) {
	if m == nil {
		return
	}
	m.RowsParsed.WithLabelValues(fileType, validity).Add(float64(n))
}

func (m *Metrics) ObserveIngestDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.IngestDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveJoinOutcome(matchType string) {
	if m == nil {
		return
	}
	m.JoinOutcomes.WithLabelValues(matchType).Inc()
}

func (m *Metrics) ObserveViolation(vType, severity string) {
	if m == nil {
		return
	}
	m.ViolationsRaised.WithLabelValues(vType, severity).Inc()
}

func (m *Metrics) ObserveRateLookup(source string) {
	if m == nil {
		return
	}
	m.RateLookups.WithLabelValues(source).Inc()
}
