// Package metrics defines the Prometheus instrumentation shared by the
// scheduler and the pipeline surfaces.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters exported on /metrics.
type Metrics struct {
	RecordsIngested  prometheus.Counter
	RecordsProcessed prometheus.Counter
	RecordsFailed    prometheus.Counter
	AlertsEmitted    prometheus.Counter
}

// New creates and registers the counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shield",
			Name:      "records_ingested_total",
			Help:      "Records inserted by the ingestion collectors.",
		}),
		RecordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shield",
			Name:      "records_processed_total",
			Help:      "Records fully enriched by the pipeline.",
		}),
		RecordsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shield",
			Name:      "records_failed_total",
			Help:      "Records that failed enrichment and were skipped.",
		}),
		AlertsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shield",
			Name:      "alerts_emitted_total",
			Help:      "Alerts created by the threshold scans.",
		}),
	}
	reg.MustRegister(m.RecordsIngested, m.RecordsProcessed, m.RecordsFailed, m.AlertsEmitted)
	return m
}
