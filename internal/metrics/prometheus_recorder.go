package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	opDuration        *prom.HistogramVec
	opFailures        *prom.CounterVec
	recordsLive       prom.Gauge
	journalBytes      prom.Gauge
	compactions       prom.Counter
	compactionSeconds prom.Histogram
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		opDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "chronicle",
			Name:      "operation_duration_seconds",
			Help:      "Duration of dataset operations",
			Buckets:   prom.DefBuckets,
		}, []string{"op"}),
		opFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "chronicle",
			Name:      "operation_failures_total",
			Help:      "Failed dataset operations by kind",
		}, []string{"op"}),
		recordsLive: prom.NewGauge(prom.GaugeOpts{
			Namespace: "chronicle",
			Name:      "records_live",
			Help:      "Number of live records in the dataset",
		}),
		journalBytes: prom.NewGauge(prom.GaugeOpts{
			Namespace: "chronicle",
			Name:      "journal_bytes",
			Help:      "Storage footprint of the journal",
		}),
		compactions: prom.NewCounter(prom.CounterOpts{
			Namespace: "chronicle",
			Name:      "compactions_total",
			Help:      "Completed journal compactions",
		}),
		compactionSeconds: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "chronicle",
			Name:      "compaction_duration_seconds",
			Help:      "Duration of journal compactions",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.opDuration, pr.opFailures, pr.recordsLive,
		pr.journalBytes, pr.compactions, pr.compactionSeconds)
	return pr
}

func (p *PrometheusRecorder) ObserveOperation(op string, d time.Duration) {
	if p == nil {
		return
	}
	p.opDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncOperationFailure(op string) {
	if p == nil {
		return
	}
	p.opFailures.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) SetRecordsLive(n int) {
	if p == nil {
		return
	}
	p.recordsLive.Set(float64(n))
}

func (p *PrometheusRecorder) SetJournalBytes(n int64) {
	if p == nil {
		return
	}
	p.journalBytes.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveCompaction(d time.Duration) {
	if p == nil {
		return
	}
	p.compactions.Inc()
	p.compactionSeconds.Observe(d.Seconds())
}
