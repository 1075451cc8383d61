package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics observes the outbox worker.
type Metrics struct {
	PendingDepth    prometheus.Gauge
	PublishedTotal  prometheus.Counter
	PublishFailures prometheus.Counter
	PublishDuration prometheus.Histogram
	BatchSize       prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PendingDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashwallet_outbox_pending",
			Help: "Outbox entries waiting to be published",
		}),
		PublishedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "cashwallet_outbox_published_total",
			Help: "Outbox entries published to Kafka",
		}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "cashwallet_outbox_publish_failures_total",
			Help: "Outbox fetch or publish failures",
		}),
		PublishDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashwallet_outbox_publish_duration_seconds",
			Help:    "Time taken to publish one outbox entry",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashwallet_outbox_batch_size",
			Help:    "Entries fetched per poll",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
}

func (m *Metrics) SetPendingDepth(n int64)          { m.PendingDepth.Set(float64(n)) }
func (m *Metrics) IncPublished()                    { m.PublishedTotal.Inc() }
func (m *Metrics) IncPublishFailures()              { m.PublishFailures.Inc() }
func (m *Metrics) ObservePublishDuration(s float64) { m.PublishDuration.Observe(s) }
func (m *Metrics) ObserveBatchSize(n int)           { m.BatchSize.Observe(float64(n)) }
