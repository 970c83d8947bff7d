package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the worker's Prometheus collectors.
type Metrics struct {
	JobsTotal      *prometheus.CounterVec
	JobDuration    prometheus.Histogram
	EncodeProgress prometheus.Gauge
	QueueErrors    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "episode_jobs_total",
				Help: "Episode status reports by status",
			},
			[]string{"status"},
		),
		JobDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "episode_job_duration_seconds",
				Help:    "Wall time of finished episode jobs",
				Buckets: prometheus.ExponentialBuckets(5, 2, 10),
			},
		),
		EncodeProgress: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "episode_encode_progress_percent",
				Help: "Progress of the episode currently being encoded",
			},
		),
		QueueErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_errors_total",
				Help: "Errors recovered by the queue listener by kind",
			},
			[]string{"kind"},
		),
	}
	for _, c := range []prometheus.Collector{m.JobsTotal, m.JobDuration, m.EncodeProgress, m.QueueErrors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) JobStatus(status string) {
	m.JobsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) JobFinished(elapsed time.Duration) {
	m.JobDuration.Observe(elapsed.Seconds())
	m.EncodeProgress.Set(0)
}

func (m *Metrics) Progress(percent int) {
	m.EncodeProgress.Set(float64(percent))
}

func (m *Metrics) QueueError(kind string) {
	m.QueueErrors.WithLabelValues(kind).Inc()
}
