package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ngadireddy-mn/batam"
)

// PublishMetrics exposes connector publish outcomes as Prometheus metrics.
// Pass it to batam.WithMetrics.
type PublishMetrics struct {
	published *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

var _ batam.MetricsCollector = (*PublishMetrics)(nil)

// NewPublishMetrics creates the publish metrics and registers them with reg.
// A nil registerer leaves registration to the caller.
func NewPublishMetrics(reg prometheus.Registerer) *PublishMetrics {
	m := &PublishMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "batam",
			Subsystem: "connector",
			Name:      "messages_published_total",
			Help:      "Messages published, partitioned by action and outcome.",
		}, []string{"action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "batam",
			Subsystem: "connector",
			Name:      "publish_duration_seconds",
			Help:      "Time spent delivering a message to the broker.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
	}

	if reg != nil {
		reg.MustRegister(m.published, m.duration)
	}

	return m
}

// RecordPublish implements batam.MetricsCollector.
func (m *PublishMetrics) RecordPublish(action string, duration time.Duration, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.published.WithLabelValues(action, outcome).Inc()

	if duration > 0 {
		m.duration.WithLabelValues(action).Observe(duration.Seconds())
	}
}
