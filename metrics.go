package batam

import "time"

// MetricsCollector receives publish outcomes. The telemetry package provides
// a Prometheus-backed implementation.
type MetricsCollector interface {
	// RecordPublish records one publish attempt for an action. Dry-run
	// prints count as successful publishes with zero duration.
	RecordPublish(action string, duration time.Duration, success bool)
}

// NoOpMetricsCollector discards all metrics.
type NoOpMetricsCollector struct{}

// RecordPublish does nothing.
func (NoOpMetricsCollector) RecordPublish(action string, duration time.Duration, success bool) {}
