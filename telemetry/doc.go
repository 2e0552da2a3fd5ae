// Package telemetry carries the connector's observability helpers: an
// environment-driven slog setup and a Prometheus collector for publish
// outcomes.
package telemetry
