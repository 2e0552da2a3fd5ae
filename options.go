package batam

import (
	"io"
	"log/slog"

	"github.com/ngadireddy-mn/batam/internal/config"
	"github.com/ngadireddy-mn/batam/internal/rabbitmq"
	"github.com/ngadireddy-mn/batam/internal/reliability"
)

// Option configures a Connector at construction time.
type Option func(*Connector)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) {
		c.logger = logger
	}
}

// WithRetryPolicy replaces the default broker retry policy of 3 attempts with
// a 1 second delay.
func WithRetryPolicy(policy reliability.RetryPolicy) Option {
	return func(c *Connector) {
		c.retry = policy
	}
}

// WithOutput sets the writer envelopes are printed to when publishing is
// disabled. Defaults to standard output.
func WithOutput(w io.Writer) Option {
	return func(c *Connector) {
		c.out = w
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(c *Connector) {
		c.metrics = m
	}
}

// WithConfigFile sets the YAML config file path. Defaults to BATAM_CONFIG or
// batam.yaml.
func WithConfigFile(path string) Option {
	return func(c *Connector) {
		c.configPath = path
	}
}

// withDialer substitutes the broker dial function. Used by tests to run
// against an in-memory transport.
func withDialer(dial rabbitmq.Dialer) Option {
	return func(c *Connector) {
		c.dialer = dial
	}
}

// ConnectOption supplies an explicit configuration value for a Connect call.
// Values not supplied fall through to previously resolved values, the
// BATAM_* environment variables, the config file, and compiled defaults, in
// that order.
type ConnectOption func(*config.Overrides)

// WithHost sets the broker host.
func WithHost(host string) ConnectOption {
	return func(ov *config.Overrides) { ov.Host = &host }
}

// WithUsername sets the broker username.
func WithUsername(username string) ConnectOption {
	return func(ov *config.Overrides) { ov.Username = &username }
}

// WithPassword sets the broker password.
func WithPassword(password string) ConnectOption {
	return func(ov *config.Overrides) { ov.Password = &password }
}

// WithPort sets the broker port.
func WithPort(port int) ConnectOption {
	return func(ov *config.Overrides) { ov.Port = &port }
}

// WithVHost sets the broker virtual host.
func WithVHost(vhost string) ConnectOption {
	return func(ov *config.Overrides) { ov.VHost = &vhost }
}

// WithQueue sets the queue messages are published to.
func WithQueue(queue string) ConnectOption {
	return func(ov *config.Overrides) { ov.Queue = &queue }
}

// WithPublisher sets the publish toggle: "on" and "true" publish to the
// broker, anything else prints envelopes to the output writer instead. The
// toggle is re-evaluated on every Connect call.
func WithPublisher(mode string) ConnectOption {
	return func(ov *config.Overrides) { ov.Publish = &mode }
}
