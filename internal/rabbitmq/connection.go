package rabbitmq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ngadireddy-mn/batam/internal/config"
)

// Channel is the subset of AMQP channel operations the connector uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// Connection is the subset of AMQP connection operations the connector uses.
type Connection interface {
	Channel() (Channel, error)
	IsClosed() bool
	Close() error
}

// Dialer opens a broker connection for the given AMQP URL. Tests substitute
// an in-memory implementation.
type Dialer func(url string) (Connection, error)

// AMQPDialer dials a real RabbitMQ broker with amqp091-go.
func AMQPDialer(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn}, nil
}

type amqpConnection struct {
	conn *amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c amqpConnection) IsClosed() bool { return c.conn.IsClosed() }
func (c amqpConnection) Close() error   { return c.conn.Close() }

// Status is the observable state of the connection/channel pair.
type Status int

const (
	// StatusNeverConnected means no connection attempt has succeeded yet.
	StatusNeverConnected Status = iota
	// StatusConnected means both connection and channel are open.
	StatusConnected
	// StatusStale means the pair exists but one side reports closed.
	StatusStale
	// StatusClosed means the manager was shut down explicitly.
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusNeverConnected:
		return "never-connected"
	case StatusConnected:
		return "connected"
	case StatusStale:
		return "stale"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnectionManager owns the broker connection and channel pair. Either both
// are present and open, or both are absent. All access is serialized behind a
// single mutex so concurrent publishes are safe.
type ConnectionManager struct {
	mu       sync.Mutex
	dial     Dialer
	logger   *slog.Logger
	settings config.Settings
	conn     Connection
	ch       Channel
	closed   bool
}

// ConnectionOption configures the ConnectionManager.
type ConnectionOption func(*ConnectionManager)

// WithDialer sets the dial function.
func WithDialer(dial Dialer) ConnectionOption {
	return func(cm *ConnectionManager) {
		cm.dial = dial
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ConnectionOption {
	return func(cm *ConnectionManager) {
		cm.logger = logger
	}
}

// NewConnectionManager creates a connection manager.
func NewConnectionManager(options ...ConnectionOption) *ConnectionManager {
	cm := &ConnectionManager{
		dial:   AMQPDialer,
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(cm)
	}

	return cm
}

// Connect opens a new connection and channel using the given settings and
// declares the target queue. The settings are kept for self-healing
// reconnects.
func (cm *ConnectionManager) Connect(ctx context.Context, settings config.Settings) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.settings = settings
	cm.closed = false

	cm.closeResourcesLocked()
	return cm.connectLocked(ctx)
}

// State reports the current connection status.
func (cm *ConnectionManager) State() Status {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.stateLocked()
}

// Publish sends body to the configured queue through the default exchange.
// It fails with ErrNotConnected when no connection was ever established, and
// transparently rebuilds a stale connection/channel pair before sending.
func (cm *ConnectionManager) Publish(ctx context.Context, body []byte) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := cm.ensureLocked(ctx); err != nil {
		return err
	}

	err := cm.ch.PublishWithContext(ctx, "", cm.settings.Queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   uuid.NewString(),
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		return &PublishError{
			Queue:     cm.settings.Queue,
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	return nil
}

// Close shuts the channel, then the connection. Missing resources are a
// no-op, so Close is safe to call at any point.
func (cm *ConnectionManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.ch == nil && cm.conn == nil {
		return nil
	}

	var firstErr error
	if cm.ch != nil {
		if err := cm.ch.Close(); err != nil {
			firstErr = err
		}
		cm.ch = nil
	}
	if cm.conn != nil {
		if err := cm.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		cm.conn = nil
	}

	cm.closed = true
	cm.logger.Info("disconnected from broker", "queue", cm.settings.Queue)
	return firstErr
}

func (cm *ConnectionManager) stateLocked() Status {
	if cm.conn == nil || cm.ch == nil {
		if cm.closed {
			return StatusClosed
		}
		return StatusNeverConnected
	}
	if cm.conn.IsClosed() || cm.ch.IsClosed() {
		return StatusStale
	}
	return StatusConnected
}

// ensureLocked guarantees an open channel exists before a publish, rebuilding
// the pair with the last-known settings when either side went stale. Broker
// idle timeouts and transient drops must not require a manual reconnect.
func (cm *ConnectionManager) ensureLocked(ctx context.Context) error {
	switch cm.stateLocked() {
	case StatusConnected:
		return nil
	case StatusStale:
		cm.logger.Warn("connection stale, reconnecting",
			"host", cm.settings.Host,
			"queue", cm.settings.Queue)
		cm.closeResourcesLocked()
		return cm.connectLocked(ctx)
	default:
		return ErrNotConnected
	}
}

func (cm *ConnectionManager) connectLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := cm.dial(cm.settings.URL())
	if err != nil {
		return &ConnectionError{
			Op:        "connect",
			Host:      cm.settings.Host,
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return &ConnectionError{
			Op:        "open channel",
			Host:      cm.settings.Host,
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	if _, err := ch.QueueDeclare(cm.settings.Queue, false, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return &ConnectionError{
			Op:        "declare queue",
			Host:      cm.settings.Host,
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	cm.conn = conn
	cm.ch = ch

	cm.logger.Info("connected to broker",
		"host", cm.settings.Host,
		"port", cm.settings.Port,
		"vhost", cm.settings.VHost,
		"queue", cm.settings.Queue)

	return nil
}

// closeResourcesLocked tears down half-open resources before a rebuild.
// Close errors on an already-broken pair carry no information.
func (cm *ConnectionManager) closeResourcesLocked() {
	if cm.ch != nil {
		if !cm.ch.IsClosed() {
			_ = cm.ch.Close()
		}
		cm.ch = nil
	}
	if cm.conn != nil {
		if !cm.conn.IsClosed() {
			_ = cm.conn.Close()
		}
		cm.conn = nil
	}
}
