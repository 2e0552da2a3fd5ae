package rabbitmq

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotConnected is returned when a publish is attempted before any
	// connection has been established.
	ErrNotConnected = errors.New("rabbitmq: not connected")
)

// ConnectionError reports a failed connection attempt: unreachable broker,
// rejected credentials, or a failed channel or queue setup.
type ConnectionError struct {
	Op        string
	Host      string
	Err       error
	Timestamp time.Time
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rabbitmq connection error: %s to %s failed: %v", e.Op, e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// PublishError reports a failed send on an open channel.
type PublishError struct {
	Queue     string
	Err       error
	Timestamp time.Time
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("rabbitmq publish error: failed to publish to queue %q: %v", e.Queue, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
