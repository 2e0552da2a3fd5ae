// Package rabbitmq owns the broker connection lifecycle for the connector.
//
// ConnectionManager keeps the connection/channel pair behind one mutex and
// exposes a tagged Status (never-connected, connected, stale, closed). The
// publish path consumes that status explicitly: stale pairs are torn down and
// rebuilt with the last-known settings, never-connected managers fail with
// ErrNotConnected. The queue is declared non-durable, non-exclusive and
// non-auto-delete, and messages go through the default exchange with the
// queue name as routing key.
package rabbitmq
