// Package reliability wraps broker-facing calls in a bounded retry policy.
//
// Every network operation the connector performs (connect, publish, close)
// runs through Retry with a FixedDelay policy. Errors can opt out of the
// policy by implementing IsRetryable() bool or by being wrapped with
// Permanent; everything else is treated as transient.
package reliability
