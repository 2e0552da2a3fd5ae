// Package batam is a client-side publisher for the BATAM build and test
// analytics system. It turns build, report and test records into JSON
// envelopes and pushes them onto a RabbitMQ queue for asynchronous ingestion.
//
// The wire message is always {"action": ..., "data": ...} with the record
// embedded as a raw JSON value. Seven actions are supported: create_build,
// update_build, run_analysis, create_report, update_report, create_test and
// update_test.
//
// Configuration resolves from explicit Connect options, previously resolved
// values, BATAM_* environment variables, an optional batam.yaml file and
// compiled defaults. The "publisher" toggle selects between publishing to
// the broker and printing envelopes to standard output, which lets the same
// code path run in a dry-run mode without a broker.
//
// Broker-facing calls run under a bounded retry policy (3 attempts, 1 second
// apart), and a connection whose channel went stale is rebuilt transparently
// on the next publish.
package batam
