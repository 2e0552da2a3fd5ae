// Package contracts defines the build, report and test records the connector
// publishes, and the envelope that wraps them on the wire.
//
// Records validate their own required fields: constructors (NewBuild,
// NewReport, NewTest) reject missing names, dates or parent references before
// any network interaction, and partial records used for updates check their
// identifying fields through ValidateRef. All dates marshal as RFC3339 UTC.
//
// The wire format is a two-key JSON object:
//
//	{"action":"create_build","data":{...record...}}
//
// with the record embedded as a raw JSON value.
package contracts
