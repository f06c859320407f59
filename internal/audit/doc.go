// Package audit records privilege-sensitive account changes.
//
// Every committed role change, credential reset, or activation change
// produces exactly one audit entry per changed field. Entries are
// append-only: nothing in Portal Core updates or deletes them.
//
// The Recorder compares before/after snapshots of the monitored
// fields, so requests that change nothing produce no entries. Two
// code paths can observe the same mutation (the action API and the
// repository's generic change observer); a transaction-scoped marker
// ensures only the first one records.
package audit
