// Package metrics exposes Prometheus counters for review passes and writes
// them to a textfile at the end of a CI job.
package metrics
