// Package metrics exposes Prometheus metrics for evidence capture volume,
// ledger append latency, chain length, and verification outcomes.
package metrics
