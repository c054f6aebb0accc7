// Package metrics provides lock-free counters for authgate
// observability.
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically via [sync/atomic.AddUint64]; the write path is
// allocation-free. Export (Prometheus text format) lives in
// metrics/export/ and reads Snapshot values.
//
// This package performs no I/O and imports no sibling package.
package metrics
