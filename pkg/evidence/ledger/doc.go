// Package ledger implements the tamper-evident evidence ledger: an
// append-only sequence of chain nodes, each binding one evidence record to
// its content hash and to its predecessor's record hash.
//
// Two hashes protect each node independently. The data hash covers the
// canonical serialized evidence content, so verification can tell that the
// content of a record was altered. The record hash covers the previous
// hash, the data hash, and the timestamp, so verification can tell that the
// chain linkage was tampered with — nodes reordered, removed, or spliced —
// even when every node's content is individually intact.
//
// The chain is persisted as a whole-snapshot JSON document through a
// ChainStore; FileStore writes snapshots atomically (temp file, fsync,
// rename) so a crash never truncates the chain.
package ledger
