// Package storage provides evidence index backends implementing the
// evidence.Storage interface.
//
// The index is a read-optimized projection of captured evidence: get,
// list, and range queries are served here without walking the ledger. The
// ledger remains the authoritative, tamper-evident record; the index can
// always be rebuilt from it.
//
// Two backends are provided:
//
//   - SQLiteStorage: durable, indexed storage for production use.
//   - MemoryStorage: in-memory storage for tests and ephemeral runs.
package storage
