// Package evidence defines the core data model for compliance evidence:
// immutable evidence records, the capture request contract, the query model,
// and the Storage interface implemented by index backends.
//
// The package is organized into subpackages:
//
//   - ledger: the append-only, hash-chained evidence ledger and its durable
//     chain store, plus integrity verification.
//   - storage: evidence index backends (SQLite, in-memory) serving read
//     queries without touching the ledger.
//   - service: the capture orchestration layer — the only component allowed
//     to create evidence records.
//   - integrity: continuous integrity monitoring (scheduled verification,
//     chain file watching, checkpoint history).
//   - export: JSON and CSV export of evidence records and chain trails.
//
// Evidence records are facts, not tasks: they carry no internal state and
// are never edited after capture. Corrections and follow-ups (for example a
// remediation outcome landing after the original violation was recorded) are
// new records linked to the original via the Linkages field.
package evidence
