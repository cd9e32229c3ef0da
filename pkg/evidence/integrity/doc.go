// Package integrity makes chain verification continuously operable: a cron
// scheduler re-verifies the whole ledger at configured intervals, a file
// watcher triggers verification when the persisted chain changes out of
// band, and every run is recorded as a checkpoint in SQLite so auditors can
// answer "when was this chain last verified, and what was found".
//
// Integrity findings are never auto-corrected. A failed run is logged,
// checkpointed, and counted in metrics; repairing a broken chain is a
// manual, forensic decision.
package integrity
