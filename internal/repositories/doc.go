// Package repositories implements the SQLite export ledger.
//
// The ledger is a history of what the tool wrote and removed. The export directory stays the
// source of truth for purging; the ledger only mirrors it.
//
// Key Implementations:
//   - [Ledger] : Transactional recording of export runs and artifact removals
//   - [RunRepository] : export_runs rows, newest first
//   - [FileRepository] : export_files rows with removed_at/removed_reason lifecycle
package repositories
