// Package tasks implements the export and lifecycle operations on the export directory.
//
// # Export
//
// [Exporter.Export] lists the user's playlists through a [services.Catalog], narrows them with a
// [Selector] (or takes them all), and writes one playlist_<id>.json per playlist stamped with an
// expires_at of now plus the TTL. Plain text siblings and the summary.json manifest are optional.
// Re-exporting a playlist overwrites its file.
//
// Selection is strict: [ParseSelection] rejects the whole input when any entry is not an integer
// or is out of range, and nothing is written.
//
// # Purge
//
// [Purger] scans the export directory (non-recursively) for playlist_*.json artifacts and removes
// them, together with their .txt siblings, when they have expired or belong to a given owner.
// [Purger.PurgeAll] removes every artifact, sibling and the manifest. Removal failures are logged
// and skipped.
//
// # Ledger
//
// The optional [ExportRecorder] and [RemovalRecorder] hooks receive every written and removed
// artifact. Recorder failures are logged and never fail the operation.
//
// # Progress Reporting
//
// Operations emit [ProgressUpdate] values to an optional [ProgressFunc] on the calling goroutine.
package tasks
