// Package models defines the entities exchanged between the auth, export and purge layers.
//
// The package contains two categories of types:
//
// 1. Wire and file shapes
//   - [Credentials] : Client registration read from the credential store
//   - [TokenResponse] : Token endpoint answer, kept in memory for one run
//   - [PlaylistSummary] : One entry of the user's playlist listing
//   - [ExportArtifact] : The playlist_<id>.json document with its [TrackRecord] list
//   - [ExportSummary] : The summary.json manifest
//
// 2. Ledger rows persisted in SQLite
//   - [ExportRun] : One export invocation
//   - [ExportFile] : One written artifact and, once purged, why it went away
//
// Timestamps written to disk use [TimeLayout].
package models
