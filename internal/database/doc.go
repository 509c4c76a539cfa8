// Package database provides SQLite-based storage for audit history.
//
// This package implements the HistoryDB, which stores:
//   - Document metadata from the last fetch of each target
//   - Complete audit reports, one row per run, keyed by a UUID run ID
//   - Per-rule finding counts for trend queries
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the
// database is a single file in the XDG data directory and the CGO-free
// driver keeps cross-compilation easy. Content hashes use SHA3-256 so two
// runs over identical markup can be recognised.
package database
