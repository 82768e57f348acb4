// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - SourceStore: Source and stream configuration persistence
//   - JobStore: Sync job ledger with the one-active-job constraint
//   - CheckpointStore: Per-stream cursor persistence
//   - ActivityStore: Push ingestion audit trail
//   - CredentialsStore: OAuth token and API key persistence
//   - RecordStore: Typed record sink
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. A partial unique index over non-terminal statuses
// on sync_jobs(source_id, stream_name) makes job admission an atomic
// conditional insert.
//
// # Data Location
//
// By default, the database is stored at ~/.ariata/data/ariata.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
