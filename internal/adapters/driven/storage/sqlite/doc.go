// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - ArtifactStore: Evidence artifact persistence with idempotent upsert
//   - MappingStore: Artifact-to-control mapping persistence
//   - SyncJobStore: Sync job progress persistence
//   - IntegrationStore: Integration configuration persistence
//   - AuditStore: Append-only audit log persistence
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. The artifacts table enforces the uniqueness of
// (org_id, source_system, source_object_id) so concurrent syncs can neither
// duplicate evidence nor silently lose a write.
//
// # Data Location
//
// By default, the database is stored at ~/.attest/data/attest.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
