// Package sqlite provides a SQLite-backed record store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Folder metadata and extraction records are kept in two tables; records
// are indexed by folder so a folder listing is a single range scan.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.zoomin/data/records.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. SQLite runs in WAL mode so
// searches can read while an import writes.
package sqlite
