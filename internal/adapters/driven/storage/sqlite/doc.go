// Package sqlite provides an embedded SQLite implementation of driven.VectorStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database file holds any number of
// collections; each VectorStore handle is bound to one of them.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// Vectors are stored as little-endian float32 blobs. Search is brute force:
// every vector in the collection is scored with cosine similarity in Go.
// This suits knowledge bases of up to tens of thousands of passages.
//
// # Data Location
//
// By default, the database is stored at ~/.kbase/data/vectors.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode, so readers are not blocked by a writer.
package sqlite
