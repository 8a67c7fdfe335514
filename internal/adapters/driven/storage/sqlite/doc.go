// Package sqlite provides SQLite-backed persistence for docindex:
// the chunk store (rebuild source of truth for the vector index), the
// durable job queue, the search query log and the access grants the
// resolver reads.
//
// A single Store owns the database handle; typed accessors hand out the
// per-port wrappers. Migrations are embedded and applied on open.
package sqlite
