// Package postgres implements driven.VectorStore on PostgreSQL with the
// pgvector extension, using jackc/pgx.
//
// Collection definitions live in kbase_collections. Each collection gets
// its own points table because a pgvector column has a fixed dimension.
// Similarity is 1 - cosine distance (the <=> operator), which is the
// cosine similarity used by every other backend.
package postgres
