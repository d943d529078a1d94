// Package qdrant implements driven.VectorStore against a Qdrant server
// using its REST API.
//
// Each Store is bound to one collection. Points are written with
// wait=true so a search issued after Upsert returns sees the write.
//
// Qdrant reports cosine similarity directly as the score, so the
// threshold passed to Search is forwarded as score_threshold.
package qdrant
