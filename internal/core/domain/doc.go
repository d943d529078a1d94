// Package domain defines the core entities of the retrieval engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A passage of text with its metadata and embedding
//   - Collection: A named vector space with fixed dimension and metric
//   - SearchResult: A scored match returned by similarity search
//   - AppSettings: Immutable process-wide configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
