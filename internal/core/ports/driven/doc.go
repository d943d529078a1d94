// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - EmbeddingService: Turns text into a fixed-dimension vector
//   - VectorStore: Collection management, upsert and similarity search
//   - ConfigStore: Application configuration
//
// Both EmbeddingService and VectorStore sit in front of external services.
// Keeping them narrow lets the retrieval services be tested with in-memory fakes.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
