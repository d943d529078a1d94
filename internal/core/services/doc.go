// Package services implements the driving port interfaces.
// Services contain the core retrieval logic and orchestrate
// calls to driven ports (embedding providers and vector stores).
//
// Services are pure Go with no CGO or external dependencies. Every
// dependency, including the logger, is passed in at construction so
// tests can substitute in-memory fakes.
package services
