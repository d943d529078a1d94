package domain

import "errors"

// Domain errors. Adapters wrap these with context; callers match with errors.Is.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service could not be
	// reached, timed out, or answered with an error status.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingMalformed indicates the embedding response had no usable vector.
	ErrEmbeddingMalformed = errors.New("embedding response malformed")

	// ErrCollectionConflict indicates an existing collection has a different
	// dimension or metric. This is a setup mistake, not a transient failure.
	ErrCollectionConflict = errors.New("collection conflict")

	// ErrCollectionNotFound indicates the collection has not been created.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrDimensionMismatch indicates a vector's length differs from the
	// collection dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrStoreUnavailable indicates the vector-storage service failed or timed out.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)

// IsConfigurationError reports whether err points at a setup mistake
// (collection conflict or dimension mismatch) rather than unavailability.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrCollectionConflict) || errors.Is(err, ErrDimensionMismatch)
}
