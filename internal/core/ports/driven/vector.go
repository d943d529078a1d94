package driven

import (
	"context"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// VectorStore manages one collection in a vector-storage service.
//
// The collection is owned by the service, not by this process: it is created
// once (idempotently) and outlives any single run.
type VectorStore interface {
	// EnsureCollection creates the collection if absent. It is a no-op when an
	// identical collection exists and fails with domain.ErrCollectionConflict
	// when the existing one has a different dimension or metric.
	EnsureCollection(ctx context.Context, collection domain.Collection) error

	// Upsert inserts or overwrites the point with this id. It fails with
	// domain.ErrDimensionMismatch, leaving the store unchanged, when the
	// vector length differs from the collection dimension.
	Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) error

	// Search returns at most limit results scoring at least threshold,
	// ordered by descending score.
	Search(ctx context.Context, vector []float32, limit int, threshold float64) ([]domain.SearchResult, error)

	// Info reports the collection definition and point count.
	Info(ctx context.Context) (*domain.CollectionInfo, error)

	// Close releases resources.
	Close() error
}
