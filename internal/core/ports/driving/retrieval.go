package driving

import (
	"context"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// RetrievalService ingests documents and runs similarity search.
type RetrievalService interface {
	// EnsureReady creates the configured collection if it does not exist.
	EnsureReady(ctx context.Context) error

	// AddDocument embeds text and upserts it under an ID derived from the text.
	// Adding identical text twice keeps one document; the second call's
	// metadata replaces the first's.
	AddDocument(ctx context.Context, text string, metadata domain.Metadata) (string, error)

	// SearchSimilar returns matches ordered by descending score. Zero-valued
	// option fields take the configured defaults unless opts.ThresholdSet
	// marks the threshold as explicit. Failures yield an empty
	// slice, never an error.
	SearchSimilar(ctx context.Context, query string, opts domain.SearchOptions) []domain.SearchResult

	// Info reports the collection definition and size.
	Info(ctx context.Context) (*domain.CollectionInfo, error)
}

// ContextService assembles retrieved passages for a generator prompt.
type ContextService interface {
	// BuildContext returns at most maxLength bytes of attributed passages,
	// or domain.NoContextSentinel when nothing relevant fits.
	BuildContext(ctx context.Context, query string, maxLength int) string

	// BuildContextWithOptions is BuildContext with explicit search options.
	BuildContextWithOptions(ctx context.Context, query string, maxLength int, opts domain.SearchOptions) string
}
