package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
	"github.com/custodia-labs/kbase/internal/logger"
)

// Ensure ContextAssembler implements the interface.
var _ driving.ContextService = (*ContextAssembler)(nil)

// ContextAssembler turns search results into a length-bounded text block
// for a generator prompt.
type ContextAssembler struct {
	retrieval driving.RetrievalService
	log       *logger.Logger
}

// NewContextAssembler creates a context assembler over retrieval.
func NewContextAssembler(retrieval driving.RetrievalService, log *logger.Logger) *ContextAssembler {
	return &ContextAssembler{
		retrieval: retrieval,
		log:       logger.OrDefault(log),
	}
}

// BuildContext searches with the default options and concatenates
// attributed passages in score order. It stops before the first passage
// that would take the output past maxLength bytes, counting headers and
// separators. When no passage fits, it returns domain.NoContextSentinel.
func (a *ContextAssembler) BuildContext(ctx context.Context, query string, maxLength int) string {
	return a.BuildContextWithOptions(ctx, query, maxLength, domain.SearchOptions{})
}

// BuildContextWithOptions is BuildContext with explicit search options;
// zero-valued fields take the retrieval defaults.
func (a *ContextAssembler) BuildContextWithOptions(
	ctx context.Context, query string, maxLength int, opts domain.SearchOptions,
) string {
	results := a.retrieval.SearchSimilar(ctx, query, opts)
	if len(results) == 0 {
		return domain.NoContextSentinel
	}

	var b strings.Builder
	used := 0
	for _, r := range results {
		part := FormatPassage(r)
		size := len(part)
		if used > 0 {
			size += len(domain.ContextSeparator)
		}
		if b.Len()+size > maxLength {
			break
		}
		if used > 0 {
			b.WriteString(domain.ContextSeparator)
		}
		b.WriteString(part)
		used++
	}

	if used == 0 {
		a.log.Debug("No passage fits within %d bytes", maxLength)
		return domain.NoContextSentinel
	}

	a.log.Debug("Assembled %d of %d passages (%d bytes)", used, len(results), b.Len())
	return b.String()
}

// FormatPassage renders one result with its source attribution.
func FormatPassage(r domain.SearchResult) string {
	return fmt.Sprintf("[Source ID: %s, Score: %.3f]\n%s", r.ID, r.Score, r.Text)
}
