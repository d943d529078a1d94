package tools

import (
	"context"
	"fmt"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
	"github.com/custodia-labs/kbase/internal/logger"
)

// Tool defaults.
const (
	// SearchBudget bounds the context assembled for a search report.
	SearchBudget = 3000

	// DefaultMaxResults is used when a search asks for zero or fewer matches.
	DefaultMaxResults = 5

	DefaultCategory = "general"
	DefaultSource   = "unknown"

	// AddedBy tags documents ingested through the toolkit.
	AddedBy = "agent"
)

// Toolkit wraps the retrieval and context services in text-in, text-out tools.
type Toolkit struct {
	retrieval     driving.RetrievalService
	contexts      driving.ContextService
	contextBudget int
	log           *logger.Logger
}

// NewToolkit creates a toolkit. contextBudget is the length limit used by
// GetContext; zero or less means domain.DefaultContextBudget.
func NewToolkit(
	retrieval driving.RetrievalService,
	contexts driving.ContextService,
	contextBudget int,
	log *logger.Logger,
) *Toolkit {
	if contextBudget <= 0 {
		contextBudget = domain.DefaultContextBudget
	}
	return &Toolkit{
		retrieval:     retrieval,
		contexts:      contexts,
		contextBudget: contextBudget,
		log:           logger.OrDefault(log),
	}
}

// Search reports the passages relevant to query, using at most maxResults matches.
func (t *Toolkit) Search(ctx context.Context, query string, maxResults int) string {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	assembled := t.contexts.BuildContextWithOptions(ctx, query, SearchBudget,
		domain.SearchOptions{Limit: maxResults})
	if assembled == domain.NoContextSentinel {
		return fmt.Sprintf("No relevant information found for query: '%s'", query)
	}

	return fmt.Sprintf("RAG SEARCH RESULTS:\nQuery: %s\n\nINFORMATION FOUND:\n%s", query, assembled)
}

// AddDocument stores text tagged with category and source. Empty values
// take DefaultCategory and DefaultSource.
func (t *Toolkit) AddDocument(ctx context.Context, text, category, source string) string {
	if category == "" {
		category = DefaultCategory
	}
	if source == "" {
		source = DefaultSource
	}

	metadata := domain.Metadata{
		"category": category,
		"source":   source,
		"added_by": AddedBy,
	}

	if _, err := t.retrieval.AddDocument(ctx, text, metadata); err != nil {
		t.log.Warn("add_document failed: %v", err)
		return fmt.Sprintf("Failed to add document to the knowledge base: %v", err)
	}

	return fmt.Sprintf("Document added to category '%s' from source '%s'", category, source)
}

// GetContext returns background context for query within the configured budget.
func (t *Toolkit) GetContext(ctx context.Context, query string) string {
	assembled := t.contexts.BuildContext(ctx, query, t.contextBudget)
	if assembled == domain.NoContextSentinel {
		return "CONTEXT: No specific information available in the knowledge base for this query."
	}
	return "RELEVANT CONTEXT:\n" + assembled
}

// ContextBudget returns the budget GetContext uses.
func (t *Toolkit) ContextBudget() int {
	return t.contextBudget
}
