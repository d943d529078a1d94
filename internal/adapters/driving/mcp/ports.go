package mcp

import (
	"context"

	"github.com/custodia-labs/kbase/internal/core/ports/driving"
)

// Tools is the text-in, text-out surface the MCP tools delegate to.
// It is satisfied by *tools.Toolkit.
type Tools interface {
	Search(ctx context.Context, query string, maxResults int) string
	AddDocument(ctx context.Context, text, category, source string) string
	GetContext(ctx context.Context, query string) string
}

// Ports aggregates everything the MCP server calls into.
type Ports struct {
	// Tools backs the rag_* tools.
	Tools Tools

	// Retrieval backs the collection resource.
	Retrieval driving.RetrievalService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Tools == nil {
		return ErrMissingTools
	}
	if p.Retrieval == nil {
		return ErrMissingRetrieval
	}
	return nil
}
