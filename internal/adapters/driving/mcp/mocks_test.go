package mcp

import (
	"context"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// mockTools records the arguments of the last call.
type mockTools struct {
	out        string
	query      string
	maxResults int
	text       string
	category   string
	source     string
}

func (m *mockTools) Search(_ context.Context, query string, maxResults int) string {
	m.query = query
	m.maxResults = maxResults
	return m.out
}

func (m *mockTools) AddDocument(_ context.Context, text, category, source string) string {
	m.text = text
	m.category = category
	m.source = source
	return m.out
}

func (m *mockTools) GetContext(_ context.Context, query string) string {
	m.query = query
	return m.out
}

// mockRetrieval is a mock implementation of driving.RetrievalService.
type mockRetrieval struct {
	info *domain.CollectionInfo
	err  error
}

func (m *mockRetrieval) EnsureReady(context.Context) error { return m.err }

func (m *mockRetrieval) AddDocument(context.Context, string, domain.Metadata) (string, error) {
	return "", m.err
}

func (m *mockRetrieval) SearchSimilar(context.Context, string, domain.SearchOptions) []domain.SearchResult {
	return nil
}

func (m *mockRetrieval) Info(context.Context) (*domain.CollectionInfo, error) {
	return m.info, m.err
}
