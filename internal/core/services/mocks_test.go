package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
)

// --- Mock implementations ---

// fakeEmbedder implements driven.EmbeddingService with a fixed text→vector table.
// Unknown text embeds to fallback.
type fakeEmbedder struct {
	mu       sync.Mutex
	dims     int
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func newFakeEmbedder(dims int) *fakeEmbedder {
	fallback := make([]float32, dims)
	fallback[dims-1] = 1
	return &fakeEmbedder{dims: dims, vectors: map[string][]float32{}, fallback: fallback}
}

func (f *fakeEmbedder) with(text string, v ...float32) *fakeEmbedder {
	f.vectors[text] = v
	return f
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.fallback, nil
}

func (f *fakeEmbedder) Dimensions() int            { return f.dims }
func (f *fakeEmbedder) ModelName() string          { return "fake" }
func (f *fakeEmbedder) Ping(context.Context) error { return f.err }
func (f *fakeEmbedder) Close() error               { return nil }

// mockVectorStore implements driven.VectorStore with canned responses.
type mockVectorStore struct {
	results     []domain.SearchResult
	searchErr   error
	upsertErr   error
	ensureErr   error
	upserts     int
	lastLimit   int
	lastThresh  float64
	ensuredWith domain.Collection
}

var _ driven.VectorStore = (*mockVectorStore)(nil)

func (m *mockVectorStore) EnsureCollection(_ context.Context, c domain.Collection) error {
	m.ensuredWith = c
	return m.ensureErr
}

func (m *mockVectorStore) Upsert(_ context.Context, _ string, _ []float32, _ map[string]any) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	return nil
}

func (m *mockVectorStore) Search(_ context.Context, _ []float32, limit int, threshold float64) ([]domain.SearchResult, error) {
	m.lastLimit = limit
	m.lastThresh = threshold
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

func (m *mockVectorStore) Info(_ context.Context) (*domain.CollectionInfo, error) {
	return &domain.CollectionInfo{Collection: m.ensuredWith, Count: m.upserts}, nil
}

func (m *mockVectorStore) Close() error { return nil }

// stubRetrieval implements driving.RetrievalService returning fixed results.
type stubRetrieval struct {
	results  []domain.SearchResult
	lastOpts domain.SearchOptions
}

func (s *stubRetrieval) EnsureReady(context.Context) error { return nil }

func (s *stubRetrieval) AddDocument(context.Context, string, domain.Metadata) (string, error) {
	return "", fmt.Errorf("not supported")
}

func (s *stubRetrieval) SearchSimilar(_ context.Context, _ string, opts domain.SearchOptions) []domain.SearchResult {
	s.lastOpts = opts
	return s.results
}

func (s *stubRetrieval) Info(context.Context) (*domain.CollectionInfo, error) {
	return nil, domain.ErrCollectionNotFound
}
