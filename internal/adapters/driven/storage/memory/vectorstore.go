package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type point struct {
	id      string
	vector  []float32
	payload map[string]any
}

// VectorStore is an in-memory driven.VectorStore using brute-force cosine
// similarity. Data is lost when the process exits.
type VectorStore struct {
	mu         sync.RWMutex
	collection *domain.Collection
	points     []point
	index      map[string]int
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		index: make(map[string]int),
	}
}

// EnsureCollection creates the collection, or verifies an existing one matches.
func (s *VectorStore) EnsureCollection(_ context.Context, collection domain.Collection) error {
	if err := collection.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection != nil {
		return collection.CheckConflict(*s.collection)
	}
	// Search scores by cosine only.
	if collection.Metric != domain.MetricCosine {
		return fmt.Errorf("%w: memory store supports cosine collections only, got %s",
			domain.ErrInvalidInput, collection.Metric)
	}
	c := collection
	s.collection = &c
	return nil
}

// Upsert inserts or replaces the point with this id. An existing point keeps
// its position in insertion order.
func (s *VectorStore) Upsert(_ context.Context, id string, vector []float32, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection == nil {
		return fmt.Errorf("upsert %s: %w", id, domain.ErrCollectionNotFound)
	}
	if err := s.collection.CheckVector(vector); err != nil {
		return err
	}

	p := point{
		id:      id,
		vector:  append([]float32(nil), vector...),
		payload: copyPayload(payload),
	}
	if i, ok := s.index[id]; ok {
		s.points[i] = p
		return nil
	}
	s.index[id] = len(s.points)
	s.points = append(s.points, p)
	return nil
}

// Search scores every stored point against vector.
func (s *VectorStore) Search(
	_ context.Context, vector []float32, limit int, threshold float64,
) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.collection == nil {
		return nil, fmt.Errorf("search: %w", domain.ErrCollectionNotFound)
	}
	if err := s.collection.CheckVector(vector); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []domain.SearchResult{}, nil
	}

	results := make([]domain.SearchResult, 0, len(s.points))
	for _, p := range s.points {
		score := domain.CosineSimilarity(vector, p.vector)
		results = append(results, domain.ResultFromPayload(p.id, score, copyPayload(p.payload)))
	}
	return domain.RankResults(results, limit, threshold), nil
}

// Info reports the collection and the number of stored points.
func (s *VectorStore) Info(_ context.Context) (*domain.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.collection == nil {
		return nil, fmt.Errorf("info: %w", domain.ErrCollectionNotFound)
	}
	return &domain.CollectionInfo{Collection: *s.collection, Count: len(s.points)}, nil
}

// Close is a no-op for the in-memory store.
func (s *VectorStore) Close() error {
	return nil
}

// copyPayload copies the payload and its nested metadata map so callers
// cannot mutate stored state.
func copyPayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if m, ok := v.(map[string]any); ok {
			inner := make(map[string]any, len(m))
			for mk, mv := range m {
				inner[mk] = mv
			}
			v = inner
		}
		out[k] = v
	}
	return out
}
