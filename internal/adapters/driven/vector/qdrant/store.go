package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the Qdrant REST endpoint (default: http://localhost:6333).
	URL string

	// Collection is the collection name (default: knowledge_base).
	Collection string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration
}

// Store is a Qdrant-backed vector store bound to one collection.
type Store struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	name       string
	mu         sync.RWMutex
	collection *domain.Collection
}

// NewStore creates a Qdrant store. No request is made until first use.
func NewStore(cfg Config) *Store {
	if cfg.URL == "" {
		cfg.URL = domain.DefaultQdrantURL
	}
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollectionName
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = domain.DefaultRequestTimeout
	}
	return &Store{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		name:    cfg.Collection,
	}
}

// Wire types.

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type collectionResult struct {
	PointsCount *int `json:"points_count"`
	Config      struct {
		Params struct {
			Vectors vectorParams `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

type pointStruct struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type searchRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          int       `json:"limit"`
	ScoreThreshold float64   `json:"score_threshold"`
	WithPayload    bool      `json:"with_payload"`
}

type scoredPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

var metricNames = map[domain.DistanceMetric]string{
	domain.MetricCosine: "Cosine",
	domain.MetricDot:    "Dot",
	domain.MetricEuclid: "Euclid",
}

func metricFromName(name string) domain.DistanceMetric {
	for m, n := range metricNames {
		if strings.EqualFold(n, name) {
			return m
		}
	}
	return domain.DistanceMetric(strings.ToLower(name))
}

// EnsureCollection creates the collection if absent and verifies an existing
// one has the same dimension and metric.
func (s *Store) EnsureCollection(ctx context.Context, collection domain.Collection) error {
	if err := collection.Validate(); err != nil {
		return err
	}
	collection.Name = s.name

	existing, err := s.fetchCollection(ctx)
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound):
		if err := s.create(ctx, collection); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := collection.CheckConflict(*existing); err != nil {
			return err
		}
	}

	s.remember(collection)
	return nil
}

func (s *Store) create(ctx context.Context, collection domain.Collection) error {
	body := map[string]any{
		"vectors": vectorParams{Size: collection.Dimension, Distance: metricNames[collection.Metric]},
	}
	err := s.do(ctx, http.MethodPut, collectionPath(s.name), body, nil)

	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusConflict {
		// Created concurrently by another process; verify it matches.
		existing, ferr := s.fetchCollection(ctx)
		if ferr != nil {
			return ferr
		}
		return collection.CheckConflict(*existing)
	}
	if err != nil {
		return fmt.Errorf("create collection %q: %w", s.name, err)
	}
	return nil
}

// fetchCollection reads the collection definition from the server.
func (s *Store) fetchCollection(ctx context.Context) (*domain.Collection, error) {
	info, err := s.fetchInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &info.Collection, nil
}

func (s *Store) fetchInfo(ctx context.Context) (*domain.CollectionInfo, error) {
	var result collectionResult
	err := s.do(ctx, http.MethodGet, collectionPath(s.name), nil, &result)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("collection %q: %w", s.name, domain.ErrCollectionNotFound)
	}
	if err != nil {
		return nil, err
	}

	info := &domain.CollectionInfo{
		Collection: domain.Collection{
			Name:      s.name,
			Dimension: result.Config.Params.Vectors.Size,
			Metric:    metricFromName(result.Config.Params.Vectors.Distance),
		},
	}
	if result.PointsCount != nil {
		info.Count = *result.PointsCount
	}
	return info, nil
}

func (s *Store) remember(c domain.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection = &c
}

// known returns the cached collection, fetching it on first use.
func (s *Store) known(ctx context.Context) (domain.Collection, error) {
	s.mu.RLock()
	c := s.collection
	s.mu.RUnlock()
	if c != nil {
		return *c, nil
	}

	fetched, err := s.fetchCollection(ctx)
	if err != nil {
		return domain.Collection{}, err
	}
	s.remember(*fetched)
	return *fetched, nil
}

// Upsert writes one point and waits for it to be indexed.
func (s *Store) Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) error {
	c, err := s.known(ctx)
	if err != nil {
		return err
	}
	if err := c.CheckVector(vector); err != nil {
		return err
	}

	body := map[string]any{
		"points": []pointStruct{{ID: id, Vector: vector, Payload: payload}},
	}
	err = s.do(ctx, http.MethodPut, collectionPath(s.name, "/points?wait=true"), body, nil)
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("upsert %s: %w", id, domain.ErrCollectionNotFound)
	}
	if err != nil {
		return fmt.Errorf("upsert %s: %w", id, err)
	}
	return nil
}

// Search returns the nearest points scoring at least threshold.
func (s *Store) Search(
	ctx context.Context, vector []float32, limit int, threshold float64,
) ([]domain.SearchResult, error) {
	c, err := s.known(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.CheckVector(vector); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []domain.SearchResult{}, nil
	}

	req := searchRequest{
		Vector:         vector,
		Limit:          limit,
		ScoreThreshold: threshold,
		WithPayload:    true,
	}
	var points []scoredPoint
	err = s.do(ctx, http.MethodPost, collectionPath(s.name, "/points/search"), req, &points)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("search: %w", domain.ErrCollectionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, domain.ResultFromPayload(pointID(p.ID), p.Score, p.Payload))
	}
	return domain.RankResults(results, limit, threshold), nil
}

// Info reports the collection definition and exact point count.
func (s *Store) Info(ctx context.Context) (*domain.CollectionInfo, error) {
	info, err := s.fetchInfo(ctx)
	if err != nil {
		return nil, err
	}

	var count struct {
		Count int `json:"count"`
	}
	err = s.do(ctx, http.MethodPost, collectionPath(s.name, "/points/count"), map[string]any{"exact": true}, &count)
	if err != nil {
		return nil, fmt.Errorf("count points: %w", err)
	}
	info.Count = count.Count
	return info, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// pointID renders a Qdrant id, which is either a UUID string or an unsigned integer.
func pointID(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return string(raw)
}
