package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS kbase_collections (
	name       TEXT PRIMARY KEY,
	dimension  INTEGER NOT NULL CHECK (dimension > 0),
	metric     TEXT NOT NULL,
	created_at TIMESTAMPTZ DEFAULT NOW()
)`

// Store is a pgvector-backed vector store bound to one collection.
type Store struct {
	pool *pgxpool.Pool
	name string

	mu         sync.RWMutex
	collection *domain.Collection
}

// NewStore connects to dsn and creates the extension and catalog table.
func NewStore(ctx context.Context, dsn, collection string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", domain.ErrInvalidInput)
	}
	if collection == "" {
		collection = domain.DefaultCollectionName
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w: open pool: %v", domain.ErrStoreUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: %w: ping: %v", domain.ErrStoreUnavailable, err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: %w: migrate: %v", domain.ErrStoreUnavailable, err)
	}

	return &Store{pool: pool, name: collection}, nil
}

// pointsTable returns the quoted table name for this collection.
func (s *Store) pointsTable() string {
	return pgx.Identifier{"kbase_points_" + sanitizeName(s.name)}.Sanitize()
}

// EnsureCollection registers the collection and creates its points table.
func (s *Store) EnsureCollection(ctx context.Context, collection domain.Collection) error {
	if err := collection.Validate(); err != nil {
		return err
	}
	collection.Name = s.name

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: %w: begin: %v", domain.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx,
		`INSERT INTO kbase_collections (name, dimension, metric) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`,
		collection.Name, collection.Dimension, collection.Metric.String())
	if err != nil {
		return fmt.Errorf("postgres: %w: register collection: %v", domain.ErrStoreUnavailable, err)
	}

	existing, err := s.loadCollection(ctx, tx)
	if err != nil {
		return err
	}
	if err := collection.CheckConflict(*existing); err != nil {
		return err
	}

	table := s.pointsTable()
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			seq        BIGSERIAL,
			embedding  vector(%d) NOT NULL,
			payload    JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`, table, collection.Dimension)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: %w: create points table: %v", domain.ErrStoreUnavailable, err)
	}

	index := pgx.Identifier{"idx_kbase_points_" + sanitizeName(s.name) + "_embedding"}.Sanitize()
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`, index, table)
	if _, err := tx.Exec(ctx, idx); err != nil {
		return fmt.Errorf("postgres: %w: create index: %v", domain.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: %w: commit: %v", domain.ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	s.collection = existing
	s.mu.Unlock()
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) loadCollection(ctx context.Context, q querier) (*domain.Collection, error) {
	var c domain.Collection
	var metric string
	err := q.QueryRow(ctx,
		`SELECT name, dimension, metric FROM kbase_collections WHERE name = $1`, s.name,
	).Scan(&c.Name, &c.Dimension, &metric)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("collection %q: %w", s.name, domain.ErrCollectionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: %w: load collection: %v", domain.ErrStoreUnavailable, err)
	}
	c.Metric = domain.DistanceMetric(metric)
	return &c, nil
}

// known returns the cached collection, loading it on first use.
func (s *Store) known(ctx context.Context) (domain.Collection, error) {
	s.mu.RLock()
	c := s.collection
	s.mu.RUnlock()
	if c != nil {
		return *c, nil
	}

	loaded, err := s.loadCollection(ctx, s.pool)
	if err != nil {
		return domain.Collection{}, err
	}
	s.mu.Lock()
	s.collection = loaded
	s.mu.Unlock()
	return *loaded, nil
}

// Upsert inserts or replaces a point.
func (s *Store) Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) error {
	c, err := s.known(ctx)
	if err != nil {
		return err
	}
	if err := c.CheckVector(vector); err != nil {
		return err
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", domain.ErrInvalidInput, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, embedding, payload)
		VALUES ($1, $2::vector, $3::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			payload = EXCLUDED.payload,
			updated_at = NOW()`, s.pointsTable())
	if _, err := s.pool.Exec(ctx, query, id, formatVector(vector), string(payloadJSON)); err != nil {
		return fmt.Errorf("postgres: %w: upsert %s: %v", domain.ErrStoreUnavailable, id, err)
	}
	return nil
}

// Search orders by cosine distance and filters on similarity >= threshold.
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

	query := fmt.Sprintf(`
		SELECT id, payload, 1 - (embedding <=> $1::vector) AS score
		FROM %s
		WHERE 1 - (embedding <=> $1::vector) >= $2
		ORDER BY embedding <=> $1::vector, seq
		LIMIT $3`, s.pointsTable())
	rows, err := s.pool.Query(ctx, query, formatVector(vector), threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w: search: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var id string
		var payloadJSON []byte
		var score float64
		if err := rows.Scan(&id, &payloadJSON, &score); err != nil {
			return nil, fmt.Errorf("postgres: %w: scan: %v", domain.ErrStoreUnavailable, err)
		}
		var payload map[string]any
		if err := json.Unmarshal(payloadJSON, &payload); err != nil {
			return nil, fmt.Errorf("postgres: %w: decode payload %s: %v", domain.ErrStoreUnavailable, id, err)
		}
		results = append(results, domain.ResultFromPayload(id, score, payload))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %w: search: %v", domain.ErrStoreUnavailable, err)
	}

	return domain.RankResults(results, limit, threshold), nil
}

// Info reports the collection and its point count.
func (s *Store) Info(ctx context.Context) (*domain.CollectionInfo, error) {
	c, err := s.loadCollection(ctx, s.pool)
	if err != nil {
		return nil, err
	}

	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+s.pointsTable()).Scan(&count); err != nil {
		return nil, fmt.Errorf("postgres: %w: count: %v", domain.ErrStoreUnavailable, err)
	}
	return &domain.CollectionInfo{Collection: *c, Count: count}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// formatVector renders a pgvector literal: "[0.1,0.2,0.3]".
func formatVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 8)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// sanitizeName maps a collection name onto [a-z0-9_] for use in identifiers.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
