package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/kbase/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
)

// DatabaseFile is the file name created inside the data directory.
const DatabaseFile = "vectors.db"

// Store owns the SQLite database connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database in dataDir and applies migrations.
// If dataDir is empty, defaults to ~/.kbase/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".kbase", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VectorStore returns a driven.VectorStore bound to the named collection.
// Closing it closes the shared database.
func (s *Store) VectorStore(collection string) driven.VectorStore {
	return &vectorStore{store: s, name: collection}
}

// migrate applies every NNN_name.up.sql newer than the recorded version,
// each in its own transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Vector Store ====================

// Ensure vectorStore implements the interface.
var _ driven.VectorStore = (*vectorStore)(nil)

// vectorStore implements driven.VectorStore for one collection.
type vectorStore struct {
	store *Store
	name  string
}

func (v *vectorStore) collection(ctx context.Context) (*domain.Collection, error) {
	var c domain.Collection
	var metric string
	err := v.store.db.QueryRowContext(ctx,
		"SELECT name, dimension, metric FROM collections WHERE name = ?", v.name,
	).Scan(&c.Name, &c.Dimension, &metric)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %q: %w", v.name, domain.ErrCollectionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w: %v", domain.ErrStoreUnavailable, err)
	}
	c.Metric = domain.DistanceMetric(metric)
	return &c, nil
}

// EnsureCollection creates the collection row if absent, otherwise checks it matches.
func (v *vectorStore) EnsureCollection(ctx context.Context, collection domain.Collection) error {
	if err := collection.Validate(); err != nil {
		return err
	}
	collection.Name = v.name

	// Search scores by cosine only.
	if collection.Metric != domain.MetricCosine {
		if existing, err := v.collection(ctx); err == nil {
			return collection.CheckConflict(*existing)
		}
		return fmt.Errorf("sqlite: %w: cosine collections only, got %s", domain.ErrInvalidInput, collection.Metric)
	}

	_, err := v.store.db.ExecContext(ctx,
		"INSERT INTO collections (name, dimension, metric) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING",
		collection.Name, collection.Dimension, collection.Metric.String(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: %w: create collection: %v", domain.ErrStoreUnavailable, err)
	}

	existing, err := v.collection(ctx)
	if err != nil {
		return err
	}
	return collection.CheckConflict(*existing)
}

// Upsert inserts or replaces a point. Replacing keeps the original rowid,
// so insertion order is stable across overwrites.
func (v *vectorStore) Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) error {
	c, err := v.collection(ctx)
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

	_, err = v.store.db.ExecContext(ctx, `
		INSERT INTO points (collection, id, vector, payload, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, id) DO UPDATE SET
			vector = excluded.vector,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, v.name, id, float32SliceToBytes(vector), string(payloadJSON))
	if err != nil {
		return fmt.Errorf("sqlite: %w: upsert %s: %v", domain.ErrStoreUnavailable, id, err)
	}
	return nil
}

// Search scores every point in the collection.
func (v *vectorStore) Search(
	ctx context.Context, vector []float32, limit int, threshold float64,
) ([]domain.SearchResult, error) {
	c, err := v.collection(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.CheckVector(vector); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []domain.SearchResult{}, nil
	}

	rows, err := v.store.db.QueryContext(ctx,
		"SELECT id, vector, payload FROM points WHERE collection = ? ORDER BY rowid", v.name)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w: search: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var id, payloadJSON string
		var blob []byte
		if err := rows.Scan(&id, &blob, &payloadJSON); err != nil {
			return nil, fmt.Errorf("sqlite: %w: scan point: %v", domain.ErrStoreUnavailable, err)
		}

		score := domain.CosineSimilarity(vector, bytesToFloat32Slice(blob))
		if score < threshold {
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("sqlite: %w: decode payload %s: %v", domain.ErrStoreUnavailable, id, err)
		}
		results = append(results, domain.ResultFromPayload(id, score, payload))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %w: search: %v", domain.ErrStoreUnavailable, err)
	}

	return domain.RankResults(results, limit, threshold), nil
}

// Info reports the collection and its point count.
func (v *vectorStore) Info(ctx context.Context) (*domain.CollectionInfo, error) {
	c, err := v.collection(ctx)
	if err != nil {
		return nil, err
	}

	var count int
	err = v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM points WHERE collection = ?", v.name).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w: count: %v", domain.ErrStoreUnavailable, err)
	}
	return &domain.CollectionInfo{Collection: *c, Count: count}, nil
}

// Close closes the underlying database.
func (v *vectorStore) Close() error {
	return v.store.Close()
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
