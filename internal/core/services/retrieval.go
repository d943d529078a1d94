package services

import (
	"context"
	"crypto/md5" //nolint:gosec // G501: content addressing, not security.
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
	"github.com/custodia-labs/kbase/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// DocumentID derives a document ID from its text: the MD5 digest rendered
// as a UUID, which every vector store accepts as a point ID.
func DocumentID(text string) string {
	return uuid.UUID(md5.Sum([]byte(text))).String() //nolint:gosec // G401
}

// RetrievalService ingests documents and runs similarity search over one collection.
type RetrievalService struct {
	embedder   driven.EmbeddingService
	store      driven.VectorStore
	collection domain.Collection
	defaults   domain.SearchOptions
	log        *logger.Logger
}

// NewRetrievalService creates a retrieval service. The collection dimension
// is taken from the embedder. A nil log uses the default logger.
func NewRetrievalService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	collectionName string,
	defaults domain.SearchOptions,
	log *logger.Logger,
) *RetrievalService {
	if defaults.Limit <= 0 {
		defaults.Limit = domain.DefaultSearchLimit
	}
	return &RetrievalService{
		embedder:   embedder,
		store:      store,
		collection: domain.NewCollection(collectionName, embedder.Dimensions()),
		defaults:   defaults,
		log:        logger.OrDefault(log),
	}
}

// Collection returns the collection this service writes to.
func (s *RetrievalService) Collection() domain.Collection {
	return s.collection
}

// EnsureReady creates the collection if it does not exist.
func (s *RetrievalService) EnsureReady(ctx context.Context) error {
	s.log.Section("Collection Setup")
	s.log.Debug("Collection %q: dimension=%d metric=%s",
		s.collection.Name, s.collection.Dimension, s.collection.Metric)

	if err := s.store.EnsureCollection(ctx, s.collection); err != nil {
		s.logFailure("ensure collection", err)
		return fmt.Errorf("ensure collection %q: %w", s.collection.Name, err)
	}

	s.log.Debug("Collection %q ready", s.collection.Name)
	return nil
}

// AddDocument embeds text and upserts it under DocumentID(text).
// Nothing is written when embedding fails.
func (s *RetrievalService) AddDocument(ctx context.Context, text string, metadata domain.Metadata) (string, error) {
	if err := metadata.Validate(); err != nil {
		return "", err
	}

	doc := domain.Document{
		ID:       DocumentID(text),
		Text:     text,
		Metadata: metadata.Clone(),
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logFailure("embed document", err)
		return "", fmt.Errorf("embed document: %w", err)
	}
	doc.Embedding = vector

	if err := s.store.Upsert(ctx, doc.ID, doc.Embedding, doc.Payload()); err != nil {
		s.logFailure("store document", err)
		return "", fmt.Errorf("store document %s: %w", doc.ID, err)
	}

	s.log.Info("Added document %s (%d chars)", doc.ID, len(text))
	return doc.ID, nil
}

// SearchSimilar embeds query and returns the closest stored documents.
// Zero-valued option fields take the service defaults, except a threshold
// marked ThresholdSet. Any failure is logged and yields an empty slice.
func (s *RetrievalService) SearchSimilar(
	ctx context.Context, query string, opts domain.SearchOptions,
) []domain.SearchResult {
	s.log.Section("Similarity Search")
	s.log.Debug("Query: %q", query)

	opts = s.resolve(opts)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logFailure("embed query", err)
		return []domain.SearchResult{}
	}

	results, err := s.store.Search(ctx, vector, opts.Limit, opts.ScoreThreshold)
	if err != nil {
		s.logFailure("search", err)
		return []domain.SearchResult{}
	}

	// Backends filter and sort too; this keeps the guarantee uniform.
	ranked := domain.RankResults(results, opts.Limit, opts.ScoreThreshold)
	s.log.Debug("Found %d results (limit=%d, threshold=%.2f)", len(ranked), opts.Limit, opts.ScoreThreshold)
	return ranked
}

// Info reports the collection definition and size.
func (s *RetrievalService) Info(ctx context.Context) (*domain.CollectionInfo, error) {
	info, err := s.store.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("collection info: %w", err)
	}
	return info, nil
}

func (s *RetrievalService) resolve(opts domain.SearchOptions) domain.SearchOptions {
	if opts.Limit == 0 {
		opts.Limit = s.defaults.Limit
	}
	if opts.ScoreThreshold == 0 && !opts.ThresholdSet {
		opts.ScoreThreshold = s.defaults.ScoreThreshold
	}
	return opts
}

// logFailure logs configuration errors at error level and everything else at warn.
func (s *RetrievalService) logFailure(op string, err error) {
	switch {
	case domain.IsConfigurationError(err):
		s.log.Error("%s: %v (check the embedding model and collection dimension)", op, err)
	case errors.Is(err, domain.ErrCollectionNotFound):
		s.log.Error("%s: %v", op, err)
	default:
		s.log.Warn("%s: %v", op, err)
	}
}
