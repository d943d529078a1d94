// Package factory builds the driven adapters selected by application settings.
package factory

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/kbase/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/kbase/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/kbase/internal/adapters/driven/embedding/retry"
	"github.com/custodia-labs/kbase/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/kbase/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/kbase/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/kbase/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Adapters holds the driven adapters built from settings.
type Adapters struct {
	Embedding driven.EmbeddingService
	Store     driven.VectorStore
}

// Close releases all resources held by the adapters.
func (a *Adapters) Close() {
	if a.Embedding != nil {
		a.Embedding.Close() //nolint:errcheck
	}
	if a.Store != nil {
		a.Store.Close() //nolint:errcheck
	}
}

// New creates the embedding service and vector store described by settings.
// Nothing is contacted over the network except a postgres connection.
func New(ctx context.Context, settings domain.AppSettings, log *logger.Logger) (*Adapters, error) {
	embedding, err := CreateEmbeddingService(settings.Embedding, log)
	if err != nil {
		return nil, err
	}

	store, err := CreateVectorStore(ctx, settings.Store)
	if err != nil {
		embedding.Close() //nolint:errcheck
		return nil, err
	}

	return &Adapters{Embedding: embedding, Store: store}, nil
}

// CreateEmbeddingService creates the provider's embedding client wrapped in
// bounded retry and request pacing.
func CreateEmbeddingService(settings domain.EmbeddingSettings, log *logger.Logger) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider %q is not configured", domain.ErrInvalidInput, settings.Provider)
	}

	var base driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderOllama:
		base = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: settings.ResolvedDimensions(),
		})

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: settings.ResolvedDimensions(),
		})
		if err != nil {
			return nil, err
		}
		base = svc

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrInvalidInput, settings.Provider)
	}

	return retry.New(base, retry.Config{
		MaxAttempts:       settings.MaxAttempts,
		RequestsPerSecond: retry.DefaultRequestsPerSecond,
	}, log), nil
}

// CreateVectorStore creates the configured vector store backend.
func CreateVectorStore(ctx context.Context, settings domain.StoreSettings) (driven.VectorStore, error) {
	switch settings.Backend {
	case domain.StoreQdrant:
		return qdrant.NewStore(qdrant.Config{
			URL:        settings.URL,
			Collection: settings.Collection,
			Timeout:    settings.Timeout,
		}), nil

	case domain.StoreMemory:
		return memory.NewVectorStore(), nil

	case domain.StoreSQLite:
		store, err := sqlite.NewStore(settings.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store.VectorStore(collectionName(settings)), nil

	case domain.StorePostgres:
		if settings.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
			defer cancel()
		}
		return postgres.NewStore(ctx, settings.DSN, settings.Collection)

	default:
		return nil, fmt.Errorf("%w: unsupported vector store: %s", domain.ErrInvalidInput, settings.Backend)
	}
}

// ValidateEmbeddingService pings svc, failing with ErrEmbeddingUnavailable
// when it cannot be reached.
func ValidateEmbeddingService(ctx context.Context, svc driven.EmbeddingService) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w). Check 'kbase config show'",
			domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

func collectionName(settings domain.StoreSettings) string {
	if settings.Collection == "" {
		return domain.DefaultCollectionName
	}
	return settings.Collection
}
