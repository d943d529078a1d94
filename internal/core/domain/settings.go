package domain

import (
	"fmt"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or a compatible server.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// StoreBackend identifies the vector-storage implementation.
type StoreBackend string

// Available vector store backends.
const (
	// StoreQdrant is an external Qdrant server reached over REST.
	StoreQdrant StoreBackend = "qdrant"

	// StorePostgres is PostgreSQL with the pgvector extension.
	StorePostgres StoreBackend = "postgres"

	// StoreSQLite is an embedded SQLite database file.
	StoreSQLite StoreBackend = "sqlite"

	// StoreMemory keeps vectors in process memory only.
	StoreMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreQdrant, StorePostgres, StoreSQLite, StoreMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the embedding vector size. Zero means "look up the model".
	Dimensions int

	// Timeout bounds every embedding request.
	Timeout time.Duration

	// MaxAttempts bounds retries of unavailable-service failures. 1 disables retry.
	MaxAttempts int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ResolvedDimensions returns Dimensions, falling back to the known size of Model.
func (e EmbeddingSettings) ResolvedDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	if d, ok := EmbeddingDimensions()[baseModelName(e.Model)]; ok {
		return d
	}
	return DefaultEmbeddingDimensions
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	// Backend selects the implementation.
	Backend StoreBackend

	// URL is the Qdrant endpoint.
	URL string

	// DSN is the Postgres connection string or the SQLite data directory.
	DSN string

	// Collection is the collection name.
	Collection string

	// Timeout bounds every store request.
	Timeout time.Duration
}

// RetrievalSettings holds the tunable retrieval defaults.
type RetrievalSettings struct {
	// Limit is the default number of results per search.
	Limit int

	// ScoreThreshold is the default minimum similarity.
	ScoreThreshold float64

	// ContextBudget is the default maximum length of assembled context.
	ContextBudget int
}

// Validate checks the retrieval defaults.
func (r RetrievalSettings) Validate() error {
	if r.Limit <= 0 {
		return fmt.Errorf("%w: retrieval limit must be positive, got %d", ErrInvalidInput, r.Limit)
	}
	if r.ScoreThreshold < -1 || r.ScoreThreshold > 1 {
		return fmt.Errorf("%w: score threshold must be within [-1, 1], got %g", ErrInvalidInput, r.ScoreThreshold)
	}
	if r.ContextBudget < 0 {
		return fmt.Errorf("%w: context budget must not be negative, got %d", ErrInvalidInput, r.ContextBudget)
	}
	return nil
}

// SearchOptions returns the defaults as search options.
func (r RetrievalSettings) SearchOptions() SearchOptions {
	return SearchOptions{Limit: r.Limit, ScoreThreshold: r.ScoreThreshold}
}

// AppSettings holds all application settings. It is built once at startup
// and never mutated afterwards.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Store holds vector store settings.
	Store StoreSettings

	// Retrieval holds search and context defaults.
	Retrieval RetrievalSettings
}

// Collection returns the collection these settings describe.
func (s AppSettings) Collection() Collection {
	return NewCollection(s.Store.Collection, s.Embedding.ResolvedDimensions())
}

// Default connection values.
const (
	DefaultOllamaURL           = "http://localhost:11434"
	DefaultQdrantURL           = "http://localhost:6333"
	DefaultCollectionName      = "knowledge_base"
	DefaultEmbeddingModel      = "nomic-embed-text:latest"
	DefaultEmbeddingDimensions = 768
	DefaultRequestTimeout      = 30 * time.Second
	DefaultMaxAttempts         = 3
)

// DefaultAppSettings returns settings for a local Ollama + Qdrant setup.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:    AIProviderOllama,
			Model:       DefaultEmbeddingModel,
			BaseURL:     DefaultOllamaURL,
			Timeout:     DefaultRequestTimeout,
			MaxAttempts: DefaultMaxAttempts,
		},
		Store: StoreSettings{
			Backend:    StoreQdrant,
			URL:        DefaultQdrantURL,
			Collection: DefaultCollectionName,
			Timeout:    DefaultRequestTimeout,
		},
		Retrieval: RetrievalSettings{
			Limit:          DefaultSearchLimit,
			ScoreThreshold: DefaultScoreThreshold,
			ContextBudget:  DefaultContextBudget,
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: DefaultEmbeddingModel,
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// baseModelName strips an Ollama tag: "nomic-embed-text:latest" -> "nomic-embed-text".
func baseModelName(model string) string {
	name, _, _ := strings.Cut(model, ":")
	return name
}
