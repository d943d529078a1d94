package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedModel      = "embedding.model"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedTimeout    = "embedding.timeout_seconds"
	keyEmbedAttempts   = "embedding.max_attempts"
	keyStoreBackend    = "store.backend"
	keyStoreURL        = "store.url"
	keyStoreDSN        = "store.dsn"
	keyStoreCollection = "store.collection"
	keyStoreTimeout    = "store.timeout_seconds"
	keyRetrievalLimit  = "retrieval.limit"
	keyRetrievalScore  = "retrieval.score_threshold"
	keyRetrievalBudget = "retrieval.context_budget"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
)

// settingKey describes one configurable value.
type settingKey struct {
	name string
	env  string
	kind valueKind
}

// settingKeys lists every key Set accepts, with its environment override.
var settingKeys = []settingKey{
	{keyEmbedProvider, "EMBEDDING_PROVIDER", kindString},
	{keyEmbedBaseURL, "OLLAMA_BASE_URL", kindString},
	{keyEmbedModel, "EMBEDDING_MODEL", kindString},
	{keyEmbedAPIKey, "OPENAI_API_KEY", kindString},
	{keyEmbedDims, "EMBEDDING_DIMENSIONS", kindInt},
	{keyEmbedTimeout, "EMBEDDING_TIMEOUT", kindInt},
	{keyEmbedAttempts, "EMBEDDING_MAX_ATTEMPTS", kindInt},
	{keyStoreBackend, "VECTOR_STORE", kindString},
	{keyStoreURL, "QDRANT_URL", kindString},
	{keyStoreDSN, "DATABASE_URL", kindString},
	{keyStoreCollection, "QDRANT_COLLECTION_NAME", kindString},
	{keyStoreTimeout, "", kindInt},
	{keyRetrievalLimit, "RAG_SEARCH_LIMIT", kindInt},
	{keyRetrievalScore, "RAG_SCORE_THRESHOLD", kindFloat},
	{keyRetrievalBudget, "RAG_CONTEXT_BUDGET", kindInt},
}

// Keys returns the configurable key names in display order.
func Keys() []string {
	out := make([]string, len(settingKeys))
	for i, k := range settingKeys {
		out[i] = k.name
	}
	return out
}

func lookupKey(name string) (settingKey, bool) {
	for _, k := range settingKeys {
		if k.name == name {
			return k, true
		}
	}
	return settingKey{}, false
}

// EnvLookup reads an environment variable.
type EnvLookup func(key string) (string, bool)

// SettingsService resolves application settings from the config file and
// the environment.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   EnvLookup
}

// NewSettingsService creates a settings service reading overrides from
// the process environment.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return NewSettingsServiceWithEnv(configStore, os.LookupEnv)
}

// NewSettingsServiceWithEnv creates a settings service with a custom
// environment lookup. A nil lookup disables environment overrides.
func NewSettingsServiceWithEnv(configStore driven.ConfigStore, lookupEnv EnvLookup) *SettingsService {
	if lookupEnv == nil {
		lookupEnv = func(string) (string, bool) { return "", false }
	}
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   lookupEnv,
	}
}

// Get returns effective settings: defaults, overridden by the config file,
// overridden by environment variables. The result is validated.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:    s.getProvider(d.Embedding.Provider),
			BaseURL:     s.configStore.GetString(keyEmbedBaseURL),
			Model:       s.getString(keyEmbedModel, ""),
			APIKey:      s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:  s.getInt(keyEmbedDims, 0),
			Timeout:     s.getSeconds(keyEmbedTimeout, d.Embedding.Timeout),
			MaxAttempts: s.getInt(keyEmbedAttempts, d.Embedding.MaxAttempts),
		},
		Store: domain.StoreSettings{
			Backend:    s.getBackend(d.Store.Backend),
			URL:        s.getString(keyStoreURL, d.Store.URL),
			DSN:        s.configStore.GetString(keyStoreDSN),
			Collection: s.getString(keyStoreCollection, d.Store.Collection),
			Timeout:    s.getSeconds(keyStoreTimeout, d.Store.Timeout),
		},
		Retrieval: domain.RetrievalSettings{
			Limit:          s.getInt(keyRetrievalLimit, d.Retrieval.Limit),
			ScoreThreshold: s.getFloat(keyRetrievalScore, d.Retrieval.ScoreThreshold),
			ContextBudget:  s.getInt(keyRetrievalBudget, d.Retrieval.ContextBudget),
		},
	}

	if err := s.applyEnv(settings); err != nil {
		return nil, err
	}

	// Model and endpoint defaults follow the provider unless set explicitly.
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.Embedding.BaseURL == "" && settings.Embedding.Provider == domain.AIProviderOllama {
		settings.Embedding.BaseURL = d.Embedding.BaseURL
	}

	if err := validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set validates and persists a single key.
func (s *SettingsService) Set(key, value string) error {
	k, ok := lookupKey(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (known: %s)", domain.ErrInvalidInput, key, strings.Join(Keys(), ", "))
	}

	parsed, err := parseValue(k, value)
	if err != nil {
		return err
	}

	switch key {
	case keyEmbedProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, value)
		}
	case keyStoreBackend:
		if !domain.StoreBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid vector store: %s", domain.ErrInvalidInput, value)
		}
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Path returns the configuration file location.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func (s *SettingsService) applyEnv(settings *domain.AppSettings) error {
	for _, k := range settingKeys {
		if k.env == "" {
			continue
		}
		raw, ok := s.lookupEnv(k.env)
		if !ok || raw == "" {
			continue
		}
		v, err := parseValue(k, raw)
		if err != nil {
			return fmt.Errorf("environment %s: %w", k.env, err)
		}
		assign(settings, k.name, v)
	}
	return nil
}

// assign sets the field for key from an already-parsed value.
func assign(settings *domain.AppSettings, key string, v any) {
	switch key {
	case keyEmbedProvider:
		settings.Embedding.Provider = domain.AIProvider(v.(string))
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = v.(string)
	case keyEmbedModel:
		settings.Embedding.Model = v.(string)
	case keyEmbedAPIKey:
		settings.Embedding.APIKey = v.(string)
	case keyEmbedDims:
		settings.Embedding.Dimensions = v.(int)
	case keyEmbedTimeout:
		settings.Embedding.Timeout = time.Duration(v.(int)) * time.Second
	case keyEmbedAttempts:
		settings.Embedding.MaxAttempts = v.(int)
	case keyStoreBackend:
		settings.Store.Backend = domain.StoreBackend(v.(string))
	case keyStoreURL:
		settings.Store.URL = v.(string)
	case keyStoreDSN:
		settings.Store.DSN = v.(string)
	case keyStoreCollection:
		settings.Store.Collection = v.(string)
	case keyStoreTimeout:
		settings.Store.Timeout = time.Duration(v.(int)) * time.Second
	case keyRetrievalLimit:
		settings.Retrieval.Limit = v.(int)
	case keyRetrievalScore:
		settings.Retrieval.ScoreThreshold = v.(float64)
	case keyRetrievalBudget:
		settings.Retrieval.ContextBudget = v.(int)
	}
}

func parseValue(k settingKey, raw string) (any, error) {
	switch k.kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrInvalidInput, k.name, raw)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number, got %q", domain.ErrInvalidInput, k.name, raw)
		}
		return f, nil
	default:
		return raw, nil
	}
}

func validate(settings *domain.AppSettings) error {
	if !settings.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if settings.Embedding.Dimensions < 0 {
		return fmt.Errorf("%w: embedding dimensions must not be negative", domain.ErrInvalidInput)
	}
	if settings.Embedding.Timeout <= 0 {
		return fmt.Errorf("%w: embedding timeout must be positive", domain.ErrInvalidInput)
	}
	if settings.Embedding.MaxAttempts <= 0 {
		return fmt.Errorf("%w: embedding max attempts must be positive", domain.ErrInvalidInput)
	}
	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("%w: invalid vector store: %s", domain.ErrInvalidInput, settings.Store.Backend)
	}
	if settings.Store.Collection == "" {
		return fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	return settings.Retrieval.Validate()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	n := s.configStore.GetInt(key)
	if n <= 0 {
		return defaultVal
	}
	return time.Duration(n) * time.Second
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(keyEmbedProvider)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	val := s.configStore.GetString(keyStoreBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StoreBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
