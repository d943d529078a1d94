package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/kbase/internal/adapters/driving/tools"
	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/services"
	"github.com/custodia-labs/kbase/internal/logger"
)

// keywordEmbedder maps texts containing a keyword onto that keyword's axis.
type keywordEmbedder struct{}

var keywordAxes = []string{"paris", "python", "ocean"}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, len(keywordAxes)+1)
	lower := strings.ToLower(text)
	for i, word := range keywordAxes {
		if strings.Contains(lower, word) {
			v[i] = 1
			return v, nil
		}
	}
	v[len(keywordAxes)] = 1
	return v, nil
}

func (keywordEmbedder) Dimensions() int            { return len(keywordAxes) + 1 }
func (keywordEmbedder) ModelName() string          { return "keyword" }
func (keywordEmbedder) Ping(context.Context) error { return nil }
func (keywordEmbedder) Close() error               { return nil }

// setupTestServices wires in-memory services and returns a cleanup func.
func setupTestServices() func() {
	log := logger.Discard()
	settings := services.NewSettingsServiceWithEnv(memory.NewConfigStore(), nil)
	defaults := domain.DefaultAppSettings()

	retrieval := services.NewRetrievalService(keywordEmbedder{}, memory.NewVectorStore(), "test",
		defaults.Retrieval.SearchOptions(), log)
	_ = retrieval.EnsureReady(context.Background())
	assembler := services.NewContextAssembler(retrieval, log)

	settingsService = settings
	retrievalService = retrieval
	contextService = assembler
	toolkit = tools.NewToolkit(retrieval, assembler, defaults.Retrieval.ContextBudget, log)
	appSettings = &defaults

	return func() {
		settingsService = nil
		retrievalService = nil
		contextService = nil
		toolkit = nil
		appSettings = nil
		resetFlags()
	}
}

// resetFlags restores command flags, which cobra keeps between executions.
func resetFlags() {
	searchLimit = 0
	searchThreshold = 0
	searchJSON = false
	addCategory = tools.DefaultCategory
	addSource = tools.DefaultSource
	contextMaxLength = 0
	verbose = false
	configDir = ""
	for _, name := range []string{"limit", "threshold", "json"} {
		searchCmd.Flags().Lookup(name).Changed = false
	}
	addCmd.Flags().Lookup("category").Changed = false
	addCmd.Flags().Lookup("source").Changed = false
	contextCmd.Flags().Lookup("max-length").Changed = false
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "kbase", rootCmd.Use)
	assert.Same(t, rootCmd, RootCommand())
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestRootCmd_HasCommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"search", "add", "context", "mcp", "config", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestWiringLevel(t *testing.T) {
	assert.Equal(t, wiringNone, wiringLevel(versionCmd))
	assert.Equal(t, wiringStore, wiringLevel(searchCmd))
	assert.Equal(t, wiringStore, wiringLevel(mcpServeCmd))
	assert.Equal(t, wiringSettings, wiringLevel(configShowCmd))
}

func TestWireServices_FromConfigDir(t *testing.T) {
	defer setupTestServices()()
	settingsService = nil
	retrievalService = nil
	contextService = nil
	toolkit = nil
	defer closeServices()

	dir := t.TempDir()
	content := "[store]\nbackend = \"memory\"\ncollection = \"wired\"\n\n[retrieval]\ncontext_budget = 900\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))
	t.Setenv("VECTOR_STORE", "memory")
	t.Setenv("QDRANT_COLLECTION_NAME", "wired")
	t.Setenv("RAG_CONTEXT_BUDGET", "900")
	configDir = dir

	logs := new(bytes.Buffer)
	logger.SetOutput(logs)
	logger.SetVerbose(true)
	defer func() {
		logger.SetOutput(os.Stderr)
		logger.SetVerbose(false)
	}()

	require.NoError(t, wireServices(contextCmd, nil))

	assert.Contains(t, logs.String(), "[INFO] embedding: ollama model nomic-embed-text:latest, 768 dimensions")
	assert.Contains(t, logs.String(), `[INFO] vector store: memory, collection "wired"`)

	require.NotNil(t, retrievalService)
	require.NotNil(t, contextService)
	require.NotNil(t, toolkit)
	assert.Equal(t, 900, contextBudget())
	assert.Equal(t, 900, toolkit.ContextBudget())

	info, err := retrievalService.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wired", info.Name)
	assert.Equal(t, domain.DefaultEmbeddingDimensions, info.Dimension)
}

func TestWireServices_SettingsOnly(t *testing.T) {
	defer setupTestServices()()
	settingsService = nil
	retrievalService = nil
	configDir = t.TempDir()

	require.NoError(t, wireServices(configShowCmd, nil))

	assert.NotNil(t, settingsService)
	assert.Nil(t, retrievalService)
	assert.Equal(t, filepath.Join(configDir, "config.toml"), settingsService.Path())
}

func TestWireServices_InvalidEnv(t *testing.T) {
	defer setupTestServices()()
	settingsService = nil
	retrievalService = nil
	configDir = t.TempDir()
	t.Setenv("RAG_SEARCH_LIMIT", "many")

	err := wireServices(searchCmd, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestContextBudget_Default(t *testing.T) {
	appSettings = nil
	assert.Equal(t, domain.DefaultContextBudget, contextBudget())
}
