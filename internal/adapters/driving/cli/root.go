// Package cli provides the kbase command-line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbase/internal/adapters/driven/config/file"
	"github.com/custodia-labs/kbase/internal/adapters/driven/factory"
	"github.com/custodia-labs/kbase/internal/adapters/driving/tools"
	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
	"github.com/custodia-labs/kbase/internal/core/services"
	"github.com/custodia-labs/kbase/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	verbose   bool
	configDir string
)

// Services wired by PersistentPreRunE. Tests assign them directly.
var (
	settingsService  driving.SettingsService
	retrievalService driving.RetrievalService
	contextService   driving.ContextService
	toolkit          *tools.Toolkit
	appSettings      *domain.AppSettings
	adapters         *factory.Adapters
)

// wiringAnnotation selects how much a command needs wired before it runs.
const wiringAnnotation = "kbase.wiring"

// Wiring levels. Commands without the annotation get wiringSettings.
const (
	wiringNone     = "none"
	wiringSettings = "settings"
	wiringStore    = "store"
)

var rootCmd = &cobra.Command{
	Use:   "kbase",
	Short: "Semantic knowledge base for AI agents",
	Long: `kbase stores text as embeddings in a vector store and retrieves the
passages most similar to a query, optionally assembled into a length-bounded
context block for a language model.

Settings are read from ~/.kbase/config.toml and environment variables.`,
	SilenceUsage:      true,
	PersistentPreRunE: wireServices,
	PersistentPostRun: func(*cobra.Command, []string) { closeServices() },
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.kbase)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// RootCommand returns the root command, for callers that need to set a context.
func RootCommand() *cobra.Command {
	return rootCmd
}

// SetVersion sets the version reported by 'kbase version'.
func SetVersion(v string) {
	version = v
}

func wiringLevel(cmd *cobra.Command) string {
	if level, ok := cmd.Annotations[wiringAnnotation]; ok {
		return level
	}
	return wiringSettings
}

func wireServices(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}

	level := wiringLevel(cmd)
	if level == wiringNone {
		return nil
	}

	if settingsService == nil {
		store, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}
		settingsService = services.NewSettingsService(store)
	}

	if level != wiringStore || retrievalService != nil {
		return nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	log := logger.Default()
	log.Section("Startup")
	log.Info("vector store: %s, collection %q", settings.Store.Backend, settings.Store.Collection)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	built, err := factory.New(ctx, *settings, log)
	if err != nil {
		return err
	}
	log.Info("embedding: %s model %s, %d dimensions",
		settings.Embedding.Provider, built.Embedding.ModelName(), built.Embedding.Dimensions())

	if err := factory.ValidateEmbeddingService(ctx, built.Embedding); err != nil {
		log.Warn("%v", err)
	}

	retrieval := services.NewRetrievalService(built.Embedding, built.Store,
		settings.Store.Collection, settings.Retrieval.SearchOptions(), log)
	if err := retrieval.EnsureReady(ctx); err != nil {
		built.Close()
		return fmt.Errorf("preparing collection: %w", err)
	}

	adapters = built
	appSettings = settings
	retrievalService = retrieval
	contextService = services.NewContextAssembler(retrieval, log)
	toolkit = tools.NewToolkit(retrieval, contextService, settings.Retrieval.ContextBudget, log)
	return nil
}

func closeServices() {
	if adapters != nil {
		adapters.Close()
		adapters = nil
	}
}

// contextBudget is the configured default for assembled context.
func contextBudget() int {
	if appSettings == nil {
		return domain.DefaultContextBudget
	}
	return appSettings.Retrieval.ContextBudget
}
