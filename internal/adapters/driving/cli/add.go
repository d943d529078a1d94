package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbase/internal/adapters/driving/tools"
	"github.com/custodia-labs/kbase/internal/core/domain"
)

var (
	addCategory string
	addSource   string
)

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a document to the knowledge base",
	Long: `Embeds the text and stores it with its category and source.
The document ID is derived from the text, so adding the same text again
replaces the stored entry instead of duplicating it.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{wiringAnnotation: wiringStore},
	RunE:        runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addCategory, "category", tools.DefaultCategory, "category label")
	addCmd.Flags().StringVar(&addSource, "source", tools.DefaultSource, "where the text came from")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	metadata := domain.Metadata{
		"category": addCategory,
		"source":   addSource,
		"added_by": "cli",
	}

	id, err := retrievalService.AddDocument(cmd.Context(), args[0], metadata)
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	cmd.Printf("Added document %s (category '%s', source '%s')\n", id, addCategory, addSource)
	return nil
}
