package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var contextMaxLength int

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Print assembled context for a query",
	Long: `Searches the knowledge base and prints the matching passages, each
headed by its source ID and score, within the given length budget. Prints a
fixed notice when nothing relevant fits.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{wiringAnnotation: wiringStore},
	RunE:        runContext,
}

func init() {
	contextCmd.Flags().IntVar(&contextMaxLength, "max-length", 0, "maximum length in bytes (default from settings)")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if contextService == nil {
		return errors.New("context service not configured")
	}

	budget := contextMaxLength
	if !cmd.Flags().Changed("max-length") {
		budget = contextBudget()
	}

	cmd.Println(contextService.BuildContext(cmd.Context(), args[0], budget))
	return nil
}
