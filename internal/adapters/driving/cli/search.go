package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

var (
	searchLimit     int
	searchThreshold float64
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base",
	Long: `Embeds the query and returns the stored documents most similar to it,
best match first. Only matches scoring at least the threshold are shown.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{wiringAnnotation: wiringStore},
	RunE:        runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum similarity score (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	opts := domain.SearchOptions{
		Limit:          searchLimit,
		ScoreThreshold: searchThreshold,
		ThresholdSet:   cmd.Flags().Changed("threshold"),
	}

	results := retrievalService.SearchSimilar(cmd.Context(), query, opts)

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	outputSearchTable(cmd, results)
	return nil
}

// searchResultJSON is the --json shape of one match.
type searchResultJSON struct {
	ID       string          `json:"id"`
	Score    float64         `json:"score"`
	Text     string          `json:"text"`
	Metadata domain.Metadata `json:"metadata"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		metadata := r.Metadata
		if metadata == nil {
			metadata = domain.Metadata{}
		}
		out[i] = searchResultJSON{ID: r.ID, Score: r.Score, Text: r.Text, Metadata: metadata}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] ID (Score)
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, results[i].ID, results[i].Score)
		if category, ok := results[i].Metadata["category"]; ok {
			cmd.Printf("      Category: %v\n", category)
		}
		if source, ok := results[i].Metadata["source"]; ok {
			cmd.Printf("      Source: %v\n", source)
		}
		cmd.Printf("      %s\n", results[i].Text)
		cmd.Println()
	}
}
