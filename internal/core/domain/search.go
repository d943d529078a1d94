package domain

// Retrieval defaults.
const (
	DefaultSearchLimit    = 5
	DefaultScoreThreshold = 0.4
	DefaultContextBudget  = 2000
)

// NoContextSentinel is returned by context assembly when nothing relevant
// fits. Callers must special-case it; it is not an error.
const NoContextSentinel = "No relevant information found in the knowledge base."

// ContextSeparator joins assembled passages.
const ContextSeparator = "\n\n---\n\n"

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// ScoreThreshold is the minimum similarity a result must reach.
	ScoreThreshold float64

	// ThresholdSet marks ScoreThreshold as explicit, so a zero threshold
	// is used as given instead of taking the default.
	ThresholdSet bool
}

// DefaultSearchOptions returns limit 5 and threshold 0.4.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:          DefaultSearchLimit,
		ScoreThreshold: DefaultScoreThreshold,
	}
}
