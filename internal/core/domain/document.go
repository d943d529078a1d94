package domain

import "fmt"

// Payload keys used when a document is written to a vector store.
const (
	PayloadText     = "text"
	PayloadMetadata = "metadata"
)

// Metadata is an open, string-keyed map of scalar values attached to a document.
// There is no fixed schema: category and source are conventions, not requirements.
type Metadata map[string]any

// Validate checks that every value is a scalar (string, bool, integer or float).
func (m Metadata) Validate() error {
	for key, value := range m {
		if key == "" {
			return fmt.Errorf("%w: metadata key must not be empty", ErrInvalidInput)
		}
		if !isScalar(value) {
			return fmt.Errorf("%w: metadata %q has non-scalar value of type %T", ErrInvalidInput, key, value)
		}
	}
	return nil
}

// Clone returns a shallow copy; nil yields an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// Document is a stored passage.
type Document struct {
	// ID is derived from Text, so re-adding the same text overwrites
	// the existing entry instead of creating a duplicate.
	ID string

	// Text is the raw passage.
	Text string

	// Metadata contains arbitrary scalar key-value pairs.
	Metadata Metadata

	// Embedding has exactly Collection.Dimension entries.
	Embedding []float32
}

// Payload returns the map persisted alongside the vector.
func (d Document) Payload() map[string]any {
	return map[string]any{
		PayloadText:     d.Text,
		PayloadMetadata: map[string]any(d.Metadata.Clone()),
	}
}

// SearchResult is a single similarity match.
type SearchResult struct {
	// ID is the matched document ID.
	ID string

	// Score is the similarity; for cosine it lies in [-1, 1], higher is closer.
	Score float64

	// Text is the matched passage.
	Text string

	// Metadata is the metadata stored with the passage.
	Metadata Metadata
}

// ResultFromPayload builds a SearchResult from a stored payload.
// Missing or mistyped fields yield zero values.
func ResultFromPayload(id string, score float64, payload map[string]any) SearchResult {
	result := SearchResult{ID: id, Score: score, Metadata: Metadata{}}
	if text, ok := payload[PayloadText].(string); ok {
		result.Text = text
	}
	if meta, ok := payload[PayloadMetadata].(map[string]any); ok {
		result.Metadata = Metadata(meta)
	}
	return result
}
