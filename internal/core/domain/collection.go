package domain

import "fmt"

// DistanceMetric is the similarity function a collection is created with.
type DistanceMetric string

// Supported distance metrics.
const (
	// MetricCosine compares direction only. Required for semantic similarity.
	MetricCosine DistanceMetric = "cosine"

	// MetricDot is the raw dot product.
	MetricDot DistanceMetric = "dot"

	// MetricEuclid is the euclidean distance.
	MetricEuclid DistanceMetric = "euclid"
)

// IsValid returns true if the metric is recognised.
func (m DistanceMetric) IsValid() bool {
	switch m {
	case MetricCosine, MetricDot, MetricEuclid:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m DistanceMetric) String() string {
	return string(m)
}

// Collection is a named vector space. Its dimension and metric are fixed
// at creation and owned by the vector-storage service.
type Collection struct {
	Name      string
	Dimension int
	Metric    DistanceMetric
}

// NewCollection returns a cosine collection.
func NewCollection(name string, dimension int) Collection {
	return Collection{Name: name, Dimension: dimension, Metric: MetricCosine}
}

// Validate checks the collection definition.
func (c Collection) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: collection dimension must be positive, got %d", ErrInvalidInput, c.Dimension)
	}
	if !c.Metric.IsValid() {
		return fmt.Errorf("%w: unknown distance metric %q", ErrInvalidInput, c.Metric)
	}
	return nil
}

// Matches reports whether other has the same dimension and metric.
func (c Collection) Matches(other Collection) bool {
	return c.Dimension == other.Dimension && c.Metric == other.Metric
}

// CheckConflict returns ErrCollectionConflict describing how existing differs from c.
// It returns nil when the two match.
func (c Collection) CheckConflict(existing Collection) error {
	if c.Matches(existing) {
		return nil
	}
	return fmt.Errorf("%w: collection %q exists with dimension=%d metric=%s, want dimension=%d metric=%s",
		ErrCollectionConflict, c.Name, existing.Dimension, existing.Metric, c.Dimension, c.Metric)
}

// CheckVector returns ErrDimensionMismatch if v does not have c.Dimension entries.
func (c Collection) CheckVector(v []float32) error {
	if len(v) != c.Dimension {
		return fmt.Errorf("%w: got %d, collection %q expects %d",
			ErrDimensionMismatch, len(v), c.Name, c.Dimension)
	}
	return nil
}

// CollectionInfo describes a collection as reported by the vector store.
type CollectionInfo struct {
	Collection

	// Count is the number of stored points.
	Count int
}
