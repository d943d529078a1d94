package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are distinct
func TestErrors_Existence(t *testing.T) {
	all := []error{
		ErrInvalidInput,
		ErrEmbeddingUnavailable,
		ErrEmbeddingMalformed,
		ErrCollectionConflict,
		ErrCollectionNotFound,
		ErrDimensionMismatch,
		ErrStoreUnavailable,
	}

	for i, err := range all {
		assert.NotNil(t, err)
		assert.NotEmpty(t, err.Error())
		for j, other := range all {
			if i != j {
				assert.False(t, errors.Is(err, other), "%v should not match %v", err, other)
			}
		}
	}
}

func TestIsConfigurationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"conflict", ErrCollectionConflict, true},
		{"wrapped mismatch", fmt.Errorf("upsert: %w", ErrDimensionMismatch), true},
		{"store unavailable", ErrStoreUnavailable, false},
		{"embedding unavailable", fmt.Errorf("embed: %w", ErrEmbeddingUnavailable), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsConfigurationError(tt.err))
		})
	}
}
