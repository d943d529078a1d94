package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

func seedDocuments(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := retrievalService.AddDocument(ctx, "Paris is the capital of France.",
		domain.Metadata{"category": "geography", "source": "atlas"})
	require.NoError(t, err)
	_, err = retrievalService.AddDocument(ctx, "Python is a programming language.",
		domain.Metadata{"category": "tech"})
	require.NoError(t, err)
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	defer setupTestServices()()

	_, err := execute(t, "search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCmd_PrintsMatches(t *testing.T) {
	defer setupTestServices()()
	seedDocuments(t)

	out, err := execute(t, "search", "Tell me about Paris")

	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "Paris is the capital of France.")
	assert.Contains(t, out, "Category: geography")
	assert.Contains(t, out, "Source: atlas")
	assert.Contains(t, out, "(1.000)")
	assert.NotContains(t, out, "Python")
}

func TestSearchCmd_NoResults(t *testing.T) {
	defer setupTestServices()()
	seedDocuments(t)

	out, err := execute(t, "search", "-n", "3", "quantum physics")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	defer setupTestServices()()
	seedDocuments(t)

	out, err := execute(t, "search", "--json", "python tips")

	require.NoError(t, err)
	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Python is a programming language.", results[0]["text"])
	assert.InDelta(t, 1.0, results[0]["score"], 1e-9)
	assert.NotEmpty(t, results[0]["id"])
	assert.Equal(t, map[string]any{"category": "tech"}, results[0]["metadata"])
	assert.NotContains(t, out, `"ID"`)
}

func TestSearchCmd_ExplicitZeroThreshold(t *testing.T) {
	defer setupTestServices()()
	seedDocuments(t)

	out, err := execute(t, "search", "--threshold", "0", "quantum physics")

	require.NoError(t, err)
	assert.Contains(t, out, "Paris is the capital of France.")
	assert.Contains(t, out, "Python is a programming language.")
	assert.Contains(t, out, "(0.000)")
}

func TestSearchCmd_DefaultThresholdFiltersWeakMatches(t *testing.T) {
	defer setupTestServices()()
	seedDocuments(t)

	out, err := execute(t, "search", "quantum physics")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSONEmpty(t *testing.T) {
	defer setupTestServices()()

	out, err := execute(t, "search", "--json", "anything")

	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestSearchCmd_NotConfigured(t *testing.T) {
	defer setupTestServices()()
	retrievalService = nil
	settingsService = nil
	configDir = t.TempDir()
	t.Setenv("VECTOR_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := execute(t, "search", "query")

	assert.Error(t, err)
}
