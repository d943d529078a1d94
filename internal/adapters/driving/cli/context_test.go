package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

func defaultOpts() domain.SearchOptions {
	return domain.SearchOptions{}
}

func TestContextCmd_PrintsPassages(t *testing.T) {
	defer setupTestServices()()
	seedDocuments(t)

	out, err := execute(t, "context", "What is the capital near Paris?")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[Source ID: "), out)
	assert.Contains(t, out, "Score: 1.000]\nParis is the capital of France.")
}

func TestContextCmd_Sentinel(t *testing.T) {
	defer setupTestServices()()

	out, err := execute(t, "context", "anything at all")

	require.NoError(t, err)
	assert.Equal(t, domain.NoContextSentinel+"\n", out)
}

func TestContextCmd_MaxLengthTooSmall(t *testing.T) {
	defer setupTestServices()()
	seedDocuments(t)

	out, err := execute(t, "context", "--max-length", "10", "Paris")

	require.NoError(t, err)
	assert.Equal(t, domain.NoContextSentinel+"\n", out)
}

func TestContextCmd_MaxLengthFlag(t *testing.T) {
	flag := contextCmd.Flags().Lookup("max-length")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}
