package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".kbase", "config.toml"), store.Path())

	info, err := os.Stat(filepath.Join(home, ".kbase"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_MkdirError(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	_, err := NewConfigStore(filepath.Join(blocker, "config"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating config directory")
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[embedding\nmodel = "), 0600))

	_, err := NewConfigStore(tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("embedding.model", "all-minilm"))

	val, ok := store.Get("embedding.model")
	assert.True(t, ok)
	assert.Equal(t, "all-minilm", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_GetString(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("store.url", "http://localhost:6333"))
	require.NoError(t, store.Set("retrieval.limit", 5))

	assert.Equal(t, "http://localhost:6333", store.GetString("store.url"))
	assert.Equal(t, "", store.GetString("nonexistent"))
	assert.Equal(t, "", store.GetString("retrieval.limit"))
}

func TestConfigStore_GetInt(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("a", 42))
	require.NoError(t, store.Set("b", int64(7)))
	require.NoError(t, store.Set("c", "nope"))

	assert.Equal(t, 42, store.GetInt("a"))
	assert.Equal(t, 7, store.GetInt("b"))
	assert.Equal(t, 0, store.GetInt("c"))
	assert.Equal(t, 0, store.GetInt("missing"))
}

func TestConfigStore_GetFloat(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("a", 0.4))
	require.NoError(t, store.Set("b", int64(1)))
	require.NoError(t, store.Set("c", 3))
	require.NoError(t, store.Set("d", true))

	assert.InDelta(t, 0.4, store.GetFloat("a"), 1e-9)
	assert.InDelta(t, 1.0, store.GetFloat("b"), 1e-9)
	assert.InDelta(t, 3.0, store.GetFloat("c"), 1e-9)
	assert.Zero(t, store.GetFloat("d"))
	assert.Zero(t, store.GetFloat("missing"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("flag", true))
	require.NoError(t, store.Set("str", "true"))

	assert.True(t, store.GetBool("flag"))
	assert.False(t, store.GetBool("str"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.model", "nomic-embed-text:latest"))
	require.NoError(t, store.Set("retrieval.limit", 5))
	require.NoError(t, store.Set("retrieval.score_threshold", 0.25))

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text:latest", reopened.GetString("embedding.model"))
	assert.Equal(t, 5, reopened.GetInt("retrieval.limit"))
	assert.InDelta(t, 0.25, reopened.GetFloat("retrieval.score_threshold"), 1e-9)
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("embedding.model", "all-minilm"))
	require.NoError(t, store.Set("store.backend", "memory"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	content := string(raw)
	assert.Contains(t, content, "[embedding]")
	assert.Contains(t, content, "[store]")
	assert.NotContains(t, content, "'embedding.model'")
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[embedding]\nprovider = \"openai\"\n\n[retrieval]\nlimit = 3\nscore_threshold = 0.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.Equal(t, 3, store.GetInt("retrieval.limit"))
	assert.InDelta(t, 0.5, store.GetFloat("retrieval.score_threshold"), 1e-9)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("embedding.api_key", "sk-test"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SetWriteErrorRollsBack(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("kept", "yes"))
	require.NoError(t, os.RemoveAll(tmpDir))

	err = store.Set("lost", "value")

	require.Error(t, err)
	_, ok := store.Get("lost")
	assert.False(t, ok)
	assert.Equal(t, "yes", store.GetString("kept"))
}

func TestConfigStore_SetUnencodableValue(t *testing.T) {
	store := newTestStore(t)

	err := store.Set("bad", make(chan int))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding config")
}

func TestConfigStore_LoadMissingFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("a", "b"))
	require.NoError(t, os.Remove(store.Path()))

	require.NoError(t, store.Load())

	_, ok := store.Get("a")
	assert.False(t, ok)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"embedding.model":    "m",
		"embedding.provider": "ollama",
		"top":                1,
		"top.child":          2,
	})

	assert.Equal(t, map[string]any{"model": "m", "provider": "ollama"}, nested["embedding"])
	assert.Equal(t, 1, nested["top"])
	assert.Equal(t, 2, nested["top.child"])
}

func TestFlattenMap(t *testing.T) {
	flat := flattenMap(map[string]any{
		"embedding": map[string]any{"model": "m"},
		"plain":     true,
	}, "")

	assert.Equal(t, map[string]any{"embedding.model": "m", "plain": true}, flat)
}
