package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Path(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(dir)

	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[[[ nope"), 0600))

	_, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("oracle.classifier.provider", "ollama"))
	require.NoError(t, store.Set("retrieval.stage_timeout_seconds", 30))
	require.NoError(t, store.Set("retrieval.threshold", 0.65))

	assert.Equal(t, "ollama", store.GetString("oracle.classifier.provider"))
	assert.Equal(t, 30, store.GetInt("retrieval.stage_timeout_seconds"))
	assert.InDelta(t, 0.65, store.GetFloat("retrieval.threshold"), 1e-9)
	assert.InDelta(t, 30.0, store.GetFloat("retrieval.stage_timeout_seconds"), 1e-9)

	// Wrong types and missing keys yield zero values.
	assert.Equal(t, "", store.GetString("retrieval.threshold"))
	assert.Equal(t, 0, store.GetInt("oracle.classifier.provider"))
	assert.Equal(t, 0.0, store.GetFloat("missing"))
	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_PersistsAsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("oracle.classifier.model", "gpt-4o-mini"))
	require.NoError(t, store.Set("oracle.extractor.model", "gpt-4o"))
	require.NoError(t, store.Set("retrieval.threshold", 0.5))
	require.NoError(t, store.Set("retrieval.stage_timeout_seconds", 60))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[oracle.classifier]")
	assert.Contains(t, string(data), "[retrieval]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", reloaded.GetString("oracle.classifier.model"))
	assert.Equal(t, "gpt-4o", reloaded.GetString("oracle.extractor.model"))
	assert.InDelta(t, 0.5, reloaded.GetFloat("retrieval.threshold"), 1e-9)
	assert.Equal(t, 60, reloaded.GetInt("retrieval.stage_timeout_seconds"))
}

func TestConfigStore_ReadsHandWrittenTOML(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[oracle.classifier]
provider = "anthropic"

[retrieval]
threshold = 1
catch_all_folder = "Misc"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "anthropic", store.GetString("oracle.classifier.provider"))
	assert.Equal(t, "Misc", store.GetString("retrieval.catch_all_folder"))
	assert.InDelta(t, 1.0, store.GetFloat("retrieval.threshold"), 1e-9)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("oracle.classifier.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())

	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("storage.backend", "bolt"))
	require.NoError(t, store.Set("storage.path", "/data"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"config.toml", "config.toml.lock"}, names)

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "bolt", reloaded.GetString("storage.backend"))
}

func TestConfigStore_GettersIgnoreWrongTypes(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("a", "text"))
	require.NoError(t, store.Set("b", 2.9))

	assert.Zero(t, store.GetInt("a"))
	assert.Zero(t, store.GetFloat("a"))
	assert.Empty(t, store.GetString("b"))
	assert.Equal(t, 2, store.GetInt("b"))
	assert.Zero(t, store.GetInt("missing"))
}

func TestConfigStore_LoadMissingFileIsEmpty(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, os.Remove(store.Path()))

	require.NoError(t, store.Load())

	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestConfigStore(t)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("retrieval.max_item_chars", i)
			_ = store.GetInt("retrieval.max_item_chars")
		}()
	}
	wg.Wait()

	_, ok := store.Get("retrieval.max_item_chars")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a.b.c": 1,
		"a.d":   "x",
		"top":   true,
	})

	assert.Equal(t, map[string]any{
		"a":   map[string]any{"b": map[string]any{"c": 1}, "d": "x"},
		"top": true,
	}, nested)
	assert.Equal(t, map[string]any{"a.b.c": 1, "a.d": "x", "top": true}, flattenMap(nested, ""))
}

func TestNestMap_LeafAndPrefixClash(t *testing.T) {
	nested := nestMap(map[string]any{
		"a":   1,
		"a.b": 2,
	})

	assert.Equal(t, 1, nested["a"])
	assert.Equal(t, 2, nested["a.b"])
}
