package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/zoomin/internal/core/domain"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0700))
		require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	}
	return root
}

func corrosionTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"Inspection Data/_folder.json":                     `{"folderSummary":{"summary":"CML surveys"}}`,
		"Inspection Data/piping_FW_101_extraction.json":    `{"title":"FW-101"}`,
		"Inspection Data/readme.txt":                       "notes",
		"Safety Documents/hot_work_permit_extraction.json": `{}`,
		".git/config": "",
	})
}

func TestNewStore_RequiresDirectory(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0600))
	_, err = NewStore(file)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestStore_Listings(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(corrosionTree(t))
	require.NoError(t, err)

	folders, err := store.ListSubfolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inspection Data", "Safety Documents"}, folders)

	records, err := store.ListFiles(ctx, "Inspection Data")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Inspection Data/piping_FW_101_extraction.json", records[0].Key)
	assert.Equal(t, "Inspection Data/readme.txt", records[1].Key)
	assert.JSONEq(t, `{"title":"FW-101"}`, string(records[0].Blob))

	meta, err := store.GetMetadata(ctx, "Inspection Data")
	require.NoError(t, err)
	assert.Contains(t, string(meta), "CML surveys")

	blob, err := store.GetFile(ctx, "Inspection Data/piping_FW_101_extraction.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"FW-101"}`, string(blob))
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(corrosionTree(t))
	require.NoError(t, err)

	_, err = store.GetMetadata(ctx, "Safety Documents")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.GetFile(ctx, "Inspection Data/ghost_extraction.json")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	records, err := store.ListFiles(ctx, "Nope")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(corrosionTree(t))
	require.NoError(t, err)

	for _, key := range []string{"../etc/passwd", "Inspection Data/../../x", "a//b"} {
		_, err := store.GetFile(ctx, key)
		assert.True(t, errors.Is(err, domain.ErrInvalidKey), key)
	}
	_, err = store.ListFiles(ctx, "..")
	assert.True(t, errors.Is(err, domain.ErrInvalidKey))
}

func TestStore_CancelledContext(t *testing.T) {
	store, err := NewStore(corrosionTree(t))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.ListSubfolders(ctx)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoError(t, store.Close())
}
