package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/zoomin/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/zoomin/internal/core/domain"
)

func TestImportService_CopiesValidRecords(t *testing.T) {
	ctx := context.Background()
	src := setupCorrosionStore(t)
	require.NoError(t, src.PutFile(ctx, "Inspection Data/corrupt_extraction.json", []byte("{")))
	require.NoError(t, src.PutMetadata(ctx, "Broken", []byte("not json")))
	dst := memory.NewRecordStore()

	report, err := NewImportService(dst).Import(ctx, src)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Folders)
	assert.Equal(t, 5, report.Files)
	assert.Equal(t, 1, report.Invalid)
	assert.Len(t, report.Skipped, 2)

	blob, err := dst.GetFile(ctx, domain.ExtractionKey(pipingFileID))
	require.NoError(t, err)
	assert.JSONEq(t, pipingBlob, string(blob))

	_, err = dst.GetFile(ctx, "Inspection Data/readme.txt")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = dst.GetMetadata(ctx, "Broken")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestImportService_ImportedStoreIsSearchable(t *testing.T) {
	ctx := context.Background()
	dst := memory.NewRecordStore()
	_, err := NewImportService(dst).Import(ctx, setupCorrosionStore(t))
	require.NoError(t, err)

	llm := newMockLLM("m", corrosionReplies())
	env, err := newTestSearchService(t, dst, llm).Search(ctx, corrosionQuery, domain.SearchOptions{}, nil)

	require.NoError(t, err)
	assert.Len(t, env.Results, 1)
}

func TestImportService_NoDestination(t *testing.T) {
	_, err := NewImportService(nil).Import(context.Background(), memory.NewRecordStore())
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestImportService_ClosedSource(t *testing.T) {
	src := memory.NewRecordStore()
	require.NoError(t, src.Close())

	_, err := NewImportService(memory.NewRecordStore()).Import(context.Background(), src)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}
