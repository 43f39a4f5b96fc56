package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/logger"
)

// PointerResolver materialises content pointers by re-reading the store.
type PointerResolver struct {
	store driven.RecordStore
}

// NewPointerResolver creates a pointer resolver.
func NewPointerResolver(store driven.RecordStore) *PointerResolver {
	return &PointerResolver{store: store}
}

type resolvedFile struct {
	folder   string
	filename string
	title    string
	items    domain.ContentItems
	err      error
}

// Resolve dereferences each pointer against a fresh flattening of its file.
// Pointers that do not resolve are dropped and counted, never fatal.
// Each file is read at most once per call.
func (r *PointerResolver) Resolve(
	ctx context.Context, pointers []domain.ContentPointer, diag *domain.Diagnostics,
) ([]domain.ResolvedResult, error) {
	files := make(map[string]*resolvedFile)
	results := make([]domain.ResolvedResult, 0, len(pointers))

	for _, p := range pointers {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		file, seen := files[p.FileID]
		if !seen {
			file = r.load(ctx, p.FileID)
			files[p.FileID] = file
			if file.err != nil {
				if isStoreFailure(file.err) {
					return results, file.err
				}
				skipFile(diag, p.FileID, file.err)
			}
		}
		if file.err != nil {
			dropPointer(diag, p, "file unavailable")
			continue
		}

		item, ok := file.items.Lookup(p.Type, p.Index)
		if !ok {
			dropPointer(diag, p, fmt.Sprintf("index out of range (%d %ss)", file.items.Len(p.Type), p.Type))
			continue
		}

		results = append(results, domain.ResolvedResult{
			Pointer:   p,
			Content:   item,
			Folder:    file.folder,
			Filename:  file.filename,
			FileTitle: file.title,
			Reason:    p.Reason,
		})
	}

	logger.Debug("Resolved %d of %d pointers", len(results), len(pointers))
	return results, nil
}

func (r *PointerResolver) load(ctx context.Context, fileID string) *resolvedFile {
	folder, filename, err := domain.SplitFileID(fileID)
	if err != nil {
		return &resolvedFile{err: err}
	}
	ext, err := loadExtraction(ctx, r.store, fileID)
	if err != nil {
		return &resolvedFile{err: err}
	}
	return &resolvedFile{
		folder:   folder,
		filename: filename,
		title:    ext.Header().Title,
		items:    ext.ContentItems(),
	}
}

func dropPointer(diag *domain.Diagnostics, p domain.ContentPointer, why string) {
	logger.Warn("Dropping pointer %s %s[%d]: %s", p.FileID, p.Type, p.Index, why)
	diag.DroppedPointers++
	diag.Warnings = append(diag.Warnings, fmt.Sprintf("dropped %s %s[%d]: %s", p.FileID, p.Type, p.Index, why))
}
