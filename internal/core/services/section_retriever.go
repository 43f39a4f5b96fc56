package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/logger"
)

const truncationMarker = " [truncated]"

// SectionRetriever runs stage 3: select content items from the surviving files.
// There is no threshold here; every valid pointer the oracle returns is kept.
type SectionRetriever struct {
	store  driven.RecordStore
	oracle *Oracle
}

// NewSectionRetriever creates a section retriever.
func NewSectionRetriever(store driven.RecordStore, oracle *Oracle) *SectionRetriever {
	return &SectionRetriever{store: store, oracle: oracle}
}

// Retrieve returns content pointers grouped by file rank.
// Files that cannot be loaded are skipped. If none load the oracle is not called.
func (r *SectionRetriever) Retrieve(
	ctx context.Context, query string, files []domain.ScoredFile, opts domain.SearchOptions, diag *domain.Diagnostics,
) ([]domain.ContentPointer, error) {
	payload := make([]RetrievalFile, 0, len(files))
	rank := make(map[string]int, len(files))
	for _, f := range files {
		ext, err := loadExtraction(ctx, r.store, f.File.ID)
		if err != nil {
			if isStoreFailure(err) {
				return nil, err
			}
			skipFile(diag, f.File.ID, err)
			continue
		}
		rank[f.File.ID] = len(payload)
		payload = append(payload, RetrievalFile{
			FileID: f.File.ID,
			Title:  ext.Header().Title,
			Items:  retrievalItems(ext.ContentItems(), opts.MaxItemChars),
		})
	}

	logger.Debug("Files sent for retrieval: %d of %d", len(payload), len(files))
	if len(payload) == 0 {
		return []domain.ContentPointer{}, nil
	}

	verdict, err := r.oracle.RetrieveContent(ctx, query, payload)
	if err != nil {
		return nil, err
	}
	recordRejected(diag, "section retrieval", verdict.Rejected)

	pointers := verdict.Pointers
	sort.SliceStable(pointers, func(i, j int) bool {
		return rank[pointers[i].FileID] < rank[pointers[j].FileID]
	})

	logger.Debug("Pointers returned: %d", len(pointers))
	return pointers, nil
}

// retrievalItems serialises flattened content for the extractor.
// Indices come from the same flattening the resolver uses.
func retrievalItems(items domain.ContentItems, maxChars int) []RetrievalItem {
	all := items.Items()
	out := make([]RetrievalItem, len(all))
	for i, item := range all {
		out[i] = RetrievalItem{
			Type:  item.Type,
			Index: item.Index,
			Label: item.Label(),
			Text:  truncate(item.Text(), maxChars),
		}
	}
	return out
}

// truncate cuts s to at most maxChars runes. Zero or less means no limit.
func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars]) + truncationMarker
}

// loadExtraction fetches and parses the extraction record of a file.
func loadExtraction(ctx context.Context, store driven.RecordStore, fileID string) (domain.Extraction, error) {
	if _, _, err := domain.SplitFileID(fileID); err != nil {
		return nil, err
	}
	blob, err := store.GetFile(ctx, domain.ExtractionKey(fileID))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", fileID, err)
	}
	return domain.ParseExtraction(blob)
}

// isStoreFailure reports whether err means the store itself is unusable,
// as opposed to one record being missing or malformed.
func isStoreFailure(err error) bool {
	return errors.Is(err, domain.ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
