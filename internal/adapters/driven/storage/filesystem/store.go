// Package filesystem exposes a directory tree of extraction records as a
// read-only record store.
//
// Layout:
//
//	<root>/<folder>/<filename>_extraction.json
//	<root>/<folder>/_folder.json
//
// Record keys are "<folder>/<name>" with forward slashes, matching the
// other stores, so the tree can be imported without renaming anything.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RecordStore = (*Store)(nil)

// MetadataFile is the per-folder metadata file name.
const MetadataFile = "_folder.json"

// Store reads records from a directory tree.
type Store struct {
	root string
}

// NewStore opens the tree rooted at root, which must be a directory.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrStoreUnavailable, abs)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string {
	return s.root
}

// ListSubfolders returns the immediate subdirectories of the root, sorted.
// Hidden directories are skipped.
func (s *Store) ListSubfolders(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w: %w", s.root, domain.ErrStoreUnavailable, err)
	}

	folders := []string{}
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			folders = append(folders, entry.Name())
		}
	}
	sort.Strings(folders)
	return folders, nil
}

// GetMetadata reads <folder>/_folder.json.
func (s *Store) GetMetadata(ctx context.Context, folderID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.resolve(path.Join(folderID, MetadataFile))
	if err != nil {
		return nil, err
	}
	return readFile(p, "folder metadata "+folderID)
}

// ListFiles returns every regular file in the folder except the metadata
// file, sorted by key.
func (s *Store) ListFiles(ctx context.Context, folderID string) ([]driven.StoredRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.resolve(folderID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []driven.StoredRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", folderID, err)
	}

	records := []driven.StoredRecord{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name() == MetadataFile {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := folderID + "/" + entry.Name()
		blob, err := readFile(filepath.Join(dir, entry.Name()), key)
		if err != nil {
			return nil, err
		}
		records = append(records, driven.StoredRecord{Key: key, Blob: blob})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

// GetFile reads the file stored under key.
func (s *Store) GetFile(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, _, err := domain.SplitFileID(key); err != nil {
		return nil, err
	}
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return readFile(p, "record "+key)
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// resolve maps a slash-separated key to a path under the root, rejecting
// keys that escape it.
func (s *Store) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || clean != "/"+key {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean[1:])), nil
}

func readFile(p, what string) ([]byte, error) {
	blob, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", what, err)
	}
	return blob, nil
}
