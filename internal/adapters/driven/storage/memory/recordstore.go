package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
)

// Ensure RecordStore implements the interfaces.
var (
	_ driven.RecordStore  = (*RecordStore)(nil)
	_ driven.RecordWriter = (*RecordStore)(nil)
)

// RecordStore is an in-memory record store.
type RecordStore struct {
	mu       sync.RWMutex
	metadata map[string][]byte
	files    map[string]map[string][]byte // folder -> key -> blob
	closed   bool
}

// NewRecordStore creates an empty in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		metadata: make(map[string][]byte),
		files:    make(map[string]map[string][]byte),
	}
}

// ListSubfolders returns every folder holding metadata or records, sorted.
func (s *RecordStore) ListSubfolders(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreUnavailable
	}

	seen := make(map[string]bool, len(s.metadata)+len(s.files))
	for id := range s.metadata {
		seen[id] = true
	}
	for id := range s.files {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetMetadata returns the folder metadata blob.
func (s *RecordStore) GetMetadata(_ context.Context, folderID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreUnavailable
	}
	blob, ok := s.metadata[folderID]
	if !ok {
		return nil, fmt.Errorf("metadata %s: %w", folderID, domain.ErrNotFound)
	}
	return clone(blob), nil
}

// ListFiles returns every record in the folder, sorted by key.
func (s *RecordStore) ListFiles(_ context.Context, folderID string) ([]driven.StoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreUnavailable
	}

	folder := s.files[folderID]
	records := make([]driven.StoredRecord, 0, len(folder))
	for key, blob := range folder {
		records = append(records, driven.StoredRecord{Key: key, Blob: clone(blob)})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

// GetFile returns a record by full key.
func (s *RecordStore) GetFile(_ context.Context, key string) ([]byte, error) {
	folder, _, err := domain.SplitFileID(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreUnavailable
	}
	blob, ok := s.files[folder][key]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", key, domain.ErrNotFound)
	}
	return clone(blob), nil
}

// PutFile stores a record under its full key.
func (s *RecordStore) PutFile(_ context.Context, key string, blob []byte) error {
	folder, _, err := domain.SplitFileID(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreUnavailable
	}
	if s.files[folder] == nil {
		s.files[folder] = make(map[string][]byte)
	}
	s.files[folder][key] = clone(blob)
	return nil
}

// PutMetadata stores the folder metadata blob.
func (s *RecordStore) PutMetadata(_ context.Context, folderID string, blob []byte) error {
	if folderID == "" {
		return fmt.Errorf("%w: empty folder id", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreUnavailable
	}
	s.metadata[folderID] = clone(blob)
	return nil
}

// Close marks the store closed. Later calls return domain.ErrStoreUnavailable.
func (s *RecordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
