// Package bolt provides a record store backed by a single bbolt file.
//
// Folder metadata lives in the "metadata" bucket keyed by folder ID.
// Extraction records live in one nested bucket per folder under "records",
// keyed by the full record key, so a folder listing is one cursor walk.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var _ driven.WritableRecordStore = (*Store)(nil)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "records.bolt"

var (
	bucketMetadata = []byte("metadata")
	bucketRecords  = []byte("records")
)

// Store is a bbolt-backed record store.
type Store struct {
	db *bbolt.DB
}

// NewStore opens or creates the bolt file in dataDir.
// If dataDir is empty, defaults to ~/.zoomin/data/records.bolt.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".zoomin", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dataDir, DatabaseFile), 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w: %w", domain.ErrStoreUnavailable, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketMetadata); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListSubfolders returns every folder with metadata or records, sorted.
func (s *Store) ListSubfolders(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	folders := []string{}
	add := func(name []byte) {
		if !seen[string(name)] {
			seen[string(name)] = true
			folders = append(folders, string(name))
		}
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketMetadata).ForEach(func(k, _ []byte) error {
			add(k)
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			if v == nil {
				add(k)
			}
			return nil
		})
	})
	if err != nil {
		return nil, s.wrap("listing folders", err)
	}

	sort.Strings(folders)
	return folders, nil
}

// GetMetadata returns a folder's metadata blob.
func (s *Store) GetMetadata(ctx context.Context, folderID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var blob []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketMetadata).Get([]byte(folderID))
		if v == nil {
			return fmt.Errorf("folder metadata %q: %w", folderID, domain.ErrNotFound)
		}
		blob = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, s.wrap("reading folder metadata", err)
	}
	return blob, nil
}

// ListFiles returns every record in folderID, sorted by key.
func (s *Store) ListFiles(ctx context.Context, folderID string) ([]driven.StoredRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := []driven.StoredRecord{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		folder := tx.Bucket(bucketRecords).Bucket([]byte(folderID))
		if folder == nil {
			return nil
		}
		return folder.ForEach(func(k, v []byte) error {
			records = append(records, driven.StoredRecord{
				Key:  string(k),
				Blob: append([]byte(nil), v...),
			})
			return nil
		})
	})
	if err != nil {
		return nil, s.wrap("listing records", err)
	}
	return records, nil
}

// GetFile returns the record stored under key.
func (s *Store) GetFile(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	folderID, _, err := domain.SplitFileID(key)
	if err != nil {
		return nil, err
	}

	var blob []byte
	err = s.db.View(func(tx *bbolt.Tx) error {
		folder := tx.Bucket(bucketRecords).Bucket([]byte(folderID))
		var v []byte
		if folder != nil {
			v = folder.Get([]byte(key))
		}
		if v == nil {
			return fmt.Errorf("record %q: %w", key, domain.ErrNotFound)
		}
		blob = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, s.wrap("reading record", err)
	}
	return blob, nil
}

// PutFile stores or replaces a record.
func (s *Store) PutFile(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	folderID, _, err := domain.SplitFileID(key)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		folder, err := tx.Bucket(bucketRecords).CreateBucketIfNotExists([]byte(folderID))
		if err != nil {
			return err
		}
		return folder.Put([]byte(key), blob)
	})
	if err != nil {
		return s.wrap("writing record", err)
	}
	return nil
}

// PutMetadata stores or replaces a folder's metadata blob.
func (s *Store) PutMetadata(ctx context.Context, folderID string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if folderID == "" {
		return fmt.Errorf("%w: empty folder id", domain.ErrInvalidInput)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMetadata).Put([]byte(folderID), blob)
	})
	if err != nil {
		return s.wrap("writing folder metadata", err)
	}
	return nil
}

func (s *Store) wrap(op string, err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
