package driven

import "context"

// StoredRecord is a raw record as held by a RecordStore.
type StoredRecord struct {
	// Key is the full record key, e.g. "Inspection Data/report.pdf_extraction.json".
	Key string

	// Blob is the undecoded record body.
	Blob []byte
}

// RecordStore is read-only access to the folder-organised record store
// populated by the upstream classifier and extractor.
//
// Implementations must be safe for concurrent use.
type RecordStore interface {
	// ListSubfolders returns the IDs of all top-level folders.
	ListSubfolders(ctx context.Context) ([]string, error)

	// GetMetadata returns the folder metadata blob.
	// Returns domain.ErrNotFound if the folder has no metadata.
	GetMetadata(ctx context.Context, folderID string) ([]byte, error)

	// ListFiles returns every record directly under the folder, including
	// non-extraction records. Callers filter by key suffix.
	ListFiles(ctx context.Context, folderID string) ([]StoredRecord, error)

	// GetFile returns a single record body by its full key.
	// Returns domain.ErrNotFound if it does not exist.
	GetFile(ctx context.Context, key string) ([]byte, error)

	// Close releases resources.
	Close() error
}

// RecordWriter populates a record store. Used by import, never by search.
type RecordWriter interface {
	// PutFile stores a record body under its full key, replacing any existing one.
	// The folder is the key up to its last slash.
	PutFile(ctx context.Context, key string, blob []byte) error

	// PutMetadata stores the folder metadata blob.
	PutMetadata(ctx context.Context, folderID string, blob []byte) error
}

// WritableRecordStore is a RecordStore that also accepts writes.
type WritableRecordStore interface {
	RecordStore
	RecordWriter
}
