package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/zoomin/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/zoomin/internal/core/domain"
	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var _ driven.WritableRecordStore = (*Store)(nil)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "records.db"

// Store is a SQLite-backed record store. Folder metadata and extraction
// records live in two tables keyed by folder and full record key.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in dataDir.
// If dataDir is empty, defaults to ~/.zoomin/data/records.db.
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

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL lets searches read while an import writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ListSubfolders returns every folder that has metadata or records, sorted.
func (s *Store) ListSubfolders(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT folder FROM folder_metadata
		UNION
		SELECT DISTINCT folder FROM records
		ORDER BY 1
	`)
	if err != nil {
		return nil, s.wrap("listing folders", err)
	}
	defer rows.Close()

	folders := []string{}
	for rows.Next() {
		var folder string
		if err := rows.Scan(&folder); err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

// GetMetadata returns a folder's metadata blob.
func (s *Store) GetMetadata(ctx context.Context, folderID string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT blob FROM folder_metadata WHERE folder = ?", folderID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("folder metadata %q: %w", folderID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, s.wrap("reading folder metadata", err)
	}
	return blob, nil
}

// ListFiles returns every record stored under folderID, sorted by key.
func (s *Store) ListFiles(ctx context.Context, folderID string) ([]driven.StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, blob FROM records WHERE folder = ? ORDER BY key", folderID)
	if err != nil {
		return nil, s.wrap("listing records", err)
	}
	defer rows.Close()

	records := []driven.StoredRecord{}
	for rows.Next() {
		var rec driven.StoredRecord
		if err := rows.Scan(&rec.Key, &rec.Blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetFile returns the record stored under key.
func (s *Store) GetFile(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT blob FROM records WHERE key = ?", key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, s.wrap("reading record", err)
	}
	return blob, nil
}

// PutFile stores or replaces a record. The folder is taken from the key.
func (s *Store) PutFile(ctx context.Context, key string, blob []byte) error {
	folder, _, err := domain.SplitFileID(key)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (key, folder, blob, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = CURRENT_TIMESTAMP
	`, key, folder, blob)
	if err != nil {
		return s.wrap("writing record", err)
	}
	return nil
}

// PutMetadata stores or replaces a folder's metadata blob.
func (s *Store) PutMetadata(ctx context.Context, folderID string, blob []byte) error {
	if folderID == "" {
		return fmt.Errorf("%w: empty folder id", domain.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO folder_metadata (folder, blob, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(folder) DO UPDATE SET blob = excluded.blob, updated_at = CURRENT_TIMESTAMP
	`, folderID, blob)
	if err != nil {
		return s.wrap("writing folder metadata", err)
	}
	return nil
}

// wrap marks failures of a closed database as store unavailability.
func (s *Store) wrap(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// migrate runs all pending migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_records.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
