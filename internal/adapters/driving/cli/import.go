package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/zoomin/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/zoomin/internal/core/domain"
)

// importLockFile guards the record store against concurrent imports.
const importLockFile = "import.lock"

var importLockTimeout time.Duration

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import extraction records from a directory tree",
	Long: `Copies folder metadata and extraction records from a directory into the
configured record store. The directory holds one subdirectory per folder:

  <dir>/<folder>/_folder.json                  folder summary
  <dir>/<folder>/<filename>_extraction.json    extraction record

Records that do not parse are skipped and listed. Only the sqlite and bolt
backends can be imported into.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().DurationVar(&importLockTimeout, "lock-timeout", 10*time.Second,
		"how long to wait for another import to finish")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if importService == nil {
		if storageSettings.Backend != "" && !storageSettings.Backend.IsWritable() {
			return fmt.Errorf("%w: storage backend %q is read-only; "+
				"run 'zoomin settings storage' to select sqlite or bolt",
				domain.ErrInvalidInput, storageSettings.Backend)
		}
		return errors.New("import service not configured")
	}

	src, err := filesystem.NewStore(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer src.Close()

	unlock, err := acquireImportLock(importLockPath(), importLockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	report, err := importService.Import(cmd.Context(), src)
	if report != nil {
		cmd.Printf("Imported %d folders, %d records", report.Folders, report.Files)
		if report.Invalid > 0 {
			cmd.Printf(" (%d invalid)", report.Invalid)
		}
		cmd.Println()
		for _, s := range report.Skipped {
			cmd.Printf("  skipped %s\n", s)
		}
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}

// acquireImportLock takes an exclusive file lock, retrying until timeout.
func acquireImportLock(path string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create lock directory: %w", err)
	}
	l := flock.New(path)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire import lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("another import is in progress (lock: %s)", path)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// importLockPath places the lock beside the record store.
func importLockPath() string {
	if storageSettings.Path != "" {
		dir := storageSettings.Path
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			dir = filepath.Dir(dir)
		}
		return filepath.Join(dir, importLockFile)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".zoomin", "data", importLockFile)
	}
	return filepath.Join(os.TempDir(), "zoomin-"+importLockFile)
}
