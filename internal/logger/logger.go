// Package logger provides verbose logging for zoomin.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr so users can follow each stage of a search.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(level, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, level+prefix+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write("[DEBUG] ", "", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write("[INFO] ", "", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	write("[WARN] ", "", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Search is a logger that stamps every line with a search ID,
// so output of overlapping searches can be told apart.
type Search struct {
	prefix string
}

// ForSearch returns a logger scoped to one search.
// IDs longer than eight characters are shortened.
func ForSearch(searchID string) Search {
	short := searchID
	if len(short) > 8 {
		short = short[:8]
	}
	return Search{prefix: "[" + short + "] "}
}

// Debug prints a scoped message if verbose mode is enabled.
func (s Search) Debug(format string, args ...any) {
	write("[DEBUG] ", s.prefix, format, args...)
}

// Info prints a scoped message if verbose mode is enabled.
func (s Search) Info(format string, args ...any) {
	write("[INFO] ", s.prefix, format, args...)
}

// Warn prints a scoped warning if verbose mode is enabled.
func (s Search) Warn(format string, args ...any) {
	write("[WARN] ", s.prefix, format, args...)
}
