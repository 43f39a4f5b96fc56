package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
	"github.com/custodia-labs/zoomin/internal/logger"
)

// WatchPrompts reloads store whenever a prompt file in dir changes.
// The returned channel receives the name of each changed prompt and is
// closed when ctx is cancelled or the watcher fails.
func WatchPrompts(ctx context.Context, dir string, store driven.PromptStore) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create prompt watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	changes := make(chan string, 8)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name, relevant := promptEvent(event)
				if !relevant {
					continue
				}
				store.Reload()
				logger.Debug("prompt %s changed, reloaded", name)
				select {
				case changes <- name:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("prompt watcher: %v", err)
			}
		}
	}()

	return changes, nil
}

// promptEvent reports whether event touches a prompt file, and which one.
func promptEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	base := filepath.Base(event.Name)
	if !strings.HasSuffix(base, ".txt") {
		return "", false
	}
	name := strings.TrimSuffix(base, ".txt")
	for _, known := range driven.PromptNames() {
		if name == known {
			return name, true
		}
	}
	return "", false
}
