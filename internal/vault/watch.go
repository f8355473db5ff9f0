package vault

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	appLog "timelineview/internal/log"
)

// debounceDelay coalesces bursts of filesystem events (editors typically
// fire several per save) into a single change notification.
const debounceDelay = 500 * time.Millisecond

// Watch runs a filesystem watch on the vault until ctx is done, invoking
// onChange after any relevant mutation: a markdown document written, created,
// renamed, or removed, or a directory appearing. Notifications are debounced.
func (v *Vault) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchTree(watcher, v.dir); err != nil {
		return err
	}

	appLog.Info("watching vault", "dir", v.dir)

	var debounce *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-fire:
			onChange()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// New directories need their own watch before their
			// contents produce events.
			if event.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = watchTree(watcher, event.Name)
				}
			}

			if !relevant(event) {
				continue
			}

			appLog.Debug("vault change", "path", event.Name, "op", event.Op.String())

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			appLog.Error("vault watcher error", werr)
		}
	}
}

// relevant filters watcher events down to markdown mutations.
func relevant(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".md") {
		return false
	}
	return event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Remove) ||
		event.Op.Has(fsnotify.Rename)
}

// watchTree registers path and every directory below it.
func watchTree(watcher *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Races with deletions are expected; skip.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(p)
	})
}
