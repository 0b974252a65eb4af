package sheets

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 500 * time.Millisecond

// CredentialsWatcher watches the service-account key file and marks the
// client stale when the file is rewritten or rotated. Key rotations
// usually land as a rename into place, so the parent directory is
// watched rather than the file itself.
type CredentialsWatcher struct {
	client  *Client
	path    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	done chan struct{}
	wg   sync.WaitGroup
}

// NewCredentialsWatcher creates a watcher for the key file at path.
func NewCredentialsWatcher(client *Client, path string, logger *slog.Logger) (*CredentialsWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve credentials path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialsWatcher{
		client: client,
		path:   abs,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// Start begins watching. Events are debounced so a rotation that touches
// the file several times rebuilds the client once.
func (w *CredentialsWatcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.watcher = watcher

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("watching credentials file", "path", w.path)
	return nil
}

// Stop ends the watch and waits for the loop to exit.
func (w *CredentialsWatcher) Stop() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.wg.Wait()
}

func (w *CredentialsWatcher) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			dirty = true

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("credentials watcher error", "error", err)

		case <-ticker.C:
			if dirty {
				dirty = false
				w.logger.Info("credentials file changed, scheduling client rebuild", "path", w.path)
				w.client.MarkStale()
			}
		}
	}
}
