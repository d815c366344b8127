package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Table is the lookup of configured services. Readers always see a consistent
// snapshot; the watcher swaps the underlying slice atomically on reload.
type Table struct {
	path       string
	composeDir string
	logger     *slog.Logger

	mu       sync.RWMutex
	services []Service
}

// NewTable loads the services file and returns a table bound to it.
func NewTable(path, composeDir string, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Table{path: path, composeDir: composeDir, logger: logger}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload re-reads the services file and swaps the table.
func (t *Table) Reload() error {
	services, err := LoadServices(t.path)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.services = services
	t.mu.Unlock()
	return nil
}

// Services returns a copy of the configured services in file order.
func (t *Table) Services() []Service {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Service, len(t.services))
	copy(out, t.services)
	return out
}

// Lookup finds a service by name.
func (t *Table) Lookup(name string) (Service, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, svc := range t.services {
		if svc.Name == name {
			return svc, true
		}
	}
	return Service{}, false
}

// Len returns the number of configured services.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.services)
}

// ComposePath resolves the service's compose file against the compose dir.
// Absolute paths are kept as-is.
func (t *Table) ComposePath(svc Service) string {
	if filepath.IsAbs(svc.Compose) {
		return svc.Compose
	}
	return filepath.Join(t.composeDir, svc.Compose)
}

// Watch reloads the table whenever the services file is rewritten. It blocks
// until ctx is done. A reload failure keeps the previous table.
func (t *Table) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save.
	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(t.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(t.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := t.Reload(); err != nil {
				t.logger.Warn("reload services", "path", t.path, "err", err)
				continue
			}
			t.logger.Info("services reloaded", "path", t.path, "count", t.Len())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("services watcher", "err", err)
		}
	}
}
