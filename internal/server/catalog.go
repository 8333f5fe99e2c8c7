package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/services"
	"github.com/desertthunder/djay/internal/shared"
	"github.com/fsnotify/fsnotify"
)

var _ Handler = (*CatalogHandler)(nil)

// CatalogHandler serves a catalog file at [services.CatalogPath].
type CatalogHandler struct {
	path   string
	logger *log.Logger

	mu      sync.RWMutex
	body    []byte
	catalog *models.Catalog
	version int
}

// NewCatalogHandler loads the catalog at path. The file must exist and hold a valid catalog.
func NewCatalogHandler(path string, logger *log.Logger) (*CatalogHandler, error) {
	h := &CatalogHandler{
		path:   filepath.Clean(path),
		logger: shared.WithLogger(logger, "handler", "catalog"),
	}
	if err := h.Load(); err != nil {
		return nil, err
	}
	return h, nil
}

// Routes returns the HTTP routes this handler serves.
func (h *CatalogHandler) Routes() []string {
	return []string{services.CatalogPath}
}

// Load reads and validates the catalog file. On failure the previous catalog stays in place.
func (h *CatalogHandler) Load() error {
	data, err := os.ReadFile(h.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	var c models.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	h.body = data
	h.catalog = &c
	h.version++
	h.mu.Unlock()

	h.logger.Info("catalog loaded", "path", h.path, "playlists", len(c.Playlists), "tracks", c.TrackCount())
	return nil
}

// Catalog returns the catalog currently served and its load count.
func (h *CatalogHandler) Catalog() (*models.Catalog, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.catalog, h.version
}

// ServeHTTP writes the catalog JSON as it was read from disk.
func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.RLock()
	body := h.body
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if body == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": shared.ErrServiceUnavailable.Error()})
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		w.Write(body)
	}
}

// Watch reloads the catalog whenever its file changes, until ctx is done.
//
// The parent directory is watched rather than the file so editors that save by
// renaming a temporary file are picked up.
func (h *CatalogHandler) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not initialize filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		return fmt.Errorf("could not watch %s: %w", filepath.Dir(h.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			h.handleFsEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Warn("fs watcher returned an error", "err", err)
		}
	}
}

func (h *CatalogHandler) handleFsEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != h.path {
		return
	}

	switch {
	case shouldReload(event.Op):
		if err := h.Load(); err != nil {
			level := log.WarnLevel
			if errors.Is(err, os.ErrNotExist) {
				level = log.DebugLevel
			}
			h.logger.Log(level, "keeping previous catalog", "err", err)
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		h.logger.Warn("catalog file went away, serving last good copy", "path", h.path)
	}
}

func shouldReload(op fsnotify.Op) bool {
	return op&(fsnotify.Write|fsnotify.Create) != 0
}

// MediaHandler serves audio and artwork files from a directory.
type MediaHandler struct {
	files http.Handler
}

var _ Handler = (*MediaHandler)(nil)

// NewMediaHandler serves dir at the site root.
func NewMediaHandler(dir string) *MediaHandler {
	return &MediaHandler{files: http.FileServer(http.Dir(dir))}
}

func (h *MediaHandler) Routes() []string { return []string{"/"} }

func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.files.ServeHTTP(w, r)
}

// NewFixtureRouter wires the catalog and media handlers behind logging and CORS.
func NewFixtureRouter(catalog *CatalogHandler, media *MediaHandler, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Logging(shared.WithLogger(logger, "component", "http")), CORS())
	router.Handler(catalog)
	if media != nil {
		router.Handler(media)
	}
	return router
}
