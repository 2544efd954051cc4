// Package models maintains the dynamic model catalog: a JSON file in
// the config directory, seeded from an embedded default, with hot
// reload when the file changes on disk.
package models

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zetzet7298/letta-code/pkg/filesystem"
	"github.com/zetzet7298/letta-code/pkg/utils"
)

//go:embed models.json
var defaultCatalogJSON []byte

// catalogDebounce coalesces the event bursts editors produce when
// rewriting a file.
const catalogDebounce = 200 * time.Millisecond

// Model is one selectable chat model.
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	Description   string `json:"description,omitempty"`
	ContextWindow int    `json:"context_window,omitempty"`
}

type catalogFile struct {
	Models []Model `json:"models"`
}

// Catalog holds the current model set. Reads are safe from any
// goroutine; the watcher goroutine refreshes the set in place.
type Catalog struct {
	mu     sync.RWMutex
	path   string
	models []Model

	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// NewCatalog creates a catalog backed by the JSON file at path. The
// embedded default set is loaded immediately so the catalog is never
// empty; Load picks up the file when it exists.
func NewCatalog(path string) *Catalog {
	c := &Catalog{
		path: path,
		done: make(chan struct{}),
	}
	if err := c.loadEmbedded(); err != nil {
		// The embedded catalog is compiled in; a parse failure here is a
		// build defect, not a runtime condition.
		utils.GetLogger().LogError(err)
	}
	return c
}

// Path returns the backing file path.
func (c *Catalog) Path() string { return c.path }

// Load reads the catalog file, falling back to the embedded default
// when the file does not exist yet.
func (c *Catalog) Load() error {
	data, err := filesystem.ReadFileBytes(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c.loadEmbedded()
		}
		return fmt.Errorf("failed to read models catalog: %w", err)
	}
	return c.parse(data)
}

func (c *Catalog) loadEmbedded() error {
	return c.parse(defaultCatalogJSON)
}

func (c *Catalog) parse(data []byte) error {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse models catalog: %w", err)
	}

	models := make([]Model, 0, len(file.Models))
	for _, m := range file.Models {
		if m.ID == "" {
			continue
		}
		if m.Name == "" {
			m.Name = m.ID
		}
		models = append(models, m)
	}
	sort.SliceStable(models, func(i, j int) bool {
		if models[i].Provider != models[j].Provider {
			return models[i].Provider < models[j].Provider
		}
		return models[i].Name < models[j].Name
	})

	c.mu.Lock()
	c.models = models
	c.mu.Unlock()
	return nil
}

// Models returns a copy of the current model set.
func (c *Catalog) Models() []Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// Find looks a model up by id.
func (c *Catalog) Find(id string) (Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// SeedFile writes the embedded default catalog to the backing path if
// nothing is there yet, giving users a file to edit.
func (c *Catalog) SeedFile() error {
	if filesystem.FileExists(c.path) {
		return nil
	}
	if err := filesystem.WriteFileWithDir(c.path, defaultCatalogJSON, 0644); err != nil {
		return fmt.Errorf("failed to seed models catalog: %w", err)
	}
	return nil
}

// Watch reloads the catalog when its file changes and then calls
// onUpdate. The parent directory is watched because editors typically
// replace files by rename, which drops a watch placed on the file
// itself.
func (c *Catalog) Watch(onUpdate func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create models watcher: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	c.watcher = watcher
	go c.watchLoop(onUpdate)
	return nil
}

func (c *Catalog) watchLoop(onUpdate func()) {
	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-c.done:
			return

		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(c.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(catalogDebounce)
			fire = debounce.C

		case <-fire:
			fire = nil
			if err := c.Load(); err != nil {
				utils.GetLogger().LogError(err)
				continue
			}
			utils.GetLogger().LogConsoleEvent("models_reloaded", c.path)
			if onUpdate != nil {
				onUpdate()
			}

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			utils.GetLogger().LogError(fmt.Errorf("models watcher error: %w", err))
		}
	}
}

// Close stops the watcher goroutine.
func (c *Catalog) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.watcher != nil {
			c.watcher.Close()
		}
	})
}
