// Package history keeps the prompt history: an in-memory list with
// dedupe and a JSON file in the config directory for persistence.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/zetzet7298/letta-code/pkg/filesystem"
)

const defaultMaxSize = 1000

// Manager owns the ordered history entries, oldest first.
type Manager struct {
	entries []string
	maxSize int
	path    string
}

// NewManager creates a history manager persisted at path. An empty path
// keeps history in memory only.
func NewManager(path string, maxSize int) *Manager {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	return &Manager{
		maxSize: maxSize,
		path:    path,
	}
}

// Add appends an entry, removing any earlier duplicate so each line
// appears once, in its most recent position. Empty entries are skipped.
func (m *Manager) Add(entry string) {
	if entry == "" {
		return
	}
	for i, existing := range m.entries {
		if existing == entry {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	m.entries = append(m.entries, entry)
	if len(m.entries) > m.maxSize {
		m.entries = m.entries[len(m.entries)-m.maxSize:]
	}
}

// Entries returns a copy of the history, oldest first.
func (m *Manager) Entries() []string {
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Manager) Len() int { return len(m.entries) }

// At returns the entry at index (0 = oldest).
func (m *Manager) At(i int) string {
	if i < 0 || i >= len(m.entries) {
		return ""
	}
	return m.entries[i]
}

// Load reads persisted history. A missing file is an empty history, not
// an error.
func (m *Manager) Load() error {
	if m.path == "" {
		return nil
	}
	data, err := filesystem.ReadFileBytes(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read history: %w", err)
	}
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse history: %w", err)
	}
	if len(entries) > m.maxSize {
		entries = entries[len(entries)-m.maxSize:]
	}
	m.entries = entries
	return nil
}

// Save writes the history file.
func (m *Manager) Save() error {
	if m.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := filesystem.WriteFileWithDir(m.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// Cursor walks history newest-first during Up/Down navigation while
// preserving the line that was being typed.
type Cursor struct {
	manager *Manager
	index   int
	stash   string
}

// NewCursor creates a cursor positioned on the live line.
func NewCursor(m *Manager) *Cursor {
	return &Cursor{manager: m, index: -1}
}

// Active reports whether the cursor currently points into history.
func (c *Cursor) Active() bool { return c.index >= 0 }

// Up moves to the previous (older) entry. On the first step the
// in-progress line is stashed so Down can restore it.
func (c *Cursor) Up(current string) (string, bool) {
	if c.manager.Len() == 0 {
		return "", false
	}
	if c.index == -1 {
		c.stash = current
		c.index = c.manager.Len() - 1
		return c.manager.At(c.index), true
	}
	if c.index > 0 {
		c.index--
		return c.manager.At(c.index), true
	}
	return "", false
}

// Down moves toward newer entries, ending back on the stashed live
// line.
func (c *Cursor) Down() (string, bool) {
	if c.index == -1 {
		return "", false
	}
	if c.index < c.manager.Len()-1 {
		c.index++
		return c.manager.At(c.index), true
	}
	c.index = -1
	stash := c.stash
	c.stash = ""
	return stash, true
}

// Reset returns the cursor to the live line, dropping any stash.
func (c *Cursor) Reset() {
	c.index = -1
	c.stash = ""
}
