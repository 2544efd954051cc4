// Package pastestore holds the full text of large pastes behind small
// placeholder tokens. The input line carries only the token; the stored
// text is substituted back at submission time.
package pastestore

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
)

// PlaceholderFormat is the token spliced into the input line in place of
// large pasted content. The id resolves back through Registry.Resolve.
const PlaceholderFormat = "[Pasted text #%d +%d lines]"

var placeholderRe = regexp.MustCompile(`\[Pasted text #(\d+) \+\d+ lines\]`)

// Registry stores pasted content under monotonically increasing ids.
// Ids are unique for the lifetime of the registry; entries are never
// reused even after the referencing line is submitted or discarded.
type Registry struct {
	mu      sync.RWMutex
	nextID  int
	records map[int]string
}

// NewRegistry creates an empty paste registry.
func NewRegistry() *Registry {
	return &Registry{
		nextID:  1,
		records: make(map[int]string),
	}
}

// Allocate stores fullText and returns its id. The error return exists
// for the benefit of callers that accept failing implementations; this
// in-memory registry never fails.
func (r *Registry) Allocate(fullText string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.records[id] = fullText
	return id, nil
}

// Placeholder returns the token for a stored paste.
func Placeholder(id, lineCount int) string {
	return fmt.Sprintf(PlaceholderFormat, id, lineCount)
}

// Get returns the stored text for id.
func (r *Registry) Get(id int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	text, ok := r.records[id]
	return text, ok
}

// Len returns the number of stored pastes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Resolve expands every placeholder token in text back to its stored
// content. Tokens referencing unknown ids are left intact so a stale or
// hand-typed token never silently drops input.
func (r *Registry) Resolve(text string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(token string) string {
		m := placeholderRe.FindStringSubmatch(token)
		if m == nil {
			return token
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return token
		}
		full, ok := r.Get(id)
		if !ok {
			return token
		}
		return full
	})
}
