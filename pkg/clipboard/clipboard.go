// Package clipboard turns pasted payloads into text the input engine can
// insert, and pulls clipboard content for paste shortcuts. Image payloads
// are reduced to a short inline token so the line stays readable.
package clipboard

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	atotto "github.com/atotto/clipboard"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// Translator normalizes pasted text and resolves clipboard reads.
// Translate is idempotent: feeding already-translated output back in
// returns it unchanged.
type Translator struct {
	readAll func() (string, error)
}

func NewTranslator() *Translator {
	return &Translator{readAll: systemRead}
}

// Translate normalizes line endings to LF and collapses a pasted path to
// a local image file into an inline token. The token is not itself a
// valid path, so a second pass leaves it alone.
func (t *Translator) Translate(raw string) (string, error) {
	text := normalizeNewlines(raw)
	if path, ok := imagePath(text); ok {
		return imageToken(path), nil
	}
	return text, nil
}

// TryImportImage reads the system clipboard and reports whether it held
// an importable image reference. Any failure reads as "no image" so the
// caller can fall back to plain text handling.
func (t *Translator) TryImportImage() (string, bool) {
	content, err := t.readAll()
	if err != nil {
		return "", false
	}
	path, ok := imagePath(normalizeNewlines(content))
	if !ok {
		return "", false
	}
	return imageToken(path), true
}

// ReadText returns the clipboard's text content, empty when unavailable.
func (t *Translator) ReadText() (string, error) {
	content, err := t.readAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return normalizeNewlines(content), nil
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// imagePath reports whether the payload is a single-line path to an
// existing image file. Surrounding quotes from drag-and-drop are
// stripped before the check.
func imagePath(text string) (string, bool) {
	candidate := strings.TrimSpace(text)
	if candidate == "" || strings.ContainsRune(candidate, '\n') {
		return "", false
	}
	if len(candidate) >= 2 {
		if (candidate[0] == '\'' && candidate[len(candidate)-1] == '\'') ||
			(candidate[0] == '"' && candidate[len(candidate)-1] == '"') {
			candidate = candidate[1 : len(candidate)-1]
		}
	}
	if !imageExtensions[strings.ToLower(filepath.Ext(candidate))] {
		return "", false
	}
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return "", false
	}
	return candidate, true
}

func imageToken(path string) string {
	return fmt.Sprintf("[Image: %s]", filepath.Base(path))
}

// systemRead prefers the clipboard library and falls back to the usual
// platform tools for environments it does not cover (notably Wayland).
func systemRead() (string, error) {
	content, err := atotto.ReadAll()
	if err == nil {
		return content, nil
	}
	if content, execErr := execRead(); execErr == nil {
		return content, nil
	}
	return "", err
}

func execRead() (string, error) {
	commands := [][]string{
		{"pbpaste"},
		{"wl-paste", "--no-newline"},
		{"xclip", "-selection", "clipboard", "-o"},
	}
	for _, argv := range commands {
		if _, err := exec.LookPath(argv[0]); err != nil {
			continue
		}
		out, err := exec.Command(argv[0], argv[1:]...).Output()
		if err == nil {
			return string(out), nil
		}
	}
	return "", fmt.Errorf("no clipboard reader available")
}
