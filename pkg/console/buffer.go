package console

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NewlineGlyph stands in for line breaks inside typed insertions; the
// buffer is single-line for display purposes.
const NewlineGlyph = '↵'

// EditBuffer owns the authoritative line text and cursor offset. The
// cursor is a rune offset and always satisfies 0 <= cursor <= Len().
type EditBuffer struct {
	runes  []rune
	cursor int
}

func NewEditBuffer() *EditBuffer {
	return &EditBuffer{}
}

func (b *EditBuffer) String() string { return string(b.runes) }

// Len returns the buffer length in runes.
func (b *EditBuffer) Len() int { return len(b.runes) }

func (b *EditBuffer) Cursor() int { return b.cursor }

// SetText replaces the whole buffer and snaps the cursor to end-of-text.
func (b *EditBuffer) SetText(text string) {
	b.runes = []rune(text)
	b.cursor = len(b.runes)
}

// MoveCursor clamps pos into [0, Len()] and moves the cursor there.
func (b *EditBuffer) MoveCursor(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.runes) {
		pos = len(b.runes)
	}
	b.cursor = pos
}

// InsertAt splices text into the buffer at pos; the cursor lands just
// past the inserted text.
func (b *EditBuffer) InsertAt(text string, pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.runes) {
		pos = len(b.runes)
	}
	inserted := []rune(text)
	b.runes = append(b.runes[:pos], append(append([]rune{}, inserted...), b.runes[pos:]...)...)
	b.cursor = pos + len(inserted)
}

// DeleteAt removes one rune before pos (forward=false) or at pos
// (forward=true). At the buffer boundaries it is a no-op, never an
// error. Reports whether anything was removed.
func (b *EditBuffer) DeleteAt(pos int, forward bool) bool {
	if forward {
		if pos < 0 || pos >= len(b.runes) {
			return false
		}
		b.runes = append(b.runes[:pos], b.runes[pos+1:]...)
		if b.cursor > len(b.runes) {
			b.cursor = len(b.runes)
		}
		return true
	}
	if pos <= 0 || pos > len(b.runes) {
		return false
	}
	b.runes = append(b.runes[:pos-1], b.runes[pos:]...)
	b.cursor = pos - 1
	return true
}

// DeleteRange removes runes in [start, end) as a single mutation, used
// for word deletion. The cursor collapses onto the start of the cut.
func (b *EditBuffer) DeleteRange(start, end int) bool {
	if start < 0 {
		start = 0
	}
	if end > len(b.runes) {
		end = len(b.runes)
	}
	if start >= end {
		return false
	}
	b.runes = append(b.runes[:start], b.runes[end:]...)
	switch {
	case b.cursor >= end:
		b.cursor -= end - start
	case b.cursor > start:
		b.cursor = start
	}
	return true
}

// ApplyComposition applies a multi-character payload left-to-right in
// one atomic pass. Composed-input (IME) corrections sometimes arrive as
// a detached backspace key plus replacement text; when the payload has
// no literal erase code of its own, that backspace is honored first.
// Erase code points (8, 127) inside the payload delete backward, line
// breaks become the newline glyph, and any other control code is
// dropped.
func (b *EditBuffer) ApplyComposition(payload string, detachedBackspace bool) {
	payload = norm.NFC.String(payload)
	if detachedBackspace && !strings.ContainsAny(payload, "\b\x7f") {
		b.DeleteAt(b.cursor, false)
	}

	var prev rune
	for _, r := range payload {
		switch {
		case r == 8 || r == 127:
			b.DeleteAt(b.cursor, false)
		case r == '\n':
			if prev != '\r' {
				b.insertRune(NewlineGlyph)
			}
		case r == '\r':
			b.insertRune(NewlineGlyph)
		case r < 32:
			// other control codes never reach the buffer
		default:
			b.insertRune(r)
		}
		prev = r
	}
}

func (b *EditBuffer) insertRune(r rune) {
	b.runes = append(b.runes[:b.cursor], append([]rune{r}, b.runes[b.cursor:]...)...)
	b.cursor++
}
