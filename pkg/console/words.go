package console

import "unicode"

// Word boundary helpers for word-wise cursor motion and deletion.
// Offsets are rune offsets, matching the edit buffer's cursor.

// PreviousWordBoundary returns the offset of the start of the word left
// of pos: whitespace immediately left of the cursor is skipped, then the
// word itself. Returns 0 when there is nothing further left.
func PreviousWordBoundary(text string, pos int) int {
	runes := []rune(text)
	if pos > len(runes) {
		pos = len(runes)
	}
	if pos <= 0 {
		return 0
	}

	i := pos - 1
	for i >= 0 && unicode.IsSpace(runes[i]) {
		i--
	}
	for i >= 0 && !unicode.IsSpace(runes[i]) {
		i--
	}
	return i + 1
}

// NextWordBoundary returns the offset just past the word right of pos,
// including any whitespace that follows it. Returns len(text) when the
// cursor is already at or past the end.
func NextWordBoundary(text string, pos int) int {
	runes := []rune(text)
	if pos >= len(runes) {
		return len(runes)
	}
	if pos < 0 {
		pos = 0
	}

	i := pos
	for i < len(runes) && !unicode.IsSpace(runes[i]) {
		i++
	}
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}
