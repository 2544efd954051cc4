package console

import "fmt"

// ANSI escape sequence helpers for consistent terminal control.

// ClearLineSeq returns the escape sequence to clear the entire current line.
func ClearLineSeq() string { return "\033[2K" }

// ClearToEndOfLineSeq returns the escape sequence to clear from cursor to end of line.
func ClearToEndOfLineSeq() string { return "\033[K" }

// ClearToEndOfScreenSeq returns the escape sequence to clear from cursor to end of screen.
func ClearToEndOfScreenSeq() string { return "\033[J" }

// MoveCursorToColumnSeq returns the escape sequence to move the cursor to a 1-based column.
func MoveCursorToColumnSeq(col int) string {
	return fmt.Sprintf("\033[%dG", col)
}

// CursorUpSeq returns the escape sequence to move the cursor up n rows.
func CursorUpSeq(n int) string {
	return fmt.Sprintf("\033[%dA", n)
}

// HideCursorSeq hides the cursor during a redraw to avoid flicker.
func HideCursorSeq() string { return "\033[?25l" }

// ShowCursorSeq makes the cursor visible again.
func ShowCursorSeq() string { return "\033[?25h" }

// EnableBracketedPasteSeq asks the terminal to wrap pastes in ESC[200~ / ESC[201~ markers.
func EnableBracketedPasteSeq() string { return "\033[?2004h" }

// DisableBracketedPasteSeq turns bracketed paste mode back off.
func DisableBracketedPasteSeq() string { return "\033[?2004l" }

// DimTextSeq renders following text dimmed, used for placeholder hints.
func DimTextSeq() string { return "\033[90m" }

// ResetTextSeq clears any active text attributes.
func ResetTextSeq() string { return "\033[0m" }
