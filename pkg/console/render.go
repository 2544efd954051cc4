package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// LineRenderer paints the prompt and the edit line on a single terminal
// row. Long values scroll horizontally so the cursor stays visible;
// there is no wrapping. Wide (CJK) runes are measured, not counted.
type LineRenderer struct {
	out    io.Writer
	prompt string
	width  int
	scroll int
}

func NewLineRenderer(out io.Writer, prompt string) *LineRenderer {
	return &LineRenderer{
		out:    out,
		prompt: prompt,
		width:  80,
	}
}

func (r *LineRenderer) SetWidth(width int) {
	if width > 0 {
		r.width = width
	}
}

func (r *LineRenderer) Width() int { return r.width }

func (r *LineRenderer) SetPrompt(prompt string) {
	r.prompt = prompt
}

// Render repaints the line. When the value is empty the placeholder is
// drawn dimmed with the cursor parked at the start.
func (r *LineRenderer) Render(value string, cursor int, placeholder string) {
	var b strings.Builder
	b.WriteString(HideCursorSeq())
	b.WriteString("\r")
	b.WriteString(ClearLineSeq())
	b.WriteString(r.prompt)

	promptWidth := runewidth.StringWidth(r.prompt)
	avail := r.width - promptWidth - 1
	if avail < 1 {
		avail = 1
	}

	if value == "" && placeholder != "" {
		b.WriteString(DimTextSeq())
		b.WriteString(runewidth.Truncate(placeholder, avail, ""))
		b.WriteString(ResetTextSeq())
		b.WriteString(MoveCursorToColumnSeq(promptWidth + 1))
		b.WriteString(ShowCursorSeq())
		fmt.Fprint(r.out, b.String())
		return
	}

	runes := []rune(value)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(runes) {
		cursor = len(runes)
	}

	// Slide the window so the cursor cell fits on screen.
	if r.scroll > cursor {
		r.scroll = cursor
	}
	if r.scroll > len(runes) {
		r.scroll = len(runes)
	}
	for r.scroll < cursor && runeSpanWidth(runes[r.scroll:cursor]) > avail {
		r.scroll++
	}

	cells := 0
	for _, rn := range runes[r.scroll:] {
		w := runewidth.RuneWidth(rn)
		if cells+w > avail {
			break
		}
		b.WriteRune(rn)
		cells += w
	}

	cursorCol := promptWidth + runeSpanWidth(runes[r.scroll:cursor]) + 1
	b.WriteString(MoveCursorToColumnSeq(cursorCol))
	b.WriteString(ShowCursorSeq())
	fmt.Fprint(r.out, b.String())
}

// Clear wipes the line, leaving the cursor at column one.
func (r *LineRenderer) Clear() {
	fmt.Fprintf(r.out, "\r%s", ClearLineSeq())
}

// Newline finishes the current line, as after a submit.
func (r *LineRenderer) Newline() {
	fmt.Fprint(r.out, "\r\n")
}

func runeSpanWidth(runes []rune) int {
	total := 0
	for _, rn := range runes {
		total += runewidth.RuneWidth(rn)
	}
	return total
}
