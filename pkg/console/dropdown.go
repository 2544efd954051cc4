package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ListItem is one selectable dropdown entry.
type ListItem interface {
	Display() string
	SearchText() string
	Value() string
}

const dropdownMaxVisible = 8

// Dropdown is a filtered selection list painted below the input line.
// While open it requests exclusive input routing over the bus, so the
// session sends keystrokes here instead of the edit line.
type Dropdown struct {
	bus *EventBus
	out io.Writer

	items    []ListItem
	filtered []ListItem
	filter   string

	title       string
	selected    int
	windowStart int
	width       int
	active      bool

	onSelect func(item ListItem)
	onCancel func()
}

func NewDropdown(bus *EventBus, out io.Writer, onSelect func(ListItem), onCancel func()) *Dropdown {
	return &Dropdown{
		bus:      bus,
		out:      out,
		width:    80,
		onSelect: onSelect,
		onCancel: onCancel,
	}
}

func (d *Dropdown) Active() bool { return d.active }

func (d *Dropdown) SetWidth(width int) {
	if width > 0 {
		d.width = width
	}
}

// Open shows the list and takes over input routing until a selection or
// cancel.
func (d *Dropdown) Open(title string, items []ListItem) {
	d.title = title
	d.items = items
	d.filter = ""
	d.selected = 0
	d.windowStart = 0
	d.active = true
	d.applyFilter()
	if d.bus != nil {
		_ = d.bus.Publish(Event{Type: EventRequestExclusive, Source: "dropdown"})
	}
	d.render()
}

// Refresh swaps the item set while open, keeping the current filter.
// Used when the catalog reloads underneath an open list.
func (d *Dropdown) Refresh(items []ListItem) {
	if !d.active {
		return
	}
	d.items = items
	d.applyFilter()
	d.render()
}

// HandleKeystroke processes one keystroke while the list is open.
func (d *Dropdown) HandleKeystroke(k Keystroke) {
	if !d.active {
		return
	}

	switch {
	case k.Name == "escape":
		d.Close()
		if d.onCancel != nil {
			d.onCancel()
		}
	case k.Name == "up":
		d.moveSelection(-1)
		d.render()
	case k.Name == "down":
		d.moveSelection(1)
		d.render()
	case k.Name == "return":
		if len(d.filtered) == 0 {
			return
		}
		item := d.filtered[d.selected]
		d.Close()
		if d.onSelect != nil {
			d.onSelect(item)
		}
	case k.Name == "backspace":
		if d.filter != "" {
			runes := []rune(d.filter)
			d.filter = string(runes[:len(runes)-1])
			d.applyFilter()
			d.render()
		}
	case k.Name == "" && k.Text != "" && !k.Ctrl && !k.Meta && !k.Paste:
		d.filter += k.Text
		d.applyFilter()
		d.render()
	}
}

// Close erases the list and releases input routing.
func (d *Dropdown) Close() {
	if !d.active {
		return
	}
	d.active = false
	fmt.Fprintf(d.out, "\r\n%s%s", ClearToEndOfScreenSeq(), CursorUpSeq(1))
	if d.bus != nil {
		_ = d.bus.Publish(Event{Type: EventReleaseExclusive, Source: "dropdown"})
	}
}

func (d *Dropdown) applyFilter() {
	needle := strings.ToLower(d.filter)
	d.filtered = d.filtered[:0]
	for _, item := range d.items {
		if needle == "" || strings.Contains(strings.ToLower(item.SearchText()), needle) {
			d.filtered = append(d.filtered, item)
		}
	}
	if d.selected >= len(d.filtered) {
		d.selected = len(d.filtered) - 1
	}
	if d.selected < 0 {
		d.selected = 0
	}
	d.followSelection()
}

func (d *Dropdown) moveSelection(delta int) {
	if len(d.filtered) == 0 {
		return
	}
	d.selected += delta
	if d.selected < 0 {
		d.selected = 0
	}
	if d.selected >= len(d.filtered) {
		d.selected = len(d.filtered) - 1
	}
	d.followSelection()
}

// followSelection keeps the highlighted row inside the visible window.
func (d *Dropdown) followSelection() {
	if d.selected < d.windowStart {
		d.windowStart = d.selected
	}
	if d.selected >= d.windowStart+dropdownMaxVisible {
		d.windowStart = d.selected - dropdownMaxVisible + 1
	}
}

// render paints the title and visible rows below the input line, then
// puts the cursor back where it was.
func (d *Dropdown) render() {
	var b strings.Builder

	header := d.title
	if d.filter != "" {
		header += "  filter: " + d.filter
	}
	b.WriteString("\r\n")
	b.WriteString(ClearLineSeq())
	b.WriteString(DimTextSeq())
	b.WriteString(runewidth.Truncate(header, d.width-1, "…"))
	b.WriteString(ResetTextSeq())
	lines := 1

	end := d.windowStart + dropdownMaxVisible
	if end > len(d.filtered) {
		end = len(d.filtered)
	}
	for i := d.windowStart; i < end; i++ {
		b.WriteString("\r\n")
		b.WriteString(ClearLineSeq())
		marker := "  "
		if i == d.selected {
			marker = "> "
		}
		b.WriteString(runewidth.Truncate(marker+d.filtered[i].Display(), d.width-1, "…"))
		lines++
	}
	if len(d.filtered) == 0 {
		b.WriteString("\r\n")
		b.WriteString(ClearLineSeq())
		b.WriteString(DimTextSeq())
		b.WriteString("  no matches")
		b.WriteString(ResetTextSeq())
		lines++
	}

	b.WriteString(ClearToEndOfScreenSeq())
	b.WriteString(CursorUpSeq(lines))
	b.WriteString("\r")
	fmt.Fprint(d.out, b.String())
}
