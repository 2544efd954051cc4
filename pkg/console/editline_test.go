package console

import (
	"errors"
	"strings"
	"testing"

	"github.com/zetzet7298/letta-code/pkg/pastestore"
)

// editLineProbe wires recording callbacks into an EditLine.
type editLineProbe struct {
	el        *EditLine
	changes   []string
	cursors   []int
	submits   []string
	escapes   int
	refreshes int
}

func newEditLineProbe(cfg EditLineConfig) *editLineProbe {
	p := &editLineProbe{}
	cfg.OnChange = func(v string) { p.changes = append(p.changes, v) }
	cfg.OnCursorMove = func(c int) { p.cursors = append(p.cursors, c) }
	cfg.OnSubmit = func(v string) { p.submits = append(p.submits, v) }
	cfg.OnEscape = func() { p.escapes++ }
	cfg.OnRefresh = func() { p.refreshes++ }
	p.el = NewEditLine(cfg)
	return p
}

func (p *editLineProbe) press(keys ...Keystroke) {
	for _, k := range keys {
		p.el.HandleKeystroke(k)
	}
}

func TestEditLineTyping(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})

	p.press(Keystroke{Text: "h"}, Keystroke{Text: "i"})

	if p.el.Value() != "hi" || p.el.Cursor() != 2 {
		t.Errorf("Expected 'hi' cursor 2, got %q cursor %d", p.el.Value(), p.el.Cursor())
	}
	if len(p.changes) != 2 || p.changes[0] != "h" || p.changes[1] != "hi" {
		t.Errorf("Expected change per keystroke, got %v", p.changes)
	}
}

func TestEditLineArrowsMoveWithoutChange(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})
	p.press(Keystroke{Text: "a"}, Keystroke{Text: "b"})

	before := len(p.changes)
	p.press(Keystroke{Name: "left"})
	if p.el.Cursor() != 1 {
		t.Errorf("Expected cursor 1, got %d", p.el.Cursor())
	}
	p.press(Keystroke{Name: "right"})
	if p.el.Cursor() != 2 {
		t.Errorf("Expected cursor 2, got %d", p.el.Cursor())
	}
	if len(p.changes) != before {
		t.Errorf("Cursor motion must not emit changes, got %v", p.changes)
	}
	if len(p.cursors) < 2 {
		t.Errorf("Expected cursor notifications, got %v", p.cursors)
	}
}

func TestEditLineEraseKeys(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})
	p.press(Keystroke{Text: "a"}, Keystroke{Text: "b"}, Keystroke{Text: "c"})

	p.press(Keystroke{Name: "backspace", Backspace: true})
	if p.el.Value() != "ab" {
		t.Errorf("Expected 'ab' after backspace, got %q", p.el.Value())
	}

	p.el.SetValueAndCursor("abc", 1)
	p.press(Keystroke{Name: "delete", Delete: true})
	if p.el.Value() != "ac" || p.el.Cursor() != 1 {
		t.Errorf("Expected forward delete to 'ac' cursor 1, got %q cursor %d", p.el.Value(), p.el.Cursor())
	}
}

func TestEditLineSubmitAndEscape(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})
	p.press(Keystroke{Text: "g"}, Keystroke{Text: "o"})

	p.press(Keystroke{Name: "return"})
	if len(p.submits) != 1 || p.submits[0] != "go" {
		t.Errorf("Expected submit with 'go', got %v", p.submits)
	}
	if p.el.Value() != "go" {
		t.Error("Submit must not clear the buffer; the owner decides")
	}

	p.press(Keystroke{Name: "escape"})
	if p.escapes != 1 {
		t.Errorf("Expected one escape callback, got %d", p.escapes)
	}
}

func TestEditLineIMEBatch(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})

	p.press(Keystroke{Text: "你好"})
	if p.el.Value() != "你好" || p.el.Cursor() != 2 {
		t.Errorf("Expected batched insert, got %q cursor %d", p.el.Value(), p.el.Cursor())
	}
	if len(p.changes) != 1 {
		t.Errorf("Expected one change for the batch, got %v", p.changes)
	}
}

func TestEditLineDetachedCorrection(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})
	p.press(Keystroke{Text: "W"}, Keystroke{Text: "o"})

	p.press(Keystroke{Text: "ö", Backspace: true})
	if p.el.Value() != "Wö" {
		t.Errorf("Expected correction to 'Wö', got %q", p.el.Value())
	}
}

func TestEditLineIgnoredCombosDoNothing(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})
	p.press(Keystroke{Text: "x"})
	changes := len(p.changes)

	p.press(
		Keystroke{Ctrl: true, Text: "k"},
		Keystroke{Meta: true, Text: "d"},
		Keystroke{Name: "left", Ctrl: true},
		Keystroke{Name: "up"},
	)

	if p.el.Value() != "x" || len(p.changes) != changes {
		t.Errorf("Unhandled combinations must not touch the buffer: %q %v", p.el.Value(), p.changes)
	}
}

func TestEditLinePasteInline(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})

	p.press(Keystroke{Text: "a\nb", Paste: true})
	if p.el.Value() != "a↵b" {
		t.Errorf("Expected newline glyph in pasted text, got %q", p.el.Value())
	}
	if len(p.changes) != 1 {
		t.Errorf("Expected one change for the paste, got %v", p.changes)
	}
}

func TestEditLinePastePlaceholder(t *testing.T) {
	reg := pastestore.NewRegistry()
	p := newEditLineProbe(EditLineConfig{Registry: reg})

	content := "l1\nl2\nl3\nl4\nl5\nl6"
	p.press(Keystroke{Text: content, Paste: true})

	if p.el.Value() != "[Pasted text #1 +6 lines]" {
		t.Fatalf("Expected placeholder, got %q", p.el.Value())
	}
	stored, ok := reg.Get(1)
	if !ok || stored != content {
		t.Error("Registry should hold the full pasted content")
	}

	// The token in the line expands back at submission time.
	if resolved := reg.Resolve(p.el.Value()); resolved != content {
		t.Errorf("Expected round-trip through the registry, got %q", resolved)
	}

	// Submit hands up the placeholder, not the full content.
	p.press(Keystroke{Name: "return"})
	if len(p.submits) != 1 || p.submits[0] != "[Pasted text #1 +6 lines]" {
		t.Errorf("Expected placeholder submitted, got %v", p.submits)
	}
}

func TestEditLineOversizedTypedPayloadClassified(t *testing.T) {
	reg := pastestore.NewRegistry()
	p := newEditLineProbe(EditLineConfig{Registry: reg})

	p.press(Keystroke{Text: strings.Repeat("x", 501)})
	if p.el.Value() != "[Pasted text #1 +1 lines]" {
		t.Errorf("Expected oversized typed payload placeholdered, got %q", p.el.Value())
	}
}

func TestEditLineTranslatorRewritesPaste(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{
		Translator: &fakeTranslator{translated: "[Image: shot.png]"},
	})

	p.press(Keystroke{Text: "/tmp/shot.png", Paste: true})
	if p.el.Value() != "[Image: shot.png]" {
		t.Errorf("Expected translated paste, got %q", p.el.Value())
	}
}

func TestEditLineTranslationPrecedesClassification(t *testing.T) {
	reg := pastestore.NewRegistry()
	big := strings.Repeat("y", 600)
	p := newEditLineProbe(EditLineConfig{
		Registry:   reg,
		Translator: &fakeTranslator{translated: big},
	})

	p.press(Keystroke{Text: "short", Paste: true})
	if p.el.Value() != "[Pasted text #1 +1 lines]" {
		t.Fatalf("Expected placeholder for translated content, got %q", p.el.Value())
	}
	if stored, _ := reg.Get(1); stored != big {
		t.Error("Registry should hold the translated text, not the raw paste")
	}
}

func TestEditLineTranslatorFailureInsertsRaw(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{
		Translator: &fakeTranslator{translateErr: errors.New("clipboard gone")},
	})

	p.press(Keystroke{Text: "x\ny", Paste: true})
	if p.el.Value() != "x↵y" {
		t.Errorf("Expected raw text inserted on translator failure, got %q", p.el.Value())
	}
}

func TestEditLineWordDeleteIsOneMutation(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})
	p.el.SetValueAndCursor("hello world", 11)
	before := len(p.changes)

	p.el.HandleKeyEvent(KeyEvent{Kind: KeyWordDeleteBack})

	if p.el.Value() != "hello " || p.el.Cursor() != 6 {
		t.Errorf("Expected 'hello ' cursor 6, got %q cursor %d", p.el.Value(), p.el.Cursor())
	}
	if len(p.changes) != before+1 {
		t.Errorf("Word delete must be a single change, got %v", p.changes[before:])
	}
}

func TestEditLineWordMotionEvents(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})
	p.el.SetValueAndCursor("foo bar baz", 11)

	p.el.HandleKeyEvent(KeyEvent{Kind: KeyWordLeft})
	if p.el.Cursor() != 8 {
		t.Errorf("Expected cursor 8 after word left, got %d", p.el.Cursor())
	}
	p.el.HandleKeyEvent(KeyEvent{Kind: KeyWordLeft})
	if p.el.Cursor() != 4 {
		t.Errorf("Expected cursor 4 after second word left, got %d", p.el.Cursor())
	}
	p.el.HandleKeyEvent(KeyEvent{Kind: KeyWordRight})
	if p.el.Cursor() != 8 {
		t.Errorf("Expected cursor 8 after word right, got %d", p.el.Cursor())
	}
}

func TestEditLineRawSequencesThroughBus(t *testing.T) {
	bus := NewEventBus()
	p := newEditLineProbe(EditLineConfig{Bus: bus})
	p.el.SetValueAndCursor("hello world", 11)

	if err := bus.Publish(Event{Type: EventRawInput, Data: []byte{0x1b, 'b'}}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if p.el.Cursor() != 6 {
		t.Errorf("Expected cursor 6 after meta-b via bus, got %d", p.el.Cursor())
	}

	// Unfocused the listener is muted.
	p.el.SetFocus(false)
	if err := bus.Publish(Event{Type: EventRawInput, Data: []byte{0x1b, 'b'}}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if p.el.Cursor() != 6 {
		t.Errorf("Expected listener muted while unfocused, cursor %d", p.el.Cursor())
	}

	// Closed, events stop for good.
	p.el.SetFocus(true)
	p.el.Close()
	if err := bus.Publish(Event{Type: EventRawInput, Data: []byte{0x1b, 'b'}}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if p.el.Cursor() != 6 {
		t.Errorf("Expected no events after Close, cursor %d", p.el.Cursor())
	}
}

func TestEditLineFocusGating(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})
	p.press(Keystroke{Text: "a"})

	p.el.SetFocus(false)

	p.press(Keystroke{Text: "b"})
	if p.el.Value() != "a" {
		t.Errorf("Typing while unfocused must be dropped, got %q", p.el.Value())
	}

	p.press(Keystroke{Name: "return"})
	if len(p.submits) != 0 {
		t.Error("Enter while unfocused must be dropped")
	}

	// The refresh shortcut is forwarded to the owner, not typed.
	p.press(Keystroke{Text: "r"})
	if p.refreshes != 1 || p.el.Value() != "a" {
		t.Errorf("Expected refresh callback, got %d refreshes value %q", p.refreshes, p.el.Value())
	}

	// Escape stays live while unfocused.
	p.press(Keystroke{Name: "escape"})
	if p.escapes != 1 {
		t.Errorf("Expected escape while unfocused, got %d", p.escapes)
	}

	p.el.SetFocus(true)
	p.press(Keystroke{Text: "b"})
	if p.el.Value() != "ab" {
		t.Errorf("Expected typing restored, got %q", p.el.Value())
	}

	// While focused, "r" is an ordinary character.
	p.press(Keystroke{Text: "r"})
	if p.el.Value() != "abr" || p.refreshes != 1 {
		t.Errorf("Expected 'r' typed while focused, got %q refreshes %d", p.el.Value(), p.refreshes)
	}
}

func TestEditLineExternalValueEchoPreservesEdits(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})
	p.press(Keystroke{Text: "a"}, Keystroke{Text: "b"}, Keystroke{Text: "c"})
	p.press(Keystroke{Name: "left"})

	changes := len(p.changes)
	p.el.SetValue("abc") // the owner echoing back what it heard

	if p.el.Value() != "abc" || p.el.Cursor() != 2 {
		t.Errorf("Echo disturbed the widget: %q cursor %d", p.el.Value(), p.el.Cursor())
	}
	if len(p.changes) != changes {
		t.Errorf("Echo must not emit a change, got %v", p.changes[changes:])
	}
}

func TestEditLineExternalValueReplace(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})
	p.press(Keystroke{Text: "a"})

	changes := len(p.changes)
	p.el.SetValue("recalled entry")

	if p.el.Value() != "recalled entry" {
		t.Errorf("Expected replacement, got %q", p.el.Value())
	}
	if p.el.Cursor() != 14 {
		t.Errorf("Expected cursor at end, got %d", p.el.Cursor())
	}
	// Owner-initiated values never round-trip as change callbacks.
	if len(p.changes) != changes {
		t.Errorf("External replace must not emit a change, got %v", p.changes[changes:])
	}
}

func TestEditLineSetValueAndCursor(t *testing.T) {
	p := newEditLineProbe(EditLineConfig{})

	p.el.SetValueAndCursor("hello", 2)
	if p.el.Value() != "hello" || p.el.Cursor() != 2 {
		t.Errorf("Expected 'hello' cursor 2, got %q cursor %d", p.el.Value(), p.el.Cursor())
	}
	if len(p.cursors) == 0 || p.cursors[len(p.cursors)-1] != 2 {
		t.Errorf("Expected cursor notification for the forced offset, got %v", p.cursors)
	}

	// The forced offset is consumed; a later SetValue snaps to end.
	p.el.SetValue("world!")
	if p.el.Cursor() != 6 {
		t.Errorf("Expected cursor at end, got %d", p.el.Cursor())
	}
}
