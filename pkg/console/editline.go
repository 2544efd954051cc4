package console

import (
	"unicode/utf8"

	"github.com/zetzet7298/letta-code/pkg/utils"
)

// EditLineConfig wires an EditLine to its collaborators and owner
// callbacks. Bus, Translator and Registry may be nil in tests; the
// widget degrades to plain buffer editing.
type EditLineConfig struct {
	Bus        *EventBus
	Translator Translator
	Registry   PasteRegistry

	// Paste classification thresholds; zero means the defaults.
	MaxPasteChars int
	MaxPasteLines int

	Placeholder string

	OnChange     func(value string)
	OnSubmit     func(value string)
	OnCursorMove func(offset int)
	OnEscape     func()
	OnRefresh    func()
}

// EditLine is the paste-aware line editing widget. It owns the
// authoritative text and cursor, decodes keystrokes into semantic
// events, and reports committed mutations upward. Each instance owns
// its state exclusively; all processing is synchronous on the caller's
// goroutine.
type EditLine struct {
	buf        *EditBuffer
	recon      *Reconciler
	decoder    *Decoder
	classifier *PasteClassifier
	listener   *RawSequenceListener
	translator Translator

	focused     bool
	placeholder string

	onChange     func(string)
	onSubmit     func(string)
	onCursorMove func(int)
	onEscape     func()
	onRefresh    func()
}

func NewEditLine(cfg EditLineConfig) *EditLine {
	el := &EditLine{
		buf:          NewEditBuffer(),
		recon:        NewReconciler(),
		decoder:      NewDecoder(cfg.Translator),
		classifier:   NewPasteClassifier(cfg.Registry, cfg.MaxPasteChars, cfg.MaxPasteLines),
		translator:   cfg.Translator,
		focused:      true,
		placeholder:  cfg.Placeholder,
		onChange:     cfg.OnChange,
		onSubmit:     cfg.OnSubmit,
		onCursorMove: cfg.OnCursorMove,
		onEscape:     cfg.OnEscape,
		onRefresh:    cfg.OnRefresh,
	}
	el.listener = NewRawSequenceListener(cfg.Bus, el.HandleKeyEvent)
	return el
}

func (el *EditLine) Value() string       { return el.buf.String() }
func (el *EditLine) Cursor() int         { return el.buf.Cursor() }
func (el *EditLine) Placeholder() string { return el.placeholder }
func (el *EditLine) Focused() bool       { return el.focused }

func (el *EditLine) SetPlaceholder(text string) { el.placeholder = text }

// SetFocus gates key routing without unmounting. Escape and the refresh
// shortcut stay live while unfocused; everything else is dropped, and
// the raw-sequence listener is muted alongside.
func (el *EditLine) SetFocus(focused bool) {
	el.focused = focused
	el.listener.SetEnabled(focused)
}

// Close cancels the raw-sequence subscription. The widget must not
// receive events after closing.
func (el *EditLine) Close() {
	el.listener.Close()
}

// SetValue applies an owner-supplied value. An echo of the widget's own
// emitted value leaves local edits untouched; a genuinely new value
// replaces the buffer with the cursor at end-of-text.
func (el *EditLine) SetValue(value string) {
	el.applyExternal(value)
}

// SetValueAndCursor applies an owner-supplied value with a forced
// cursor offset, consumed only by this application.
func (el *EditLine) SetValueAndCursor(value string, cursor int) {
	el.recon.SetNudge(cursor)
	el.applyExternal(value)
}

func (el *EditLine) applyExternal(value string) {
	_, cursorChanged := el.recon.ApplyExternal(el.buf, value)
	if cursorChanged && el.onCursorMove != nil {
		el.onCursorMove(el.buf.Cursor())
	}
}

// HandleKeystroke decodes and routes one keystroke. While unfocused only
// the always-on events pass: Escape, and the bare "r" refresh shortcut
// which is forwarded to the owner instead of the buffer.
func (el *EditLine) HandleKeystroke(k Keystroke) {
	event := el.decoder.Decode(k)

	if !el.focused {
		switch {
		case event.Kind == KeyEscape:
			// falls through to normal routing below
		case event.Kind == KeyCharacter && event.Text == "r":
			if el.onRefresh != nil {
				el.onRefresh()
			}
			return
		default:
			return
		}
	}

	el.HandleKeyEvent(event)
}

// HandleKeyEvent routes a semantic event to the buffer. The raw-sequence
// listener delivers its word events here as well, so every mutation
// shares one emission path.
func (el *EditLine) HandleKeyEvent(event KeyEvent) {
	beforeText := el.buf.String()
	beforeCursor := el.buf.Cursor()

	switch event.Kind {
	case KeyCharacter:
		el.insertPayload(event.Text, event.Backspace)

	case KeyPasteChunk:
		el.insertPaste(event.Text)

	case KeyBackspace:
		el.buf.DeleteAt(el.buf.Cursor(), false)

	case KeyDelete:
		el.buf.DeleteAt(el.buf.Cursor(), true)

	case KeyArrowLeft:
		el.buf.MoveCursor(el.buf.Cursor() - 1)

	case KeyArrowRight:
		el.buf.MoveCursor(el.buf.Cursor() + 1)

	case KeyWordLeft:
		el.buf.MoveCursor(PreviousWordBoundary(el.buf.String(), el.buf.Cursor()))

	case KeyWordRight:
		el.buf.MoveCursor(NextWordBoundary(el.buf.String(), el.buf.Cursor()))

	case KeyWordDeleteBack:
		cursor := el.buf.Cursor()
		start := PreviousWordBoundary(el.buf.String(), cursor)
		el.buf.DeleteRange(start, cursor)

	case KeyEnter:
		if el.onSubmit != nil {
			el.onSubmit(el.buf.String())
		}

	case KeyEscape:
		if el.onEscape != nil {
			el.onEscape()
		}
	}

	el.emitChanges(beforeText, beforeCursor)
}

// manualClassifyThreshold is the payload length, in runes, past which a
// typed insertion is treated as paste-like for classification. Single
// keystrokes and IME bursts stay under it.
const manualClassifyThreshold = 5

// insertPayload applies typed text. Short payloads take the composition
// path directly; anything longer runs through paste classification,
// with size as the authoritative trigger. Typed text is deliberately
// not translated; only paste-channel content is.
func (el *EditLine) insertPayload(text string, detachedBackspace bool) {
	if utf8.RuneCountInString(text) > manualClassifyThreshold {
		text = el.classifier.Classify(text, false)
	}
	el.buf.ApplyComposition(text, detachedBackspace)
}

// insertPaste translates then classifies a paste-channel payload. A
// translator failure falls back to inserting the raw text, sanitized by
// the composition pass; a keystroke is never lost.
func (el *EditLine) insertPaste(text string) {
	if el.translator != nil {
		translated, err := el.translator.Translate(text)
		if err != nil {
			utils.GetLogger().LogError(err)
			el.buf.ApplyComposition(text, false)
			return
		}
		text = translated
	}
	el.buf.ApplyComposition(el.classifier.Classify(text, true), false)
}

// emitChanges records and propagates a committed mutation. The emitted
// value is recorded before the owner callback runs so its round-trip is
// recognized as an echo.
func (el *EditLine) emitChanges(beforeText string, beforeCursor int) {
	text := el.buf.String()
	if text != beforeText {
		el.recon.RecordEmission(text)
		if el.onChange != nil {
			el.onChange(text)
		}
	}
	if cursor := el.buf.Cursor(); cursor != beforeCursor && el.onCursorMove != nil {
		el.onCursorMove(cursor)
	}
}
