package console

import "strings"

// KeyKind classifies a decoded input event.
type KeyKind int

const (
	KeyIgnored KeyKind = iota
	KeyCharacter
	KeyBackspace
	KeyDelete
	KeyArrowLeft
	KeyArrowRight
	KeyEnter
	KeyEscape
	KeyWordLeft
	KeyWordRight
	KeyWordDeleteBack
	KeyPasteChunk
)

func (k KeyKind) String() string {
	switch k {
	case KeyCharacter:
		return "character"
	case KeyBackspace:
		return "backspace"
	case KeyDelete:
		return "delete"
	case KeyArrowLeft:
		return "arrow_left"
	case KeyArrowRight:
		return "arrow_right"
	case KeyEnter:
		return "enter"
	case KeyEscape:
		return "escape"
	case KeyWordLeft:
		return "word_left"
	case KeyWordRight:
		return "word_right"
	case KeyWordDeleteBack:
		return "word_delete_back"
	case KeyPasteChunk:
		return "paste_chunk"
	default:
		return "ignored"
	}
}

// KeyEvent is one semantic input event, produced per keystroke and never
// persisted. Backspace rides along on Character events so composed-input
// corrections that arrive as a detached backspace plus replacement text
// can be applied together.
type KeyEvent struct {
	Kind      KeyKind
	Text      string
	IsPaste   bool
	Backspace bool
}

// Translator converts pasted payloads before classification and pulls
// image content for paste shortcuts. Translate must be idempotent.
type Translator interface {
	Translate(raw string) (string, error)
	TryImportImage() (string, bool)
}

// clipboardTextReader is implemented by translators that can also hand
// back the plain-text clipboard, used when a paste shortcut finds no
// image to import.
type clipboardTextReader interface {
	ReadText() (string, error)
}

// Decoder turns parsed keystrokes into semantic key events. Rules are
// ordered: paste payloads first, then the always-honored escape, then
// shortcuts, then the modifier filter that keeps unhandled control
// combinations out of the buffer.
type Decoder struct {
	translator Translator
}

func NewDecoder(translator Translator) *Decoder {
	return &Decoder{translator: translator}
}

func (d *Decoder) Decode(k Keystroke) KeyEvent {
	// 1. Bracketed paste payloads are opaque: route them whole.
	if k.Paste {
		return KeyEvent{Kind: KeyPasteChunk, Text: k.Text, IsPaste: true}
	}

	// 2. Escape is honored even while the consumer has input disabled.
	if k.Name == "escape" {
		return KeyEvent{Kind: KeyEscape}
	}

	// 3. The consumer layer treats a bare "r" as its refresh shortcut;
	// pass it through untouched ahead of the modifier filter.
	if k.Text == "r" && !k.Ctrl && !k.Meta {
		return KeyEvent{Kind: KeyCharacter, Text: "r"}
	}

	// 4. Paste shortcuts try a clipboard image first, then fall back to
	// the clipboard's text content.
	if isPasteShortcut(k) {
		if d.translator != nil {
			if content, ok := d.translator.TryImportImage(); ok {
				return KeyEvent{Kind: KeyPasteChunk, Text: content, IsPaste: true}
			}
			if reader, ok := d.translator.(clipboardTextReader); ok {
				if content, err := reader.ReadText(); err == nil && content != "" {
					return KeyEvent{Kind: KeyPasteChunk, Text: content, IsPaste: true}
				}
			}
		}
		return KeyEvent{Kind: KeyIgnored}
	}

	// 5. Plain enter and horizontal arrows.
	if !k.Ctrl && !k.Meta {
		switch k.Name {
		case "return":
			return KeyEvent{Kind: KeyEnter}
		case "left":
			return KeyEvent{Kind: KeyArrowLeft}
		case "right":
			return KeyEvent{Kind: KeyArrowRight}
		}
	}

	// 6. Anything else carrying ctrl or meta is dropped so unhandled
	// control combinations cannot corrupt the buffer. Word motion for
	// these sequences is handled by the raw-sequence listener.
	if k.Ctrl || k.Meta {
		return KeyEvent{Kind: KeyIgnored}
	}

	// 7. Non-empty payloads are batched character input (IME bursts).
	if k.Text != "" {
		return KeyEvent{Kind: KeyCharacter, Text: k.Text, Backspace: k.Backspace}
	}

	// 8. Explicit erase key flags.
	if k.Backspace || k.Name == "backspace" {
		return KeyEvent{Kind: KeyBackspace}
	}
	if k.Delete || k.Name == "delete" {
		return KeyEvent{Kind: KeyDelete}
	}

	return KeyEvent{Kind: KeyIgnored}
}

func isPasteShortcut(k Keystroke) bool {
	if strings.ToLower(k.Text) != "v" {
		return false
	}
	if k.Meta {
		return true
	}
	return k.Ctrl && k.Shift
}
