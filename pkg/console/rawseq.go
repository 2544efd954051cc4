package console

type rawState int

const (
	rawGround rawState = iota
	rawEscape
	rawCSI
)

// csiParamLimit bounds parameter accumulation so a malformed sequence
// cannot wedge the state machine.
const csiParamLimit = 16

// RawSequenceListener watches the raw byte stream ahead of keystroke
// parsing and recognizes the word-motion sequences the decoder drops:
// classic meta-b / meta-f, vendor modified-arrow codes, and the
// word-delete-backward family (ctrl-W, meta+backspace). Everything else
// is ignored silently; terminal input is inherently noisy.
//
// Bytes between bracketed-paste markers are pasted content, not
// keystrokes, so recognition is suspended inside a paste.
type RawSequenceListener struct {
	bus     *EventBus
	subID   string
	emit    func(KeyEvent)
	enabled bool

	state   rawState
	params  []byte
	inPaste bool
}

// NewRawSequenceListener subscribes to raw input on the bus and reports
// recognized word events through emit. Call Close to cancel the
// subscription when the owning widget unmounts.
func NewRawSequenceListener(bus *EventBus, emit func(KeyEvent)) *RawSequenceListener {
	l := &RawSequenceListener{
		bus:     bus,
		emit:    emit,
		enabled: true,
	}
	if bus != nil {
		l.subID = bus.Subscribe(EventRawInput, func(event Event) error {
			if data, ok := event.Data.([]byte); ok {
				l.Feed(data)
			}
			return nil
		})
	}
	return l
}

// SetEnabled gates emission without unsubscribing. Sequence tracking
// continues while disabled so a focus flip mid-sequence cannot desync
// the state machine.
func (l *RawSequenceListener) SetEnabled(enabled bool) {
	l.enabled = enabled
}

// Close cancels the bus subscription.
func (l *RawSequenceListener) Close() {
	if l.bus != nil && l.subID != "" {
		l.bus.Unsubscribe(l.subID)
		l.subID = ""
	}
}

// Feed advances the recognizer over a raw chunk. Chunks may split a
// sequence at any byte boundary.
func (l *RawSequenceListener) Feed(data []byte) {
	for _, b := range data {
		l.step(b)
	}
}

func (l *RawSequenceListener) step(b byte) {
	switch l.state {
	case rawGround:
		switch b {
		case 0x1b:
			l.state = rawEscape
		case 0x17: // ctrl-W
			if !l.inPaste {
				l.send(KeyWordDeleteBack)
			}
		}

	case rawEscape:
		switch b {
		case '[':
			l.state = rawCSI
			l.params = l.params[:0]
		case 0x1b:
			// a fresh escape restarts recognition
		case 'b':
			l.state = rawGround
			if !l.inPaste {
				l.send(KeyWordLeft)
			}
		case 'f':
			l.state = rawGround
			if !l.inPaste {
				l.send(KeyWordRight)
			}
		case 0x7f, 0x08: // meta+backspace variants
			l.state = rawGround
			if !l.inPaste {
				l.send(KeyWordDeleteBack)
			}
		default:
			l.state = rawGround
		}

	case rawCSI:
		// Final bytes are 0x40..0x7e; everything before accumulates as
		// parameters.
		if b >= 0x40 && b <= 0x7e {
			l.finishCSI(b)
			l.state = rawGround
			return
		}
		if len(l.params) >= csiParamLimit {
			l.state = rawGround
			return
		}
		l.params = append(l.params, b)
	}
}

func (l *RawSequenceListener) finishCSI(final byte) {
	params := string(l.params)

	if final == '~' {
		switch params {
		case "200":
			l.inPaste = true
		case "201":
			l.inPaste = false
		}
		return
	}
	if l.inPaste {
		return
	}

	if final != 'C' && final != 'D' {
		return
	}
	switch params {
	case "1;3", "1;4", "1;5", "1;9", "1;10", "1;13":
		// alt, ctrl, meta and their shift variants on an arrow key
	default:
		return
	}
	if final == 'D' {
		l.send(KeyWordLeft)
	} else {
		l.send(KeyWordRight)
	}
}

func (l *RawSequenceListener) send(kind KeyKind) {
	if !l.enabled || l.emit == nil {
		return
	}
	l.emit(KeyEvent{Kind: kind})
}
