package console

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/zetzet7298/letta-code/pkg/utils"
)

// Keystroke is one parsed terminal key, the unit handed to the decoder.
// Name carries special keys ("return", "escape", "left", ...); Text
// carries typed payloads, possibly several runes for composed input.
type Keystroke struct {
	Name      string
	Text      string
	Ctrl      bool
	Meta      bool
	Shift     bool
	Paste     bool
	Backspace bool
	Delete    bool
}

const (
	pollInterval = 10 * time.Millisecond

	// escapeQuiet is how long a lone ESC byte may dangle before it is
	// resolved as the Escape key rather than the start of a sequence.
	escapeQuiet = 50 * time.Millisecond

	// burstQuiet ends heuristic paste collection once input goes idle.
	burstQuiet = 100 * time.Millisecond

	// burstMinBytes is the single-read size past which plain input is
	// treated as a paste even without bracketed markers. Keystrokes and
	// composed-input commits stay well under a full read buffer.
	burstMinBytes = 32
)

// EscapeParser turns the raw byte stream into keystrokes using a small
// state machine. Malformed or unknown sequences are dropped silently;
// terminal input is inherently noisy.
type EscapeParser struct {
	state    int
	params   []byte
	pasteBuf []byte
	pasteCR  bool
	utf8Buf  []byte
	utf8Need int
}

// NewEscapeParser creates a new escape sequence parser.
func NewEscapeParser() *EscapeParser {
	return &EscapeParser{
		params:   make([]byte, 0, 16),
		pasteBuf: make([]byte, 0, 256),
	}
}

// Idle reports whether the parser is between sequences.
func (ep *EscapeParser) Idle() bool {
	return ep.state == 0 && ep.utf8Need == 0
}

// Pending reports a dangling ESC byte awaiting resolution.
func (ep *EscapeParser) Pending() bool {
	return ep.state == 1
}

// InPaste reports that a bracketed paste is being collected.
func (ep *EscapeParser) InPaste() bool {
	return ep.state >= 4 && ep.state <= 6
}

// Parse processes one byte and returns a keystroke when one completes.
func (ep *EscapeParser) Parse(b byte) *Keystroke {
	switch ep.state {
	case 0: // Waiting for ESC or regular input
		return ep.parseGround(b)

	case 1: // Got ESC, expecting '[', 'O', or a meta-modified key
		switch {
		case b == '[':
			ep.state = 2
			ep.params = ep.params[:0]
			return nil
		case b == 'O':
			ep.state = 3
			return nil
		case b == 27:
			// ESC ESC: report the first, keep waiting on the second
			return &Keystroke{Name: "escape"}
		case b == 8 || b == 127:
			ep.state = 0
			return &Keystroke{Name: "backspace", Backspace: true, Meta: true}
		case b >= 32 && b < 0x80:
			ep.state = 0
			return &Keystroke{Meta: true, Text: string(rune(b))}
		default:
			ep.state = 0
			return &Keystroke{Name: "escape"}
		}

	case 2: // Got ESC [, reading a CSI sequence
		if b >= 0x40 && b <= 0x7e {
			return ep.finishCSI(b)
		}
		if len(ep.params) >= csiParamLimit {
			ep.state = 0
			ep.params = ep.params[:0]
			return nil
		}
		ep.params = append(ep.params, b)
		return nil

	case 3: // Got ESC O (SS3 function keys, application cursor mode)
		ep.state = 0
		switch b {
		case 'A':
			return &Keystroke{Name: "up"}
		case 'B':
			return &Keystroke{Name: "down"}
		case 'C':
			return &Keystroke{Name: "right"}
		case 'D':
			return &Keystroke{Name: "left"}
		case 'H':
			return &Keystroke{Name: "home"}
		case 'F':
			return &Keystroke{Name: "end"}
		default:
			return nil
		}

	case 4: // Inside a bracketed paste, collecting content
		switch b {
		case 27:
			ep.state = 5
		case 13:
			ep.pasteBuf = append(ep.pasteBuf, '\n')
			ep.pasteCR = true
		case 10:
			if !ep.pasteCR {
				ep.pasteBuf = append(ep.pasteBuf, '\n')
			}
			ep.pasteCR = false
		default:
			ep.pasteBuf = append(ep.pasteBuf, b)
			ep.pasteCR = false
		}
		return nil

	case 5: // Paste content saw ESC; checking for the end marker
		ep.pasteCR = false
		switch b {
		case '[':
			ep.state = 6
			ep.params = ep.params[:0]
		case 27:
			ep.pasteBuf = append(ep.pasteBuf, 27)
		default:
			ep.pasteBuf = append(ep.pasteBuf, 27, b)
			ep.state = 4
		}
		return nil

	case 6: // Paste content saw ESC [; end marker or literal sequence
		if b >= 0x40 && b <= 0x7e {
			if b == '~' && string(ep.params) == "201" {
				text := string(ep.pasteBuf)
				ep.Reset()
				return &Keystroke{Text: text, Paste: true}
			}
			ep.pasteBuf = append(ep.pasteBuf, 27, '[')
			ep.pasteBuf = append(ep.pasteBuf, ep.params...)
			ep.pasteBuf = append(ep.pasteBuf, b)
			ep.params = ep.params[:0]
			ep.state = 4
			return nil
		}
		if len(ep.params) >= csiParamLimit {
			ep.pasteBuf = append(ep.pasteBuf, 27, '[')
			ep.pasteBuf = append(ep.pasteBuf, ep.params...)
			ep.pasteBuf = append(ep.pasteBuf, b)
			ep.params = ep.params[:0]
			ep.state = 4
			return nil
		}
		ep.params = append(ep.params, b)
		return nil
	}

	return nil
}

func (ep *EscapeParser) parseGround(b byte) *Keystroke {
	// Finish a multi-byte UTF-8 character first.
	if ep.utf8Need > 0 {
		if b&0xC0 == 0x80 {
			ep.utf8Buf = append(ep.utf8Buf, b)
			ep.utf8Need--
			if ep.utf8Need == 0 {
				text := string(ep.utf8Buf)
				ep.utf8Buf = ep.utf8Buf[:0]
				return &Keystroke{Text: text}
			}
			return nil
		}
		// Truncated character: drop it and reprocess this byte fresh.
		ep.utf8Need = 0
		ep.utf8Buf = ep.utf8Buf[:0]
	}

	switch {
	case b == 27:
		ep.state = 1
		return nil
	case b == 13 || b == 10:
		return &Keystroke{Name: "return"}
	case b == 8 || b == 127:
		return &Keystroke{Name: "backspace", Backspace: true}
	case b == 9:
		return &Keystroke{Name: "tab"}
	case b < 32:
		if b >= 1 && b <= 26 {
			return &Keystroke{Ctrl: true, Text: string(rune('a' + b - 1))}
		}
		return nil
	case b < 0x80:
		return &Keystroke{Text: string(rune(b))}
	case b&0xE0 == 0xC0:
		ep.utf8Buf = append(ep.utf8Buf[:0], b)
		ep.utf8Need = 1
		return nil
	case b&0xF0 == 0xE0:
		ep.utf8Buf = append(ep.utf8Buf[:0], b)
		ep.utf8Need = 2
		return nil
	case b&0xF8 == 0xF0:
		ep.utf8Buf = append(ep.utf8Buf[:0], b)
		ep.utf8Need = 3
		return nil
	default:
		// stray continuation byte
		return nil
	}
}

func (ep *EscapeParser) finishCSI(final byte) *Keystroke {
	params := string(ep.params)
	ep.params = ep.params[:0]
	ep.state = 0

	switch final {
	case 'A', 'B', 'C', 'D', 'H', 'F':
		k := &Keystroke{Name: csiKeyName(final)}
		if params == "" || params == "1" {
			return k
		}
		mods, ok := strings.CutPrefix(params, "1;")
		if !ok {
			return nil
		}
		applyModifiers(k, mods)
		return k

	case '~':
		code, mods, _ := strings.Cut(params, ";")
		var k *Keystroke
		switch code {
		case "200":
			ep.state = 4
			ep.pasteBuf = ep.pasteBuf[:0]
			ep.pasteCR = false
			return nil
		case "201":
			return nil // stray end marker
		case "3":
			k = &Keystroke{Name: "delete", Delete: true}
		case "1", "7":
			k = &Keystroke{Name: "home"}
		case "4", "8":
			k = &Keystroke{Name: "end"}
		case "2":
			k = &Keystroke{Name: "insert"}
		case "5":
			k = &Keystroke{Name: "pageup"}
		case "6":
			k = &Keystroke{Name: "pagedown"}
		default:
			return nil
		}
		if mods != "" {
			applyModifiers(k, mods)
		}
		return k

	case 'u':
		// Kitty-style key report: "<codepoint>;<mods>u". This is how
		// ctrl+shift+v reaches us in terminals that forward it at all.
		code, mods, _ := strings.Cut(params, ";")
		n, err := strconv.Atoi(code)
		if err != nil {
			return nil
		}
		var k *Keystroke
		switch {
		case n == 13:
			k = &Keystroke{Name: "return"}
		case n == 27:
			k = &Keystroke{Name: "escape"}
		case n == 9:
			k = &Keystroke{Name: "tab"}
		case n == 8 || n == 127:
			k = &Keystroke{Name: "backspace", Backspace: true}
		case n >= 32:
			k = &Keystroke{Text: string(rune(n))}
		default:
			return nil
		}
		if mods != "" {
			applyModifiers(k, mods)
		}
		return k

	default:
		return nil
	}
}

func csiKeyName(final byte) string {
	switch final {
	case 'A':
		return "up"
	case 'B':
		return "down"
	case 'C':
		return "right"
	case 'D':
		return "left"
	case 'H':
		return "home"
	default:
		return "end"
	}
}

// applyModifiers decodes the xterm modifier parameter (value minus one
// is a bitmap: 1 shift, 2 alt, 4 ctrl, 8 meta).
func applyModifiers(k *Keystroke, mods string) {
	n, err := strconv.Atoi(mods)
	if err != nil || n < 2 {
		return
	}
	bits := n - 1
	k.Shift = bits&1 != 0
	k.Meta = k.Meta || bits&2 != 0 || bits&8 != 0
	k.Ctrl = bits&4 != 0
}

// Flush resolves whatever the parser is holding: a dangling ESC becomes
// the Escape key, an unterminated paste delivers its content rather
// than losing it, and partial sequences are dropped.
func (ep *EscapeParser) Flush() *Keystroke {
	switch {
	case ep.state == 1:
		ep.Reset()
		return &Keystroke{Name: "escape"}
	case ep.InPaste():
		text := string(ep.pasteBuf)
		ep.Reset()
		if text == "" {
			return nil
		}
		return &Keystroke{Text: text, Paste: true}
	default:
		ep.Reset()
		return nil
	}
}

// Reset clears all parser state.
func (ep *EscapeParser) Reset() {
	ep.state = 0
	ep.params = ep.params[:0]
	ep.pasteBuf = ep.pasteBuf[:0]
	ep.pasteCR = false
	ep.utf8Buf = ep.utf8Buf[:0]
	ep.utf8Need = 0
}

// InputReader owns the terminal: it enters raw mode, enables bracketed
// paste, and streams keystrokes to its handler until stopped. Raw chunks
// are published on the bus before parsing so low-level listeners see
// exactly what the terminal sent.
type InputReader struct {
	input   *os.File
	output  io.Writer
	bus     *EventBus
	handler func(Keystroke)

	fd       int
	isTerm   bool
	oldState *term.State

	parser *EscapeParser

	burstBuf    []byte
	burstActive bool
	burstCR     bool
	lastData    time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewInputReader creates a reader over input (os.Stdin when nil) that
// reports keystrokes to handler.
func NewInputReader(input *os.File, output io.Writer, bus *EventBus, handler func(Keystroke)) *InputReader {
	if input == nil {
		input = os.Stdin
	}
	if output == nil {
		output = os.Stdout
	}
	return &InputReader{
		input:   input,
		output:  output,
		bus:     bus,
		handler: handler,
		fd:      int(input.Fd()),
		parser:  NewEscapeParser(),
		stopCh:  make(chan struct{}),
	}
}

// Run blocks on the caller's goroutine, delivering keystrokes until
// Stop is called or the input reaches EOF. Keystroke handling is
// therefore single-threaded: handlers run between reads.
func (ir *InputReader) Run() error {
	ir.isTerm = term.IsTerminal(ir.fd)
	if ir.isTerm {
		oldState, err := term.MakeRaw(ir.fd)
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		ir.oldState = oldState
		defer func() { _ = term.Restore(ir.fd, ir.oldState) }()

		fmt.Fprint(ir.output, EnableBracketedPasteSeq())
		defer fmt.Fprint(ir.output, DisableBracketedPasteSeq())
	}

	if err := setNonblock(ir.fd, true); err == nil {
		defer func() { _ = setNonblock(ir.fd, false) }()
	}

	utils.GetLogger().LogConsoleEvent("input_reader_started", fmt.Sprintf("terminal=%t", ir.isTerm))

	buf := make([]byte, 64)
	ir.lastData = time.Now()

	for {
		select {
		case <-ir.stopCh:
			ir.drainPending()
			return nil
		default:
		}

		n, err := ir.input.Read(buf)
		if err != nil {
			if isNoData(err) {
				ir.onQuiet()
				time.Sleep(pollInterval)
				continue
			}
			if errors.Is(err, io.EOF) {
				ir.drainPending()
				return io.EOF
			}
			return fmt.Errorf("input read error: %w", err)
		}
		if n == 0 {
			ir.onQuiet()
			time.Sleep(pollInterval)
			continue
		}

		chunk := make([]byte, n)
		copy(chunk, buf[:n])

		if ir.bus != nil {
			_ = ir.bus.Publish(Event{Type: EventRawInput, Source: "input_reader", Data: chunk})
		}

		ir.processChunk(chunk)
		ir.lastData = time.Now()
	}
}

// Stop ends Run after the current poll interval.
func (ir *InputReader) Stop() {
	ir.stopOnce.Do(func() { close(ir.stopCh) })
}

// onQuiet runs whenever a poll finds no data: it finalizes a heuristic
// paste after the stream goes idle and resolves a dangling ESC byte as
// the Escape key.
func (ir *InputReader) onQuiet() {
	quiet := time.Since(ir.lastData)
	if ir.burstActive && quiet >= burstQuiet {
		ir.finishBurst()
	}
	if ir.parser.Pending() && quiet >= escapeQuiet {
		if k := ir.parser.Flush(); k != nil {
			ir.emit(*k)
		}
	}
}

func (ir *InputReader) drainPending() {
	if ir.burstActive {
		ir.finishBurst()
	}
	if k := ir.parser.Flush(); k != nil {
		ir.emit(*k)
	}
}

func (ir *InputReader) processChunk(chunk []byte) {
	// Heuristic paste collection for terminals without bracketed paste:
	// once active, clean chunks keep accumulating until the stream goes
	// quiet. A control byte signals user intent and ends collection.
	if ir.burstActive {
		if !hasControlIntent(chunk) {
			ir.appendBurst(chunk)
			return
		}
		ir.finishBurst()
	}

	if len(chunk) >= burstMinBytes && ir.parser.Idle() && bytes.IndexByte(chunk, 27) < 0 {
		ir.burstActive = true
		ir.burstBuf = ir.burstBuf[:0]
		ir.burstCR = false
		ir.appendBurst(chunk)
		return
	}

	var keys []Keystroke
	for _, b := range chunk {
		if ir.parser.Idle() {
			switch b {
			case 3: // Ctrl+C
				keys = append(keys, Keystroke{Name: "interrupt", Ctrl: true, Text: "c"})
				continue
			case 4: // Ctrl+D
				keys = append(keys, Keystroke{Name: "eof", Ctrl: true, Text: "d"})
				continue
			case 26: // Ctrl+Z
				if ir.isTerm {
					ir.emitKeys(keys)
					keys = keys[:0]
					ir.suspend()
					continue
				}
				keys = append(keys, Keystroke{Name: "suspend", Ctrl: true, Text: "z"})
				continue
			}
		}
		if k := ir.parser.Parse(b); k != nil {
			keys = append(keys, *k)
		}
	}
	ir.emitKeys(keys)
}

func hasControlIntent(chunk []byte) bool {
	return bytes.IndexByte(chunk, 27) >= 0 ||
		bytes.IndexByte(chunk, 8) >= 0 ||
		bytes.IndexByte(chunk, 127) >= 0 ||
		bytes.IndexByte(chunk, 3) >= 0
}

func (ir *InputReader) appendBurst(chunk []byte) {
	for _, b := range chunk {
		switch b {
		case 13:
			ir.burstBuf = append(ir.burstBuf, '\n')
			ir.burstCR = true
		case 10:
			if !ir.burstCR {
				ir.burstBuf = append(ir.burstBuf, '\n')
			}
			ir.burstCR = false
		default:
			ir.burstBuf = append(ir.burstBuf, b)
			ir.burstCR = false
		}
	}
}

func (ir *InputReader) finishBurst() {
	text := string(ir.burstBuf)
	ir.burstActive = false
	ir.burstBuf = ir.burstBuf[:0]
	ir.burstCR = false
	if text != "" {
		ir.emit(Keystroke{Text: text, Paste: true})
	}
}

// suspend hands the terminal back to the shell for Ctrl+Z and reclaims
// it after fg, dropping anything typed while suspended.
func (ir *InputReader) suspend() {
	_ = term.Restore(ir.fd, ir.oldState)
	fmt.Fprint(ir.output, DisableBracketedPasteSeq())
	suspendTerminal()

	// Execution resumes here after fg.
	ignoreTerminalSignals()
	if newState, err := term.MakeRaw(ir.fd); err == nil {
		ir.oldState = newState
	}
	fmt.Fprint(ir.output, EnableBracketedPasteSeq())

	discard := make([]byte, 256)
	for {
		n, _ := ir.input.Read(discard)
		if n <= 0 {
			break
		}
	}
	resetTerminalSignals()
	ir.parser.Reset()
	ir.emit(Keystroke{Name: "resume"})
}

func (ir *InputReader) emitKeys(keys []Keystroke) {
	for _, k := range coalesceKeystrokes(keys) {
		ir.emit(k)
	}
}

func (ir *InputReader) emit(k Keystroke) {
	if ir.handler != nil {
		ir.handler(k)
	}
}

// coalesceKeystrokes merges the text keystrokes of one read into a
// single payload, so composed-input commits arrive as one Character
// batch. A bare backspace directly followed by text in the same read is
// folded in as a detached-correction flag on the merged keystroke.
func coalesceKeystrokes(keys []Keystroke) []Keystroke {
	var out []Keystroke
	for _, k := range keys {
		if len(out) > 0 && plainText(k) {
			last := &out[len(out)-1]
			if textCarrier(*last) {
				last.Text += k.Text
				continue
			}
			if last.Name == "backspace" && last.Text == "" && !last.Ctrl && !last.Meta {
				*last = Keystroke{Text: k.Text, Backspace: true}
				continue
			}
		}
		out = append(out, k)
	}
	return out
}

func plainText(k Keystroke) bool {
	return k.Name == "" && k.Text != "" &&
		!k.Ctrl && !k.Meta && !k.Paste && !k.Backspace && !k.Delete
}

func textCarrier(k Keystroke) bool {
	return k.Name == "" && k.Text != "" &&
		!k.Ctrl && !k.Meta && !k.Paste && !k.Delete
}
