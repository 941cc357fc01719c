// Package keyboard turns PS/2 scancode set 1 bytes into key events and then
// into characters using a US 104-key layout.
package keyboard

// KeyState describes whether a key was pressed or released.
type KeyState uint8

const (
	// KeyUp is reported when a key is released.
	KeyUp KeyState = iota

	// KeyDown is reported when a key is pressed (or auto-repeats).
	KeyDown
)

// KeyEvent is a completed key transition.
type KeyEvent struct {
	Code  KeyCode
	State KeyState
}

// DecodedKind selects which DecodedKey field carries the result.
type DecodedKind uint8

const (
	// Unicode keys resolved to a character stored in DecodedKey.Rune.
	Unicode DecodedKind = iota

	// RawKey is reported for keys without a character representation
	// (function keys, arrows, etc.); DecodedKey.Code identifies the key.
	RawKey
)

// DecodedKey is the result of applying the modifier state and keyboard
// layout to a key press.
type DecodedKey struct {
	Kind DecodedKind
	Rune rune
	Code KeyCode
}

// HandleControl selects how Ctrl+letter combinations are decoded.
type HandleControl uint8

const (
	// Ignore decodes letters the same way with or without Ctrl.
	Ignore HandleControl = iota

	// MapLettersToUnicode maps Ctrl+A through Ctrl+Z to the control
	// characters 0x01 through 0x1A.
	MapLettersToUnicode
)

// Modifiers tracks the state of the modifier keys and lock toggles.
type Modifiers struct {
	LShift, RShift bool
	LCtrl, RCtrl   bool
	LAlt, RAlt     bool
	CapsLock       bool
	NumLock        bool
}

// IsShifted returns true if either shift key is held.
func (m *Modifiers) IsShifted() bool {
	return m.LShift || m.RShift
}

// IsCtrl returns true if either control key is held.
func (m *Modifiers) IsCtrl() bool {
	return m.LCtrl || m.RCtrl
}

// IsAlt returns true if either alt key is held.
func (m *Modifiers) IsAlt() bool {
	return m.LAlt || m.RAlt
}

// IsCaps returns true if letters should be upper case: either a shift key
// is held or caps lock is on, but not both.
func (m *Modifiers) IsCaps() bool {
	return m.IsShifted() != m.CapsLock
}

type decodeState uint8

const (
	stateStart decodeState = iota
	stateExtended
	statePause
)

// Decoder is a two stage scancode set 1 decoder. Submit assembles raw
// scancode bytes into key events and Resolve applies the modifier state and
// the US 104-key layout to them.
//
// Decoder keeps state across calls and is not safe for concurrent use.
type Decoder struct {
	state      decodeState
	pauseBytes uint8
	modifiers  Modifiers
	handleCtrl HandleControl
}

// Init resets the decoder state. Num lock starts out enabled.
func (d *Decoder) Init(handleCtrl HandleControl) {
	*d = Decoder{
		handleCtrl: handleCtrl,
		modifiers:  Modifiers{NumLock: true},
	}
}

// Modifiers returns a copy of the current modifier state.
func (d *Decoder) Modifiers() Modifiers {
	return d.modifiers
}

// Submit feeds one scancode byte to the decoder. It returns false while a
// multi-byte sequence is incomplete and for scancodes that do not map to a
// known key; unknown scancodes are silently dropped.
func (d *Decoder) Submit(scancode uint8) (KeyEvent, bool) {
	switch d.state {
	case stateExtended:
		d.state = stateStart
		return lookup(&scancodeSet1Extended, scancode)
	case statePause:
		if d.pauseBytes--; d.pauseBytes != 0 {
			return KeyEvent{}, false
		}

		d.state = stateStart
		return KeyEvent{Code: PauseBreak, State: KeyDown}, true
	}

	switch scancode {
	case extendedPrefix:
		d.state = stateExtended
		return KeyEvent{}, false
	case pausePrefix:
		d.state = statePause
		d.pauseBytes = pauseSequenceLen
		return KeyEvent{}, false
	}

	return lookup(&scancodeSet1, scancode)
}

// Resolve updates the modifier state with ev and decodes key presses using
// the US 104-key layout. Modifier keys and key releases do not produce a
// DecodedKey.
func (d *Decoder) Resolve(ev KeyEvent) (DecodedKey, bool) {
	down := ev.State == KeyDown

	switch ev.Code {
	case ShiftLeft:
		d.modifiers.LShift = down
	case ShiftRight:
		d.modifiers.RShift = down
	case ControlLeft:
		d.modifiers.LCtrl = down
	case ControlRight:
		d.modifiers.RCtrl = down
	case AltLeft:
		d.modifiers.LAlt = down
	case AltRight:
		d.modifiers.RAlt = down
	case CapsLock:
		if down {
			d.modifiers.CapsLock = !d.modifiers.CapsLock
		}
	case NumLock:
		if down {
			d.modifiers.NumLock = !d.modifiers.NumLock
		}
	default:
		if !down {
			return DecodedKey{}, false
		}

		return mapKeyUS104(ev.Code, &d.modifiers, d.handleCtrl), true
	}

	return DecodedKey{}, false
}

// Process runs scancode through both decoding stages.
func (d *Decoder) Process(scancode uint8) (DecodedKey, bool) {
	ev, ok := d.Submit(scancode)
	if !ok {
		return DecodedKey{}, false
	}

	return d.Resolve(ev)
}

func lookup(table *[0x80]KeyCode, scancode uint8) (KeyEvent, bool) {
	code := table[scancode&^releaseBit]
	if code == KeyUnknown {
		return KeyEvent{}, false
	}

	state := KeyDown
	if scancode&releaseBit != 0 {
		state = KeyUp
	}

	return KeyEvent{Code: code, State: state}, true
}
