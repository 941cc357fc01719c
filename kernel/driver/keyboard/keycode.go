package keyboard

// KeyCode identifies a physical key on a US 104-key keyboard, independent of
// the active modifiers.
type KeyCode uint8

// The list of supported key codes. KeyUnknown is never produced by the
// decoder; it marks unused slots in the scancode tables.
const (
	KeyUnknown KeyCode = iota
	Escape
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	PrintScreen
	ScrollLock
	PauseBreak
	Backtick
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	Minus
	Equals
	Backspace
	Tab
	Q
	W
	E
	R
	T
	Y
	U
	I
	O
	P
	BracketOpen
	BracketClose
	Backslash
	CapsLock
	A
	S
	D
	F
	G
	H
	J
	K
	L
	Semicolon
	Quote
	Enter
	ShiftLeft
	Z
	X
	C
	V
	B
	N
	M
	Comma
	Period
	Slash
	ShiftRight
	ControlLeft
	WindowsLeft
	AltLeft
	Spacebar
	AltRight
	WindowsRight
	Apps
	ControlRight
	Insert
	Home
	PageUp
	Delete
	End
	PageDown
	ArrowUp
	ArrowLeft
	ArrowDown
	ArrowRight
	NumLock
	NumpadSlash
	NumpadStar
	NumpadMinus
	Numpad7
	Numpad8
	Numpad9
	NumpadPlus
	Numpad4
	Numpad5
	Numpad6
	Numpad1
	Numpad2
	Numpad3
	NumpadEnter
	Numpad0
	NumpadPeriod

	// keyCount is the number of defined key codes.
	keyCount
)

var keyNames = [keyCount]string{
	KeyUnknown:   "Unknown",
	Escape:       "Escape",
	F1:           "F1",
	F2:           "F2",
	F3:           "F3",
	F4:           "F4",
	F5:           "F5",
	F6:           "F6",
	F7:           "F7",
	F8:           "F8",
	F9:           "F9",
	F10:          "F10",
	F11:          "F11",
	F12:          "F12",
	PrintScreen:  "PrintScreen",
	ScrollLock:   "ScrollLock",
	PauseBreak:   "PauseBreak",
	Backtick:     "Backtick",
	Key1:         "Key1",
	Key2:         "Key2",
	Key3:         "Key3",
	Key4:         "Key4",
	Key5:         "Key5",
	Key6:         "Key6",
	Key7:         "Key7",
	Key8:         "Key8",
	Key9:         "Key9",
	Key0:         "Key0",
	Minus:        "Minus",
	Equals:       "Equals",
	Backspace:    "Backspace",
	Tab:          "Tab",
	Q:            "Q",
	W:            "W",
	E:            "E",
	R:            "R",
	T:            "T",
	Y:            "Y",
	U:            "U",
	I:            "I",
	O:            "O",
	P:            "P",
	BracketOpen:  "BracketOpen",
	BracketClose: "BracketClose",
	Backslash:    "Backslash",
	CapsLock:     "CapsLock",
	A:            "A",
	S:            "S",
	D:            "D",
	F:            "F",
	G:            "G",
	H:            "H",
	J:            "J",
	K:            "K",
	L:            "L",
	Semicolon:    "Semicolon",
	Quote:        "Quote",
	Enter:        "Enter",
	ShiftLeft:    "ShiftLeft",
	Z:            "Z",
	X:            "X",
	C:            "C",
	V:            "V",
	B:            "B",
	N:            "N",
	M:            "M",
	Comma:        "Comma",
	Period:       "Period",
	Slash:        "Slash",
	ShiftRight:   "ShiftRight",
	ControlLeft:  "ControlLeft",
	WindowsLeft:  "WindowsLeft",
	AltLeft:      "AltLeft",
	Spacebar:     "Spacebar",
	AltRight:     "AltRight",
	WindowsRight: "WindowsRight",
	Apps:         "Apps",
	ControlRight: "ControlRight",
	Insert:       "Insert",
	Home:         "Home",
	PageUp:       "PageUp",
	Delete:       "Delete",
	End:          "End",
	PageDown:     "PageDown",
	ArrowUp:      "ArrowUp",
	ArrowLeft:    "ArrowLeft",
	ArrowDown:    "ArrowDown",
	ArrowRight:   "ArrowRight",
	NumLock:      "NumLock",
	NumpadSlash:  "NumpadSlash",
	NumpadStar:   "NumpadStar",
	NumpadMinus:  "NumpadMinus",
	Numpad7:      "Numpad7",
	Numpad8:      "Numpad8",
	Numpad9:      "Numpad9",
	NumpadPlus:   "NumpadPlus",
	Numpad4:      "Numpad4",
	Numpad5:      "Numpad5",
	Numpad6:      "Numpad6",
	Numpad1:      "Numpad1",
	Numpad2:      "Numpad2",
	Numpad3:      "Numpad3",
	NumpadEnter:  "NumpadEnter",
	Numpad0:      "Numpad0",
	NumpadPeriod: "NumpadPeriod",
}

// String returns the name of the key. It implements fmt.Stringer without
// allocating so the kernel can print raw keys.
func (k KeyCode) String() string {
	if k >= keyCount {
		return keyNames[KeyUnknown]
	}

	return keyNames[k]
}
