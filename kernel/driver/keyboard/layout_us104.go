package keyboard

// us104Chars holds the unshifted and shifted characters for the keys whose
// output only depends on the shift keys.
var us104Chars = [keyCount][2]rune{
	Backtick:     {'`', '~'},
	Key1:         {'1', '!'},
	Key2:         {'2', '@'},
	Key3:         {'3', '#'},
	Key4:         {'4', '$'},
	Key5:         {'5', '%'},
	Key6:         {'6', '^'},
	Key7:         {'7', '&'},
	Key8:         {'8', '*'},
	Key9:         {'9', '('},
	Key0:         {'0', ')'},
	Minus:        {'-', '_'},
	Equals:       {'=', '+'},
	BracketOpen:  {'[', '{'},
	BracketClose: {']', '}'},
	Backslash:    {'\\', '|'},
	Semicolon:    {';', ':'},
	Quote:        {'\'', '"'},
	Comma:        {',', '<'},
	Period:       {'.', '>'},
	Slash:        {'/', '?'},
	Spacebar:     {' ', ' '},
	Tab:          {'\t', '\t'},
	Enter:        {'\n', '\n'},
	Backspace:    {0x08, 0x08},
	Escape:       {0x1b, 0x1b},
	Delete:       {0x7f, 0x7f},
	NumpadSlash:  {'/', '/'},
	NumpadStar:   {'*', '*'},
	NumpadMinus:  {'-', '-'},
	NumpadPlus:   {'+', '+'},
	NumpadEnter:  {'\n', '\n'},
}

// us104Letters maps letter keys to their lower case character.
var us104Letters = [keyCount]rune{
	A: 'a', B: 'b', C: 'c', D: 'd', E: 'e', F: 'f', G: 'g', H: 'h', I: 'i',
	J: 'j', K: 'k', L: 'l', M: 'm', N: 'n', O: 'o', P: 'p', Q: 'q', R: 'r',
	S: 's', T: 't', U: 'u', V: 'v', W: 'w', X: 'x', Y: 'y', Z: 'z',
}

// us104Numpad maps numpad keys to the character they produce with num lock
// on and the key they act as with num lock off.
var us104Numpad = [keyCount]struct {
	ch  rune
	alt KeyCode
}{
	Numpad0:      {'0', Insert},
	Numpad1:      {'1', End},
	Numpad2:      {'2', ArrowDown},
	Numpad3:      {'3', PageDown},
	Numpad4:      {'4', ArrowLeft},
	Numpad5:      {'5', Numpad5},
	Numpad6:      {'6', ArrowRight},
	Numpad7:      {'7', Home},
	Numpad8:      {'8', ArrowUp},
	Numpad9:      {'9', PageUp},
	NumpadPeriod: {'.', Delete},
}

// mapKeyUS104 decodes a key press using the US 104-key layout.
func mapKeyUS104(code KeyCode, mods *Modifiers, handleCtrl HandleControl) DecodedKey {
	if code >= keyCount {
		return DecodedKey{Kind: RawKey, Code: KeyUnknown}
	}

	if letter := us104Letters[code]; letter != 0 {
		switch {
		case handleCtrl == MapLettersToUnicode && mods.IsCtrl():
			return DecodedKey{Kind: Unicode, Rune: letter - 'a' + 1, Code: code}
		case mods.IsCaps():
			return DecodedKey{Kind: Unicode, Rune: letter - 'a' + 'A', Code: code}
		default:
			return DecodedKey{Kind: Unicode, Rune: letter, Code: code}
		}
	}

	if numpad := us104Numpad[code]; numpad.ch != 0 {
		if mods.NumLock {
			return DecodedKey{Kind: Unicode, Rune: numpad.ch, Code: code}
		}

		// Without num lock the keypad doubles as a navigation block
		if numpad.alt == Delete {
			return DecodedKey{Kind: Unicode, Rune: us104Chars[Delete][0], Code: code}
		}
		return DecodedKey{Kind: RawKey, Code: numpad.alt}
	}

	if chars := us104Chars[code]; chars[0] != 0 {
		ch := chars[0]
		if mods.IsShifted() {
			ch = chars[1]
		}
		return DecodedKey{Kind: Unicode, Rune: ch, Code: code}
	}

	return DecodedKey{Kind: RawKey, Code: code}
}
