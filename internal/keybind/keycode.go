// Package keybind implements the key-sequence grammar, prefix-trie keymap,
// and stack dispatcher used to turn keyboard events into injected actions.
package keybind

import "strings"

// KeyCode enumerates the physical keys the parser and dispatcher
// understand. Unknown represents any key outside this documented set.
type KeyCode int

const (
	KeyUnknown KeyCode = iota

	// Letters, stored as the canonical lowercase physical key.
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	// Digits.
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	// Function keys.
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Named special keys.
	KeyReturn
	KeyBackspace
	KeySpacebar
	KeyEscape
	KeyTab
	KeyDelete
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyCapsLock
	KeyNumLock

	// Punctuation.
	KeyBang        // !
	KeyDoubleQuote // "
	KeyHash        // #
	KeyDollar      // $
	KeyPercent     // %
	KeyAmpersand   // &
	KeySingleQuote // '
	KeyLeftParen   // (
	KeyRightParen  // )
	KeyAsterisk    // *
	KeyPlus        // +
	KeyComma       // ,
	KeyMinus       // -
	KeyDot         // .
	KeySlash       // /
	KeyColon       // :
	KeySemicolon   // ;
	KeyLess        // <
	KeyEquals      // =
	KeyGreater     // >
	KeyQuestion    // ?
	KeyAt          // @
	KeyLeftBracket // [
	KeyBackslash   // backslash
	KeyRightBracket
	KeyCaret      // ^
	KeyUnderscore // _
	KeyBacktick   // `
	KeyLeftBrace  // {
	KeyPipe       // |
	KeyRightBrace // }
	KeyTilde      // ~
)

var keyNames = map[KeyCode]string{
	KeyUnknown: "unknown",

	KeyA: "a", KeyB: "b", KeyC: "c", KeyD: "d", KeyE: "e", KeyF: "f", KeyG: "g",
	KeyH: "h", KeyI: "i", KeyJ: "j", KeyK: "k", KeyL: "l", KeyM: "m", KeyN: "n",
	KeyO: "o", KeyP: "p", KeyQ: "q", KeyR: "r", KeyS: "s", KeyT: "t", KeyU: "u",
	KeyV: "v", KeyW: "w", KeyX: "x", KeyY: "y", KeyZ: "z",

	Key0: "0", Key1: "1", Key2: "2", Key3: "3", Key4: "4",
	Key5: "5", Key6: "6", Key7: "7", Key8: "8", Key9: "9",

	KeyF1: "f1", KeyF2: "f2", KeyF3: "f3", KeyF4: "f4", KeyF5: "f5", KeyF6: "f6",
	KeyF7: "f7", KeyF8: "f8", KeyF9: "f9", KeyF10: "f10", KeyF11: "f11", KeyF12: "f12",

	KeyReturn: "Return", KeyBackspace: "Backspace", KeySpacebar: "Spacebar",
	KeyEscape: "Escape", KeyTab: "Tab", KeyDelete: "Delete",
	KeyUp: "Up", KeyDown: "Down", KeyLeft: "Left", KeyRight: "Right",
	KeyCapsLock: "CapsLock", KeyNumLock: "NumLock",
}

var charCodes = map[byte]KeyCode{
	'!': KeyBang, '"': KeyDoubleQuote, '#': KeyHash, '$': KeyDollar, '%': KeyPercent,
	'&': KeyAmpersand, '\'': KeySingleQuote, '(': KeyLeftParen, ')': KeyRightParen,
	'*': KeyAsterisk, '+': KeyPlus, ',': KeyComma, '-': KeyMinus, '.': KeyDot,
	'/': KeySlash, ':': KeyColon, ';': KeySemicolon, '<': KeyLess, '=': KeyEquals,
	'>': KeyGreater, '?': KeyQuestion, '@': KeyAt, '[': KeyLeftBracket,
	'\\': KeyBackslash, ']': KeyRightBracket, '^': KeyCaret, '_': KeyUnderscore,
	'`': KeyBacktick, '{': KeyLeftBrace, '|': KeyPipe, '}': KeyRightBrace, '~': KeyTilde,
}

var codeChars = reverseCharCodes()

func reverseCharCodes() map[KeyCode]byte {
	out := make(map[KeyCode]byte, len(charCodes))
	for c, k := range charCodes {
		out[k] = c
	}
	return out
}

var namedKeys = map[string]KeyCode{
	"Return": KeyReturn, "Backspace": KeyBackspace, "Spacebar": KeySpacebar,
	"Escape": KeyEscape, "Tab": KeyTab, "Delete": KeyDelete,
	"Up": KeyUp, "Down": KeyDown, "Left": KeyLeft, "Right": KeyRight,
	"CapsLock": KeyCapsLock, "NumLock": KeyNumLock,
}

// codeFromChar maps a single documented CHAR (letter, digit or punctuation)
// to its KeyCode. Letters are case-folded: 'a' and 'A' name the same
// physical key, since case is expressed through the Shift modifier, not
// through a distinct CHAR.
func codeFromChar(c byte) (KeyCode, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return KeyA + KeyCode(c-'a'), true
	case c >= 'A' && c <= 'Z':
		return KeyA + KeyCode(c-'A'), true
	case c >= '0' && c <= '9':
		return Key0 + KeyCode(c-'0'), true
	}
	code, ok := charCodes[c]
	return code, ok
}

// codeFromName resolves a '<NAME>' body. Function-key names are case-folded
// per the grammar ("<F1>" == "<f1>"); every other name is matched exactly.
func codeFromName(name string) (KeyCode, bool) {
	lower := strings.ToLower(name)
	if len(lower) >= 2 && lower[0] == 'f' && isAllDigits(lower[1:]) {
		n := 0
		for _, c := range lower[1:] {
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= 12 {
			return KeyF1 + KeyCode(n-1), true
		}
		return KeyUnknown, false
	}
	code, ok := namedKeys[name]
	return code, ok
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// String renders the key as it would appear in a parsed combine: either the
// literal CHAR, or '<' NAME '>' for a named key.
func (k KeyCode) String() string {
	if c, isChar := codeChars[k]; isChar {
		return string(c)
	}
	name, ok := keyNames[k]
	if !ok {
		return "unknown"
	}
	if k >= KeyA && k <= KeyZ || k >= Key0 && k <= Key9 {
		return name
	}
	return "<" + name + ">"
}
