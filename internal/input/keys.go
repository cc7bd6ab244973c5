// Package input implements the InputLoop of spec.md §4.3: translate raw
// terminal byte sequences into the canonical key strings used by
// hot_keys/key_bindings/on_keypress, then dispatch against the active
// layout.
package input

import "fmt"

// Canonical returns the key string for one read of raw terminal bytes, or
// ("", false) if the sequence isn't recognized (caller should fall back
// to treating it as a literal/unmapped keypress).
//
// Lowercase names: "ctrl-x", "alt-x", "f1".."f12", and single printable
// runes passed through as-is.
func Canonical(b []byte) (string, bool) {
	if len(b) == 0 {
		return "", false
	}

	if named, ok := namedSequences[string(b)]; ok {
		return named, true
	}

	if len(b) == 1 {
		c := b[0]
		switch {
		case c == 0x1b:
			return "escape", true
		case c == 0x09:
			return "tab", true
		case c == 0x0d, c == 0x0a:
			return "enter", true
		case c == 0x7f, c == 0x08:
			return "backspace", true
		case c >= 1 && c <= 26 && c != 9 && c != 13:
			return fmt.Sprintf("ctrl-%c", c+'a'-1), true
		}
		return string(rune(c)), true
	}

	if len(b) == 2 && b[0] == 0x1b {
		return fmt.Sprintf("alt-%c", b[1]), true
	}

	return "", false
}

var namedSequences = map[string]string{
	"\x1b[A": "up",
	"\x1b[B": "down",
	"\x1b[C": "right",
	"\x1b[D": "left",
	"\x1b[H": "home",
	"\x1b[F": "end",
	"\x1b[5~": "page_up",
	"\x1b[6~": "page_down",
	"\x1b[3~": "delete",
	"\x1b[2~": "insert",

	"\x1bOP": "f1",
	"\x1bOQ": "f2",
	"\x1bOR": "f3",
	"\x1bOS": "f4",
	"\x1b[15~": "f5",
	"\x1b[17~": "f6",
	"\x1b[18~": "f7",
	"\x1b[19~": "f8",
	"\x1b[20~": "f9",
	"\x1b[21~": "f10",
	"\x1b[23~": "f11",
	"\x1b[24~": "f12",
}
