package keymaps

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bendahl/uinput"
	"github.com/pkg/errors"
)

// keyNames maps the key names accepted in config files to uinput key codes.
// Aliases share a code.
var keyNames = map[string]int{
	"esc": uinput.KeyEsc, "escape": uinput.KeyEsc,
	"1": uinput.Key1, "2": uinput.Key2, "3": uinput.Key3, "4": uinput.Key4, "5": uinput.Key5,
	"6": uinput.Key6, "7": uinput.Key7, "8": uinput.Key8, "9": uinput.Key9, "0": uinput.Key0,
	"minus": uinput.KeyMinus, "-": uinput.KeyMinus,
	"equal": uinput.KeyEqual, "=": uinput.KeyEqual,
	"backspace": uinput.KeyBackspace,
	"tab":       uinput.KeyTab,
	"q": uinput.KeyQ, "w": uinput.KeyW, "e": uinput.KeyE, "r": uinput.KeyR, "t": uinput.KeyT,
	"y": uinput.KeyY, "u": uinput.KeyU, "i": uinput.KeyI, "o": uinput.KeyO, "p": uinput.KeyP,
	"a": uinput.KeyA, "s": uinput.KeyS, "d": uinput.KeyD, "f": uinput.KeyF, "g": uinput.KeyG,
	"h": uinput.KeyH, "j": uinput.KeyJ, "k": uinput.KeyK, "l": uinput.KeyL,
	"z": uinput.KeyZ, "x": uinput.KeyX, "c": uinput.KeyC, "v": uinput.KeyV, "b": uinput.KeyB,
	"n": uinput.KeyN, "m": uinput.KeyM,
	"enter": uinput.KeyEnter, "return": uinput.KeyEnter,
	"space":      uinput.KeySpace,
	"comma":      uinput.KeyComma, ",": uinput.KeyComma,
	"dot":        uinput.KeyDot, "period": uinput.KeyDot, ".": uinput.KeyDot,
	"slash":      uinput.KeySlash, "/": uinput.KeySlash,
	"semicolon":  uinput.KeySemicolon, ";": uinput.KeySemicolon,
	"apostrophe": uinput.KeyApostrophe, "'": uinput.KeyApostrophe,
	"grave":      uinput.KeyGrave, "`": uinput.KeyGrave,
	"backslash":  uinput.KeyBackslash,
	"ctrl":       uinput.KeyLeftctrl, "ctrlleft": uinput.KeyLeftctrl, "ctrlright": uinput.KeyRightctrl,
	"shift": uinput.KeyLeftshift, "shiftleft": uinput.KeyLeftshift, "shiftright": uinput.KeyRightshift,
	"alt": uinput.KeyLeftalt, "altleft": uinput.KeyLeftalt, "altright": uinput.KeyRightalt,
	"command": uinput.KeyLeftmeta, "win": uinput.KeyLeftmeta, "super": uinput.KeyLeftmeta, "meta": uinput.KeyLeftmeta,
	"up": uinput.KeyUp, "down": uinput.KeyDown, "left": uinput.KeyLeft, "right": uinput.KeyRight,
	"home": uinput.KeyHome, "end": uinput.KeyEnd,
	"pageup": uinput.KeyPageup, "pagedown": uinput.KeyPagedown,
	"insert": uinput.KeyInsert, "delete": uinput.KeyDelete, "del": uinput.KeyDelete,
	"f1": uinput.KeyF1, "f2": uinput.KeyF2, "f3": uinput.KeyF3, "f4": uinput.KeyF4,
	"f5": uinput.KeyF5, "f6": uinput.KeyF6, "f7": uinput.KeyF7, "f8": uinput.KeyF8,
	"f9": uinput.KeyF9, "f10": uinput.KeyF10, "f11": uinput.KeyF11, "f12": uinput.KeyF12,
}

// ParseKey converts a key name such as "z", "enter" or "command" to a key code.
func ParseKey(name string) (int, error) {
	code, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, errors.Errorf("unknown key name %q", name)
	}
	return code, nil
}

// ParseChord converts "command+g" style chords to key codes in press order.
func ParseChord(chord string) ([]int, error) {
	if strings.TrimSpace(chord) == "" {
		return nil, errors.New("empty chord")
	}
	var keys []int
	for _, part := range strings.Split(chord, "+") {
		if part == "" {
			// "+" on its own or a trailing "+"
			return nil, errors.Errorf("malformed chord %q", chord)
		}
		code, err := ParseKey(part)
		if err != nil {
			return nil, errors.Wrapf(err, "chord %q", chord)
		}
		keys = append(keys, code)
	}
	return keys, nil
}

var codeNames = func() map[int]string {
	m := make(map[int]string, len(keyNames))
	names := make([]string, 0, len(keyNames))
	for name := range keyNames {
		names = append(names, name)
	}
	// Longest alias wins ("period" over "."); ties resolve alphabetically.
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		m[keyNames[name]] = name
	}
	return m
}()

// KeyName returns a readable name for a key code.
func KeyName(code int) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return "key" + strconv.Itoa(code)
}

// ChordName renders a chord the way ParseChord reads it.
func ChordName(keys []int) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = KeyName(k)
	}
	return strings.Join(parts, "+")
}
