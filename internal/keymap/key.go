// Package keymap parses key bindings and maps key sequences to application
// commands and item actions.
package keymap

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spx/internal/shared"
)

// Modifier is the modifier held with a key.
type Modifier int

const (
	ModNone Modifier = iota
	ModCtrl
	ModAlt
)

// Key is a single key press.
//
// Code is either one character or a named key ("enter", "page_up", "f5"...).
// Ctrl and Alt only combine with a single character.
type Key struct {
	Mod  Modifier
	Code string
}

var namedKeys = map[string]bool{
	"enter": true, "tab": true, "backspace": true, "esc": true,
	"left": true, "right": true, "up": true, "down": true,
	"insert": true, "delete": true, "home": true, "end": true,
	"page_up": true, "page_down": true,
	"f1": true, "f2": true, "f3": true, "f4": true, "f5": true, "f6": true,
	"f7": true, "f8": true, "f9": true, "f10": true, "f11": true, "f12": true,
}

// ParseKey parses "a", "C-r", "M-x", "space", "enter" and friends.
func ParseKey(s string) (Key, error) {
	runes := []rune(s)
	switch {
	case len(runes) == 1 && runes[0] != ' ':
		return Key{Code: s}, nil
	case len(runes) == 3 && runes[1] == '-' && runes[2] != ' ':
		switch runes[0] {
		case 'C':
			return Key{Mod: ModCtrl, Code: string(runes[2])}, nil
		case 'M':
			return Key{Mod: ModAlt, Code: string(runes[2])}, nil
		}
	case s == "space":
		return Key{Code: " "}, nil
	case namedKeys[s]:
		return Key{Code: s}, nil
	}
	return Key{}, fmt.Errorf("%w: unknown key %q", shared.ErrInvalidInput, s)
}

func (k Key) String() string {
	switch k.Mod {
	case ModCtrl:
		return "C-" + k.Code
	case ModAlt:
		return "M-" + k.Code
	}
	if k.Code == " " {
		return "space"
	}
	return k.Code
}

// bubbletea names that differ from ours
var teaNames = map[string]string{
	"pgup":   "page_up",
	"pgdown": "page_down",
	" ":      " ",
	"space":  " ",
}

// FromKeyMsg converts a bubbletea key event. Keys with no equivalent
// (shift+tab, ctrl+up, pasted text) report false.
func FromKeyMsg(msg tea.KeyMsg) (Key, bool) {
	s := msg.String()
	mod := ModNone
	switch {
	case strings.HasPrefix(s, "ctrl+"):
		mod, s = ModCtrl, strings.TrimPrefix(s, "ctrl+")
	case strings.HasPrefix(s, "alt+"):
		mod, s = ModAlt, strings.TrimPrefix(s, "alt+")
	}

	if name, ok := teaNames[s]; ok {
		s = name
	}

	if utf8.RuneCountInString(s) == 1 {
		if mod != ModNone && s == " " {
			return Key{}, false
		}
		return Key{Mod: mod, Code: s}, true
	}
	if mod == ModNone && namedKeys[s] {
		return Key{Code: s}, true
	}
	return Key{}, false
}

// KeySequence is one or more keys pressed in order, written space separated ("g a").
type KeySequence []Key

// ParseKeySequence parses a space separated list of keys.
func ParseKeySequence(s string) (KeySequence, error) {
	parts := strings.Split(s, " ")
	seq := make(KeySequence, 0, len(parts))
	for _, p := range parts {
		k, err := ParseKey(p)
		if err != nil {
			return nil, fmt.Errorf("invalid key sequence %q: %w", s, err)
		}
		seq = append(seq, k)
	}
	return seq, nil
}

// MustParseKeySequence panics on invalid input. Used for built-in defaults.
func MustParseKeySequence(s string) KeySequence {
	seq, err := ParseKeySequence(s)
	if err != nil {
		panic(err)
	}
	return seq
}

func (s KeySequence) String() string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = k.String()
	}
	return strings.Join(parts, " ")
}

// IsPrefix reports whether s is a prefix of other. Equal sequences are prefixes.
func (s KeySequence) IsPrefix(other KeySequence) bool {
	if len(s) > len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Equal reports whether both sequences hold the same keys.
func (s KeySequence) Equal(other KeySequence) bool {
	return len(s) == len(other) && s.IsPrefix(other)
}

func (s *KeySequence) UnmarshalText(b []byte) error {
	seq, err := ParseKeySequence(string(b))
	if err != nil {
		return err
	}
	*s = seq
	return nil
}

func (s KeySequence) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
