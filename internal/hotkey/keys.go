package hotkey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Linux input event codes (linux/input-event-codes.h).
const (
	KeyS          uint16 = 31
	KeyH          uint16 = 35
	KeyLeftCtrl   uint16 = 29
	KeyLeftShift  uint16 = 42
	KeyRightShift uint16 = 54
	KeyLeftAlt    uint16 = 56
	KeySpace      uint16 = 57
	KeyCapsLock   uint16 = 58
	KeyNumLock    uint16 = 69
	KeyScrollLock uint16 = 70
	KeyRightCtrl  uint16 = 97
	KeyRightAlt   uint16 = 100
	KeyInsert     uint16 = 110
	KeyPause      uint16 = 119
	KeyLeftMeta   uint16 = 125
	KeyRightMeta  uint16 = 126
	KeyCompose    uint16 = 127
)

var keyNames = map[string]uint16{
	"capslock":   KeyCapsLock,
	"numlock":    KeyNumLock,
	"scrolllock": KeyScrollLock,
	"space":      KeySpace,
	"leftctrl":   KeyLeftCtrl,
	"rightctrl":  KeyRightCtrl,
	"leftalt":    KeyLeftAlt,
	"rightalt":   KeyRightAlt,
	"leftshift":  KeyLeftShift,
	"rightshift": KeyRightShift,
	"leftmeta":   KeyLeftMeta,
	"rightmeta":  KeyRightMeta,
	"insert":     KeyInsert,
	"pause":      KeyPause,
	"compose":    KeyCompose,
	"menu":       KeyCompose,
}

func init() {
	// F1-F10 are contiguous, F11/F12 and F13-F24 live elsewhere
	for i := 0; i < 10; i++ {
		keyNames[fmt.Sprintf("f%d", i+1)] = uint16(59 + i)
	}
	keyNames["f11"] = 87
	keyNames["f12"] = 88
	for i := 0; i < 12; i++ {
		keyNames[fmt.Sprintf("f%d", i+13)] = uint16(183 + i)
	}
}

// ParseKey resolves a key name ("capslock", "f9", "rightctrl") or a decimal
// event code ("58") to an input event code.
func ParseKey(s string) (uint16, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "key_")
	if name == "" {
		return 0, fmt.Errorf("empty key")
	}
	if code, ok := keyNames[name]; ok {
		return code, nil
	}
	n, err := strconv.ParseUint(name, 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("unknown key %q (use a name like %q or an event code)", s, "capslock")
	}
	return uint16(n), nil
}

// KeyName returns the symbolic name for code, or its decimal form.
func KeyName(code uint16) string {
	best := ""
	for name, c := range keyNames {
		if c == code && (best == "" || name < best) {
			best = name
		}
	}
	if best == "" {
		return strconv.Itoa(int(code))
	}
	return best
}

// KeyNames lists every named key, sorted.
func KeyNames() []string {
	names := make([]string, 0, len(keyNames))
	for name := range keyNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsLockKey reports keys whose meaning is a latched state rather than a
// held position.
func IsLockKey(code uint16) bool {
	switch code {
	case KeyCapsLock, KeyNumLock, KeyScrollLock:
		return true
	}
	return false
}

func modifierFor(code uint16) Modifier {
	switch code {
	case KeyLeftShift, KeyRightShift:
		return ModShift
	case KeyLeftCtrl, KeyRightCtrl:
		return ModCtrl
	case KeyLeftAlt, KeyRightAlt:
		return ModAlt
	case KeyLeftMeta, KeyRightMeta:
		return ModSuper
	}
	return 0
}
