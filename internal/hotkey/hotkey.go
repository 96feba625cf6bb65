// Package hotkey turns raw keyboard events into dictation commands.
package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPermissionDenied = errors.New("input devices not readable")
	ErrNoKeyboard       = errors.New("no keyboard input device found")
	ErrUnsupported      = errors.New("keyboard capture not supported on this platform")
)

type Kind int

const (
	KeyDown Kind = iota
	KeyUp
	KeyRepeat
	// LockState carries the latched state of a lock key (its LED).
	LockState
)

type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

func (m Modifier) Has(o Modifier) bool { return m&o == o }

// RawEvent is one low-level input event as seen by a Source.
type RawEvent struct {
	Code      uint16
	Kind      Kind
	Locked    bool
	Modifiers Modifier
	// Seed marks the initial lock state sampled when a device is opened.
	Seed bool
}

type Event int

const (
	Press Event = iota + 1
	Release
	HistoryShortcut
	StyleCycleShortcut
)

func (e Event) String() string {
	switch e {
	case Press:
		return "press"
	case Release:
		return "release"
	case HistoryShortcut:
		return "history-shortcut"
	case StyleCycleShortcut:
		return "style-cycle-shortcut"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

type Mode int

const (
	Toggle Mode = iota
	Hold
)

func (m Mode) String() string {
	if m == Hold {
		return "hold"
	}
	return "toggle"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "toggle":
		return Toggle, nil
	case "hold", "hold-to-record", "hold_to_record":
		return Hold, nil
	}
	return Toggle, fmt.Errorf("invalid recording mode %q (use toggle or hold)", s)
}

// Config selects where hotkey events come from and how they are gated.
type Config struct {
	Source string // "evdev" or "socket"
	Key    uint16
	Mode   Mode
	Device string
}

// EffectiveMode is Toggle for lock keys whatever was requested, since they
// have no release.
func (c Config) EffectiveMode() Mode {
	if IsLockKey(c.Key) {
		return Toggle
	}
	return c.Mode
}

// Handler receives raw events from a Source. It runs on the source's read
// path and must return quickly.
type Handler func(RawEvent)
