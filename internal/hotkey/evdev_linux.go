//go:build linux

package hotkey

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sync"

	"github.com/holoplot/go-evdev"
	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/rs/zerolog"
)

var ledKeys = map[evdev.EvCode]uint16{
	evdev.LED_CAPSL:   KeyCapsLock,
	evdev.LED_NUML:    KeyNumLock,
	evdev.LED_SCROLLL: KeyScrollLock,
}

// EvdevSource reads keyboards under /dev/input. The user needs read access
// to the event nodes, usually via the "input" group.
type EvdevSource struct {
	devicePath string
	log        zerolog.Logger

	mu      sync.Mutex
	mods    Modifier
	devices []*evdev.InputDevice
	wg      sync.WaitGroup
}

// NewEvdevSource reads from devicePath, or from every keyboard when it is
// empty.
func NewEvdevSource(devicePath string) *EvdevSource {
	return &EvdevSource{
		devicePath: devicePath,
		log:        logging.Component("hotkey"),
	}
}

// Start opens the devices and begins delivering events to h. Opening
// failures are reported here; read failures after that are logged.
func (s *EvdevSource) Start(ctx context.Context, h Handler) error {
	devices, err := s.open()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.devices = devices
	s.mu.Unlock()

	for _, dev := range devices {
		s.seedLocks(dev, h)
		s.wg.Add(1)
		go s.read(ctx, dev, h)
	}

	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return nil
}

// Close releases every device and waits for the readers to exit.
func (s *EvdevSource) Close() error {
	s.mu.Lock()
	devices := s.devices
	s.devices = nil
	s.mu.Unlock()

	for _, dev := range devices {
		dev.Close()
	}
	s.wg.Wait()
	return nil
}

func (s *EvdevSource) open() ([]*evdev.InputDevice, error) {
	if s.devicePath != "" {
		dev, err := evdev.Open(s.devicePath)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil, fmt.Errorf("%w: %s (add your user to the input group)", ErrPermissionDenied, s.devicePath)
			}
			return nil, fmt.Errorf("failed to open %s: %w", s.devicePath, err)
		}
		return []*evdev.InputDevice{dev}, nil
	}

	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}

	var (
		devices []*evdev.InputDevice
		denied  int
	)
	for _, p := range paths {
		dev, err := evdev.Open(p.Path)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				denied++
			}
			continue
		}
		if !isKeyboard(dev) {
			dev.Close()
			continue
		}
		s.log.Info().Str("device", p.Path).Str("name", p.Name).Msg("listening for hotkeys")
		devices = append(devices, dev)
	}

	if len(devices) == 0 {
		if denied > 0 {
			return nil, fmt.Errorf("%w: %d devices under /dev/input (add your user to the input group)", ErrPermissionDenied, denied)
		}
		return nil, ErrNoKeyboard
	}
	return devices, nil
}

func isKeyboard(dev *evdev.InputDevice) bool {
	if !slices.Contains(dev.CapableTypes(), evdev.EV_KEY) {
		return false
	}
	keys := dev.CapableEvents(evdev.EV_KEY)
	return slices.Contains(keys, evdev.KEY_A) && slices.Contains(keys, evdev.KEY_Z)
}

func (s *EvdevSource) seedLocks(dev *evdev.InputDevice, h Handler) {
	state, err := dev.State(evdev.EV_LED)
	if err != nil {
		return
	}
	for led, key := range ledKeys {
		if on, ok := state[led]; ok {
			h(RawEvent{Code: key, Kind: LockState, Locked: on, Seed: true})
		}
	}
}

func (s *EvdevSource) read(ctx context.Context, dev *evdev.InputDevice, h Handler) {
	defer s.wg.Done()

	for {
		ev, err := dev.ReadOne()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn().Err(err).Msg("input device read failed, dropping device")
			}
			return
		}

		switch ev.Type {
		case evdev.EV_KEY:
			h(s.keyEvent(uint16(ev.Code), ev.Value))
		case evdev.EV_LED:
			if key, ok := ledKeys[ev.Code]; ok {
				h(RawEvent{Code: key, Kind: LockState, Locked: ev.Value != 0, Modifiers: s.modifiers()})
			}
		}
	}
}

func (s *EvdevSource) keyEvent(code uint16, value int32) RawEvent {
	kind := KeyDown
	switch value {
	case 0:
		kind = KeyUp
	case 2:
		kind = KeyRepeat
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if m := modifierFor(code); m != 0 {
		switch kind {
		case KeyDown:
			s.mods |= m
		case KeyUp:
			s.mods &^= m
		}
	}
	return RawEvent{Code: code, Kind: kind, Modifiers: s.mods}
}

func (s *EvdevSource) modifiers() Modifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mods
}
