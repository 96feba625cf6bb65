package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/hotkey"
)

func getKeyOptions(current string) []huh.Option[string] {
	var options []huh.Option[string]
	for _, name := range hotkey.KeyNames() {
		label := name
		if code, err := hotkey.ParseKey(name); err == nil && hotkey.IsLockKey(code) {
			label += " (toggle only)"
		}
		options = append(options, huh.NewOption(label, name).Selected(name == current))
	}
	return options
}

// editHotkey picks the dictation key, where it is read from, and the
// recording mode.
func editHotkey(cfg *config.Config) error {
	source := cfg.Hotkey.Source
	key := cfg.Hotkey.Key
	mode := cfg.Hotkey.Mode

	err := runForm(
		huh.NewSelect[string]().
			Title("Hotkey Source").
			Description("evdev reads the keyboard directly (needs the input group); socket waits for `hyprdictate press/release` binds").
			Options(
				huh.NewOption("Keyboard devices (evdev)", "evdev"),
				huh.NewOption("Compositor binds (socket)", "socket"),
			).
			Value(&source),
		huh.NewSelect[string]().
			Title("Dictation Key").
			Options(getKeyOptions(key)...).
			Filtering(true).
			Height(10).
			Value(&key),
	)
	if err != nil {
		return err
	}

	code, err := hotkey.ParseKey(key)
	if err != nil {
		return err
	}
	if hotkey.IsLockKey(code) {
		fmt.Println(StyleMuted.Render(fmt.Sprintf("%s has no release, recording mode is toggle.", key)))
		mode = hotkey.Toggle.String()
	} else {
		err := runForm(
			huh.NewSelect[string]().
				Title("Recording Mode").
				Options(
					huh.NewOption("Toggle: press to start, press again to stop", hotkey.Toggle.String()),
					huh.NewOption("Hold: record while the key is held", hotkey.Hold.String()),
				).
				Value(&mode),
		)
		if err != nil {
			return err
		}
	}

	cfg.Hotkey.Source = source
	cfg.Hotkey.Key = key
	cfg.Hotkey.Mode = mode
	return nil
}
