package tui

import (
	"fmt"

	"github.com/leonardotrapani/hyprdictate/internal/config"
)

// runFreshInstall walks through every section once, in order.
func runFreshInstall(cfg *config.Config) (*ConfigureResult, error) {
	clearScreen()
	fmt.Println(Logo())
	fmt.Println()
	fmt.Println(StyleSubtle.Render("Local voice dictation for Wayland. Press esc at any step to cancel."))
	fmt.Println()

	steps := []func(*config.Config) error{
		editHotkey,
		editTranscription,
		editLanguage,
		editCorrection,
		editNotifications,
	}
	for _, step := range steps {
		if err := step(cfg); err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}
	}

	confirmed, err := showSummary(cfg)
	if err != nil || !confirmed {
		return &ConfigureResult{Cancelled: true}, nil
	}
	return &ConfigureResult{Config: cfg}, nil
}
