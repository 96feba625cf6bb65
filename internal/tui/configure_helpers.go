package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/language"
)

func formatHotkeyLabel(cfg *config.Config) string {
	return fmt.Sprintf("Hotkey (%s, %s via %s)", cfg.Hotkey.Key, cfg.Hotkey.Mode, cfg.Hotkey.Source)
}

func formatTranscriptionLabel(cfg *config.Config) string {
	return fmt.Sprintf("Transcription (%s, %s)", cfg.Transcription.Engine, cfg.Transcription.Model)
}

func formatLanguageLabel(cfg *config.Config) string {
	return fmt.Sprintf("Language (%s)", language.FromCode(cfg.Transcription.Language).Name)
}

func formatCorrectionLabel(cfg *config.Config) string {
	if !cfg.Correction.Enabled {
		return "Correction (disabled)"
	}
	return fmt.Sprintf("Correction (%s, %s)", cfg.Correction.Backend, cfg.Style().DisplayName())
}

func formatNotificationsLabel(cfg *config.Config) string {
	if !cfg.Notifications.Enabled {
		return "Notifications (disabled)"
	}
	return fmt.Sprintf("Notifications (%s)", cfg.Notifications.Type)
}

// summaryLines renders one "Label: value" line per section.
func summaryLines(cfg *config.Config) []string {
	line := func(label, value string) string {
		return fmt.Sprintf("  %s %s", StyleLabel.Render(label+":"), value)
	}

	lines := []string{
		line("Hotkey", fmt.Sprintf("%s (%s, %s)", cfg.Hotkey.Key, cfg.Hotkey.Mode, cfg.Hotkey.Source)),
		line("Recording", cfg.Recording.Backend),
		line("Transcription", fmt.Sprintf("%s (%s)", cfg.Transcription.Engine, cfg.Transcription.Model)),
		line("Language", language.FromCode(cfg.Transcription.Language).Name),
	}
	if cfg.Transcription.Preview {
		lines = append(lines, line("Preview", fmt.Sprintf("every %s", cfg.Transcription.PreviewInterval)))
	} else {
		lines = append(lines, line("Preview", "disabled"))
	}

	if cfg.Correction.Enabled {
		backend := cfg.Correction.Backend
		if backend == "openai" {
			backend = fmt.Sprintf("%s at %s, key %s", backend, cfg.Correction.BaseURL, maskAPIKey(cfg.Correction.APIKey))
		}
		lines = append(lines,
			line("Correction", fmt.Sprintf("%s (%s)", backend, cfg.Correction.Model)),
			line("Style", cfg.Style().DisplayName()),
		)
	} else {
		lines = append(lines, line("Correction", "disabled"))
	}

	lines = append(lines, line("Injection", strings.Join(cfg.Injection.Backends, " -> ")))

	if cfg.Notifications.Enabled {
		lines = append(lines, line("Notifications", cfg.Notifications.Type))
	} else {
		lines = append(lines, line("Notifications", "disabled"))
	}
	if cfg.History.Enabled {
		lines = append(lines, line("History", fmt.Sprintf("last %d", cfg.History.MaxItems)))
	} else {
		lines = append(lines, line("History", "disabled"))
	}
	return lines
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()
	for _, l := range summaryLines(cfg) {
		fmt.Println(l)
	}
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		fmt.Println(StyleError.Render(fmt.Sprintf("Configuration is invalid: %v", err)))
		return false, nil
	}

	var confirmed bool
	err := runForm(
		huh.NewConfirm().
			Title("Save this configuration?").
			Affirmative("Save").
			Negative("Cancel").
			Value(&confirmed),
	)
	if err != nil {
		return false, err
	}
	return confirmed, nil
}
