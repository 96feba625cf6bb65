package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/hyprdictate/internal/config"
)

type AdvancedSection string

const (
	AdvancedRecording AdvancedSection = "recording"
	AdvancedInjection AdvancedSection = "injection"
	AdvancedHistory   AdvancedSection = "history"
	AdvancedBack      AdvancedSection = "back"
)

// editAdvanced handles the advanced settings submenu
func editAdvanced(cfg *config.Config) error {
	for {
		var selected AdvancedSection
		err := runForm(
			huh.NewSelect[AdvancedSection]().
				Title("Advanced Settings").
				Description("Configure low-level options").
				Options(
					huh.NewOption(formatAdvancedRecordingLabel(cfg), AdvancedRecording),
					huh.NewOption(formatAdvancedInjectionLabel(cfg), AdvancedInjection),
					huh.NewOption(formatAdvancedHistoryLabel(cfg), AdvancedHistory),
					huh.NewOption("Back to Main Menu", AdvancedBack),
				).
				Value(&selected),
		)
		if err != nil {
			return err
		}

		switch selected {
		case AdvancedBack:
			return nil
		case AdvancedRecording:
			_ = editRecording(cfg)
		case AdvancedInjection:
			_ = editInjection(cfg)
		case AdvancedHistory:
			_ = editHistory(cfg)
		}
	}
}

func formatAdvancedRecordingLabel(cfg *config.Config) string {
	device := cfg.Recording.Device
	if device == "" {
		device = "default"
	}
	return fmt.Sprintf("Recording (%s, device=%s)", cfg.Recording.Backend, device)
}

func formatAdvancedInjectionLabel(cfg *config.Config) string {
	return fmt.Sprintf("Injection (%s)", strings.Join(cfg.Injection.Backends, " -> "))
}

func formatAdvancedHistoryLabel(cfg *config.Config) string {
	if !cfg.History.Enabled {
		return "History (disabled)"
	}
	return fmt.Sprintf("History (%d items)", cfg.History.MaxItems)
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration format (use '500ms', '3s', etc.)")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func editRecording(cfg *config.Config) error {
	r := cfg.Recording
	t := cfg.Transcription
	sampleRate := strconv.Itoa(r.SampleRate)
	window := strconv.Itoa(r.WindowSeconds)
	previewInterval := t.PreviewInterval.String()
	previewSeconds := strconv.Itoa(t.PreviewSeconds)

	err := runForm(
		huh.NewSelect[string]().
			Title("Capture Backend").
			Options(
				huh.NewOption("pw-record (PipeWire) - Recommended", "pipewire"),
				huh.NewOption("ffmpeg (PulseAudio)", "ffmpeg"),
				huh.NewOption("Custom command", "command"),
			).
			Value(&r.Backend),
		huh.NewInput().
			Title("Device").
			Description("Capture device name. Empty = default microphone.").
			Placeholder("(default)").
			Value(&r.Device),
		huh.NewInput().
			Title("Sample Rate (Hz)").
			Description("16000 is what whisper expects").
			Placeholder("16000").
			Value(&sampleRate).
			Validate(validatePositiveInt),
	)
	if err != nil {
		return err
	}

	if r.Backend == "command" {
		err = runForm(
			huh.NewInput().
				Title("Capture Command").
				Description("Must write raw f32le mono to stdout. {rate} is replaced by the sample rate.").
				Value(&r.Command).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("command cannot be empty")
					}
					return nil
				}),
		)
		if err != nil {
			return err
		}
	}

	err = runForm(
		huh.NewInput().
			Title("Preview Window (seconds)").
			Description("Audio kept in memory for live preview").
			Value(&window).
			Validate(validatePositiveInt),
		huh.NewInput().
			Title("Preview Interval").
			Description("How often the preview is refreshed").
			Value(&previewInterval).
			Validate(validateDuration),
		huh.NewInput().
			Title("Preview Length (seconds)").
			Description("Trailing audio transcribed for each preview").
			Value(&previewSeconds).
			Validate(validatePositiveInt),
	)
	if err != nil {
		return err
	}

	r.SampleRate, _ = strconv.Atoi(sampleRate)
	r.WindowSeconds, _ = strconv.Atoi(window)
	t.PreviewInterval, _ = time.ParseDuration(previewInterval)
	t.PreviewSeconds, _ = strconv.Atoi(previewSeconds)
	if t.PreviewSeconds > r.WindowSeconds {
		t.PreviewSeconds = r.WindowSeconds
	}

	cfg.Recording = r
	cfg.Transcription = t
	return nil
}

// orderBackends keeps the fallback order of current for the selected
// backends and appends newly selected ones.
func orderBackends(current, selected []string) []string {
	chosen := make(map[string]bool, len(selected))
	for _, b := range selected {
		chosen[b] = true
	}
	var out []string
	for _, b := range current {
		if chosen[b] {
			out = append(out, b)
			delete(chosen, b)
		}
	}
	for _, b := range selected {
		if chosen[b] {
			out = append(out, b)
		}
	}
	return out
}

func editInjection(cfg *config.Config) error {
	inj := cfg.Injection
	selected := append([]string(nil), inj.Backends...)
	typeTimeout := inj.TypeTimeout.String()
	clipboardTimeout := inj.ClipboardTimeout.String()

	has := func(b string) bool {
		for _, s := range inj.Backends {
			if s == b {
				return true
			}
		}
		return false
	}

	err := runForm(
		huh.NewMultiSelect[string]().
			Title("Injection Backends").
			Description("Tried in order until one succeeds").
			Options(
				huh.NewOption("ydotool (types into any window)", "ydotool").Selected(has("ydotool")),
				huh.NewOption("wtype (Wayland virtual keyboard)", "wtype").Selected(has("wtype")),
				huh.NewOption("clipboard (wl-copy, paste yourself)", "clipboard").Selected(has("clipboard")),
			).
			Value(&selected).
			Validate(func(s []string) error {
				if len(s) == 0 {
					return fmt.Errorf("select at least one backend")
				}
				return nil
			}),
		huh.NewConfirm().
			Title("Also copy every dictation to the clipboard?").
			Value(&inj.CopyToClipboard),
		huh.NewConfirm().
			Title("Restore the previous clipboard after pasting?").
			Value(&inj.RestoreClipboard),
		huh.NewInput().
			Title("Typing Timeout").
			Value(&typeTimeout).
			Validate(validateDuration),
		huh.NewInput().
			Title("Clipboard Timeout").
			Value(&clipboardTimeout).
			Validate(validateDuration),
	)
	if err != nil {
		return err
	}

	inj.Backends = orderBackends(cfg.Injection.Backends, selected)
	inj.TypeTimeout, _ = time.ParseDuration(typeTimeout)
	inj.ClipboardTimeout, _ = time.ParseDuration(clipboardTimeout)
	cfg.Injection = inj
	return nil
}

func editHistory(cfg *config.Config) error {
	h := cfg.History
	maxItems := strconv.Itoa(h.MaxItems)

	err := runForm(
		huh.NewConfirm().
			Title("Keep a history of dictations?").
			Description("Stored locally, shown with Super+Shift+H").
			Value(&h.Enabled),
		huh.NewInput().
			Title("Maximum Entries").
			Value(&maxItems).
			Validate(validatePositiveInt),
	)
	if err != nil {
		return err
	}

	h.MaxItems, _ = strconv.Atoi(maxItems)
	cfg.History = h
	return nil
}
