package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/notify"
)

func editNotifications(cfg *config.Config) error {
	n := cfg.Notifications
	customize := false

	err := runForm(
		huh.NewConfirm().
			Title("Show notifications?").
			Description("Recording, transcription, style and error feedback").
			Value(&n.Enabled),
	)
	if err != nil {
		return err
	}
	if !n.Enabled {
		cfg.Notifications.Enabled = false
		return nil
	}

	err = runForm(
		huh.NewSelect[string]().
			Title("Notification Type").
			Options(
				huh.NewOption("Desktop (notify-send)", "desktop"),
				huh.NewOption("Log only", "log"),
			).
			Value(&n.Type),
		huh.NewConfirm().
			Title("Play a sound when recording starts?").
			Value(&n.Sound),
		huh.NewConfirm().
			Title("Customize notification messages?").
			Value(&customize),
	)
	if err != nil {
		return err
	}

	if customize {
		if n.Messages, err = editNotificationMessages(n.Messages); err != nil {
			return err
		}
	}

	cfg.Notifications = n
	return nil
}

// messageKeys is the sorted list of configurable message keys.
func messageKeys() []string {
	defaults := notify.DefaultMessages().Body
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func getMessageOptions(custom map[string]string) []huh.Option[string] {
	current := notify.DefaultMessages().With(custom).Body
	var options []huh.Option[string]
	for _, key := range messageKeys() {
		body := current[key]
		if len(body) > 30 {
			body = body[:30] + "..."
		}
		options = append(options, huh.NewOption(fmt.Sprintf("%s: %q", key, body), key))
	}
	return append(options, huh.NewOption("Back", "back"))
}

// editNotificationMessages returns a copy of custom with the edited bodies.
// An emptied body falls back to the default.
func editNotificationMessages(custom map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(custom))
	for k, v := range custom {
		out[k] = v
	}

	defaults := notify.DefaultMessages().Body
	for {
		var key string
		err := runForm(
			huh.NewSelect[string]().
				Title("Notification Messages").
				Description("%s is replaced by the event detail").
				Options(getMessageOptions(out)...).
				Value(&key),
		)
		if err != nil {
			return nil, err
		}
		if key == "back" {
			return out, nil
		}

		body := out[key]
		err = runForm(
			huh.NewInput().
				Title(key).
				Description(fmt.Sprintf("Default: %s", defaults[key])).
				Placeholder(defaults[key]).
				Value(&body),
		)
		if err != nil {
			continue
		}
		if body == "" || body == defaults[key] {
			delete(out, key)
		} else {
			out[key] = body
		}
	}
}
