// Package notify tells the user what the daemon is doing: desktop
// notifications, log lines, and short sound cues.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/logging"
)

type MessageType int

const (
	RecordingStarted MessageType = iota
	RecordingEnded
	Transcribing
	Injected
	StyleChanged
	CorrectionUnavailable
	HistoryShown
	Error
)

func (m MessageType) key() string {
	switch m {
	case RecordingStarted:
		return "recording_started"
	case RecordingEnded:
		return "recording_ended"
	case Transcribing:
		return "transcribing"
	case Injected:
		return "injected"
	case StyleChanged:
		return "style_changed"
	case CorrectionUnavailable:
		return "correction_unavailable"
	case HistoryShown:
		return "history"
	default:
		return "error"
	}
}

// Messages holds the text for each notification. Body may contain one %s,
// filled with the detail passed to Send.
type Messages struct {
	Title string
	Body  map[string]string
}

func DefaultMessages() Messages {
	return Messages{
		Title: "Hyprdictate",
		Body: map[string]string{
			"recording_started":      "Recording started",
			"recording_ended":        "Recording stopped",
			"transcribing":           "Transcribing...",
			"injected":               "%s",
			"style_changed":          "Writing style: %s",
			"correction_unavailable": "Correction unavailable, using raw transcription",
			"history":                "%s",
			"error":                  "Error: %s",
		},
	}
}

// With overrides the default bodies with any non-empty entries of custom.
func (m Messages) With(custom map[string]string) Messages {
	body := make(map[string]string, len(m.Body))
	for k, v := range m.Body {
		body[k] = v
	}
	for k, v := range custom {
		if v != "" {
			body[k] = v
		}
	}
	return Messages{Title: m.Title, Body: body}
}

// IsMessageKey reports whether key names a configurable message.
func IsMessageKey(key string) bool {
	_, ok := DefaultMessages().Body[key]
	return ok
}

func (m Messages) render(t MessageType, detail string) string {
	body, ok := m.Body[t.key()]
	if !ok {
		body = DefaultMessages().Body[t.key()]
	}
	if strings.Contains(body, "%s") {
		return fmt.Sprintf(body, detail)
	}
	return body
}

type Notifier interface {
	Send(t MessageType, detail string)
}

type Config struct {
	Enabled  bool
	Type     string // "desktop", "log" or "none"
	Sound    bool
	Messages map[string]string
}

// New builds the notifier described by cfg, wrapped with sound cues when
// enabled.
func New(cfg Config) (Notifier, error) {
	msgs := DefaultMessages().With(cfg.Messages)

	var n Notifier
	switch {
	case !cfg.Enabled, cfg.Type == "none":
		n = Nop{}
	case cfg.Type == "" || cfg.Type == "desktop":
		n = &Desktop{Messages: msgs, run: runCommand}
	case cfg.Type == "log":
		n = &Log{Messages: msgs}
	default:
		return nil, fmt.Errorf("unsupported notification type: %s", cfg.Type)
	}

	if cfg.Sound {
		n = &Sound{Next: n, run: runCommand}
	}
	return n, nil
}

type commandFunc func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

type Desktop struct {
	Messages Messages
	run      commandFunc
}

func (d *Desktop) Send(t MessageType, detail string) {
	args := []string{"-a", d.Messages.Title}
	switch t {
	case Error:
		args = append(args, "-u", "critical")
	case RecordingStarted, RecordingEnded, Transcribing, StyleChanged:
		// replace the previous status bubble instead of stacking them
		args = append(args, "-h", "string:x-canonical-private-synchronous:hyprdictate", "-t", "2000")
	}
	args = append(args, d.Messages.Title, d.Messages.render(t, detail))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := d.run(ctx, "notify-send", args...); err != nil {
		log := logging.Component("notify")
		log.Warn().Err(err).Msg("failed to send notification")
	}
}

type Log struct {
	Messages Messages
}

func (l *Log) Send(t MessageType, detail string) {
	log := logging.Component("notify")
	ev := log.Info()
	if t == Error {
		ev = log.Error()
	}
	ev.Str("type", t.key()).Msg(l.Messages.render(t, detail))
}

// Nop drops every message.
type Nop struct{}

func (Nop) Send(MessageType, string) {}
