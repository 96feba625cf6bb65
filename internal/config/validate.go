package config

import (
	"fmt"
	"strings"

	"github.com/leonardotrapani/hyprdictate/internal/hotkey"
	"github.com/leonardotrapani/hyprdictate/internal/language"
	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/leonardotrapani/hyprdictate/internal/models"
	"github.com/leonardotrapani/hyprdictate/internal/notify"
	"github.com/mattn/go-shellwords"
)

// Validate returns the first invalid field it finds.
func (c *Config) Validate() error {
	// Hotkey
	switch c.Hotkey.Source {
	case "evdev", "socket":
	default:
		return fmt.Errorf("invalid hotkey.source: %q (must be evdev or socket)", c.Hotkey.Source)
	}
	if _, err := hotkey.ParseKey(c.Hotkey.Key); err != nil {
		return fmt.Errorf("invalid hotkey.key: %w", err)
	}
	if _, err := hotkey.ParseMode(c.Hotkey.Mode); err != nil {
		return fmt.Errorf("invalid hotkey.mode: %w", err)
	}

	// Recording
	switch c.Recording.Backend {
	case "pipewire", "ffmpeg":
	case "command":
		if strings.TrimSpace(c.Recording.Command) == "" {
			return fmt.Errorf("invalid recording.command: empty (required by the command backend)")
		}
	default:
		return fmt.Errorf("invalid recording.backend: %q (must be pipewire, ffmpeg or command)", c.Recording.Backend)
	}
	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.BufferSize <= 0 {
		return fmt.Errorf("invalid recording.buffer_size: %d", c.Recording.BufferSize)
	}
	if c.Recording.WindowSeconds <= 0 {
		return fmt.Errorf("invalid recording.window_seconds: %d", c.Recording.WindowSeconds)
	}

	// Transcription
	switch c.Transcription.Engine {
	case "whisper-server", "whisper-cli":
	default:
		return fmt.Errorf("invalid transcription.engine: %q (must be whisper-server or whisper-cli)", c.Transcription.Engine)
	}
	if c.Transcription.Model == "" {
		return fmt.Errorf("invalid transcription.model: empty")
	}
	if !language.IsValidCode(c.Transcription.Language) {
		return fmt.Errorf("invalid transcription.language: %s (use \"auto\" or an ISO-639-1 code like \"en\", \"es\", \"fr\")", c.Transcription.Language)
	}
	if err := validateModelLanguageCompatibility(c.Transcription.Model, c.Transcription.Language); err != nil {
		return err
	}
	if c.Transcription.Threads < 0 {
		return fmt.Errorf("invalid transcription.threads: %d", c.Transcription.Threads)
	}
	if c.Transcription.ServerPort <= 0 || c.Transcription.ServerPort > 65535 {
		return fmt.Errorf("invalid transcription.server_port: %d", c.Transcription.ServerPort)
	}
	if _, err := shellwords.Parse(c.Transcription.ServerArgs); err != nil {
		return fmt.Errorf("invalid transcription.server_args: %w", err)
	}
	if c.Transcription.Preview {
		if c.Transcription.PreviewInterval <= 0 {
			return fmt.Errorf("invalid transcription.preview_interval: %v", c.Transcription.PreviewInterval)
		}
		if c.Transcription.PreviewSeconds <= 0 || c.Transcription.PreviewSeconds > c.Recording.WindowSeconds {
			return fmt.Errorf("invalid transcription.preview_seconds: %d (must be between 1 and recording.window_seconds)", c.Transcription.PreviewSeconds)
		}
	}

	// Correction
	if _, err := llm.ParseStyle(c.Correction.Style, c.Correction.CustomPrompt); err != nil {
		return fmt.Errorf("invalid correction.style: %w", err)
	}
	switch c.Correction.Backend {
	case "llama-server":
		if c.Correction.Enabled && c.Correction.Model == "" {
			return fmt.Errorf("invalid correction.model: empty")
		}
		if c.Correction.Port <= 0 || c.Correction.Port > 65535 {
			return fmt.Errorf("invalid correction.port: %d", c.Correction.Port)
		}
		if c.Correction.Port == c.Transcription.ServerPort && c.Transcription.Engine == "whisper-server" {
			return fmt.Errorf("invalid correction.port: %d is already used by transcription.server_port", c.Correction.Port)
		}
	case "openai":
		if c.Correction.Enabled && c.Correction.BaseURL == "" {
			return fmt.Errorf("invalid correction.base_url: empty (required by the openai backend)")
		}
	default:
		return fmt.Errorf("invalid correction.backend: %q (must be llama-server or openai)", c.Correction.Backend)
	}
	if c.Correction.Timeout <= 0 {
		return fmt.Errorf("invalid correction.timeout: %v", c.Correction.Timeout)
	}
	if c.Correction.HealthInterval <= 0 {
		return fmt.Errorf("invalid correction.health_interval: %v", c.Correction.HealthInterval)
	}
	if c.Correction.HealthAttempts <= 0 {
		return fmt.Errorf("invalid correction.health_attempts: %d", c.Correction.HealthAttempts)
	}
	if _, err := shellwords.Parse(c.Correction.ServerArgs); err != nil {
		return fmt.Errorf("invalid correction.server_args: %w", err)
	}

	// Injection
	if len(c.Injection.Backends) == 0 {
		return fmt.Errorf("invalid injection.backends: empty")
	}
	validBackends := map[string]bool{"ydotool": true, "wtype": true, "clipboard": true}
	for _, b := range c.Injection.Backends {
		if !validBackends[b] {
			return fmt.Errorf("invalid injection.backends: unknown backend %q (must be ydotool, wtype or clipboard)", b)
		}
	}
	if c.Injection.TypeTimeout <= 0 {
		return fmt.Errorf("invalid injection.type_timeout: %v", c.Injection.TypeTimeout)
	}
	if c.Injection.ClipboardTimeout <= 0 {
		return fmt.Errorf("invalid injection.clipboard_timeout: %v", c.Injection.ClipboardTimeout)
	}

	// Notifications
	switch c.Notifications.Type {
	case "desktop", "log", "none":
	default:
		return fmt.Errorf("invalid notifications.type: %q (must be desktop, log or none)", c.Notifications.Type)
	}
	for key := range c.Notifications.Messages {
		if !notify.IsMessageKey(key) {
			return fmt.Errorf("invalid notifications.messages: unknown message %q", key)
		}
	}

	// History
	if c.History.MaxItems <= 0 {
		return fmt.Errorf("invalid history.max_items: %d", c.History.MaxItems)
	}

	// Logging
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid logging.format: %q (must be console or json)", c.Logging.Format)
	}

	return nil
}

// validateModelLanguageCompatibility rejects a fixed non-English language
// for an English-only whisper model. Unknown model ids are allowed.
func validateModelLanguageCompatibility(modelID, lang string) error {
	m, ok := models.Lookup(models.Whisper, modelID)
	if !ok {
		return nil
	}
	if !language.SupportedBy(m.Multilingual, lang) {
		return fmt.Errorf("model %s is English-only and cannot transcribe %q (use a multilingual model or language \"en\")", modelID, lang)
	}
	return nil
}
