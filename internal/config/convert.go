package config

import (
	"os"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/hotkey"
	"github.com/leonardotrapani/hyprdictate/internal/injection"
	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/leonardotrapani/hyprdictate/internal/models"
	"github.com/leonardotrapani/hyprdictate/internal/notify"
	"github.com/leonardotrapani/hyprdictate/internal/pipeline"
	"github.com/leonardotrapani/hyprdictate/internal/recording"
	"github.com/leonardotrapani/hyprdictate/internal/transcriber"
	"github.com/mattn/go-shellwords"
)

func (c *Config) ToRecordingConfig() recording.Config {
	cfg := recording.DefaultConfig()
	cfg.Backend = c.Recording.Backend
	cfg.Command = c.Recording.Command
	cfg.Device = c.Recording.Device
	cfg.SampleRate = c.Recording.SampleRate
	cfg.BufferSize = c.Recording.BufferSize
	cfg.WindowSeconds = c.Recording.WindowSeconds
	cfg.TempDir = c.Recording.TempDir
	return cfg
}

func (c *Config) ToTranscriberConfig() transcriber.Config {
	cfg := transcriber.DefaultConfig()
	cfg.Engine = c.Transcription.Engine
	cfg.Language = c.Transcription.Language
	cfg.Threads = c.Transcription.Threads
	cfg.SampleRate = c.Recording.SampleRate
	cfg.ServerPort = c.Transcription.ServerPort
	cfg.ServerArgs = splitArgs(c.Transcription.ServerArgs)
	if c.Transcription.ServerBinary != "" {
		cfg.ServerBinary = c.Transcription.ServerBinary
	}
	if c.Transcription.CLIBinary != "" {
		cfg.CLIBinary = c.Transcription.CLIBinary
	}
	return cfg
}

func (c *Config) ToCorrectionConfig() llm.Config {
	cfg := llm.DefaultConfig()
	cfg.Backend = c.Correction.Backend
	cfg.Port = c.Correction.Port
	cfg.ContextSize = c.Correction.ContextSize
	cfg.GPULayers = c.Correction.GPULayers
	cfg.Threads = c.Correction.Threads
	cfg.ServerArgs = splitArgs(c.Correction.ServerArgs)
	cfg.HealthInterval = c.Correction.HealthInterval
	cfg.HealthAttempts = c.Correction.HealthAttempts
	cfg.Timeout = c.Correction.Timeout
	if c.Correction.Binary != "" {
		cfg.Binary = c.Correction.Binary
	}

	cfg.BaseURL = c.Correction.BaseURL
	cfg.Model = c.Correction.Model
	cfg.APIKey = c.resolveAPIKey()
	return cfg
}

// resolveAPIKey prefers correction.api_key over OPENAI_API_KEY.
func (c *Config) resolveAPIKey() string {
	if c.Correction.APIKey != "" {
		return c.Correction.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// Style is the configured writing style. Validate has already rejected
// unknown names, so an error here falls back to None.
func (c *Config) Style() llm.Style {
	style, err := llm.ParseStyle(c.Correction.Style, c.Correction.CustomPrompt)
	if err != nil {
		return llm.None
	}
	return style
}

func (c *Config) ToInjectionConfig() injection.Config {
	return injection.Config{
		Backends:         c.Injection.Backends,
		CopyToClipboard:  c.Injection.CopyToClipboard,
		RestoreClipboard: c.Injection.RestoreClipboard,
		TypeTimeout:      c.Injection.TypeTimeout,
		ClipboardTimeout: c.Injection.ClipboardTimeout,
		RestoreDelay:     c.Injection.RestoreDelay,
	}
}

func (c *Config) ToNotifyConfig() notify.Config {
	return notify.Config{
		Enabled:  c.Notifications.Enabled,
		Type:     c.Notifications.Type,
		Sound:    c.Notifications.Sound,
		Messages: c.Notifications.Messages,
	}
}

func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
	}
}

func (c *Config) ToHotkeyConfig() (hotkey.Config, error) {
	key, err := hotkey.ParseKey(c.Hotkey.Key)
	if err != nil {
		return hotkey.Config{}, err
	}
	mode, err := hotkey.ParseMode(c.Hotkey.Mode)
	if err != nil {
		return hotkey.Config{}, err
	}
	return hotkey.Config{
		Source: c.Hotkey.Source,
		Key:    key,
		Mode:   mode,
		Device: c.Hotkey.Device,
	}, nil
}

// ToPipelineConfig carries the settings the controller reads at the start
// of every session.
func (c *Config) ToPipelineConfig() pipeline.Config {
	mode := hotkey.Toggle
	if hk, err := c.ToHotkeyConfig(); err == nil {
		mode = hk.EffectiveMode()
	}
	return pipeline.Config{
		Mode:            mode,
		Correction:      c.Correction.Enabled,
		Style:           c.Style(),
		Preview:         c.Transcription.Preview,
		PreviewInterval: c.Transcription.PreviewInterval,
		PreviewWindow:   time.Duration(c.Transcription.PreviewSeconds) * time.Second,
		History:         c.History.Enabled,
	}
}

// WhisperModelPath resolves transcription.model under the models directory.
func (c *Config) WhisperModelPath() (string, error) {
	dir, err := c.ModelsDir()
	if err != nil {
		return "", err
	}
	return models.Path(dir, models.Whisper, c.Transcription.Model), nil
}

// LLMModelPath resolves correction.model for the llama-server backend.
// The openai backend takes the model name as is.
func (c *Config) LLMModelPath() (string, error) {
	if c.Correction.Backend == "openai" {
		return c.Correction.Model, nil
	}
	dir, err := c.ModelsDir()
	if err != nil {
		return "", err
	}
	return models.Path(dir, models.LLM, c.Correction.Model), nil
}

func splitArgs(s string) []string {
	args, err := shellwords.Parse(s)
	if err != nil {
		return nil
	}
	return args
}
