package config

import (
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/history"
	"github.com/leonardotrapani/hyprdictate/internal/models"
)

// DefaultConfig returns the configuration used when no file exists. Load
// decodes the file on top of it, so omitted keys keep these values.
func DefaultConfig() *Config {
	return &Config{
		Hotkey: HotkeyConfig{
			Source: "evdev",
			Key:    "capslock",
			Mode:   "toggle",
		},
		Recording: RecordingConfig{
			Backend:       "pipewire",
			SampleRate:    16000,
			BufferSize:    6400,
			WindowSeconds: 10,
		},
		Transcription: TranscriptionConfig{
			Engine:          "whisper-server",
			Model:           models.DefaultWhisper,
			Language:        "auto",
			Threads:         4,
			ServerBinary:    "whisper-server",
			ServerPort:      8766,
			CLIBinary:       "whisper-cli",
			Preview:         true,
			PreviewInterval: time.Second,
			PreviewSeconds:  5,
		},
		Correction: CorrectionConfig{
			Enabled:        false,
			Backend:        "llama-server",
			Model:          models.DefaultLLM,
			Style:          "none",
			Binary:         "llama-server",
			Port:           8765,
			ContextSize:    2048,
			GPULayers:      99,
			Threads:        4,
			Timeout:        30 * time.Second,
			HealthInterval: 500 * time.Millisecond,
			HealthAttempts: 30,
		},
		Injection: InjectionConfig{
			Backends:         []string{"ydotool", "wtype", "clipboard"},
			RestoreClipboard: true,
			TypeTimeout:      5 * time.Second,
			ClipboardTimeout: 3 * time.Second,
			RestoreDelay:     100 * time.Millisecond,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
			Sound:   true,
		},
		History: HistoryConfig{
			Enabled:  true,
			MaxItems: history.DefaultMaxItems,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}
