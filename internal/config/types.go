package config

import "time"

type Config struct {
	General       GeneralConfig       `toml:"general"`
	Hotkey        HotkeyConfig        `toml:"hotkey"`
	Recording     RecordingConfig     `toml:"recording"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Correction    CorrectionConfig    `toml:"correction"`
	Injection     InjectionConfig     `toml:"injection"`
	Notifications NotificationsConfig `toml:"notifications"`
	History       HistoryConfig       `toml:"history"`
	Logging       LoggingConfig       `toml:"logging"`
}

// GeneralConfig holds the directories shared by several components. Empty
// values resolve to the XDG defaults.
type GeneralConfig struct {
	ModelsDir string `toml:"models_dir"`
	DataDir   string `toml:"data_dir"`
}

type HotkeyConfig struct {
	Source string `toml:"source"` // "evdev" or "socket"
	Key    string `toml:"key"`
	Mode   string `toml:"mode"` // "toggle" or "hold"
	Device string `toml:"device"`
}

type RecordingConfig struct {
	Backend       string `toml:"backend"` // "pipewire", "ffmpeg" or "command"
	Command       string `toml:"command"`
	Device        string `toml:"device"`
	SampleRate    int    `toml:"sample_rate"`
	BufferSize    int    `toml:"buffer_size"`
	WindowSeconds int    `toml:"window_seconds"`
	TempDir       string `toml:"temp_dir"`
}

type TranscriptionConfig struct {
	Engine       string `toml:"engine"` // "whisper-server" or "whisper-cli"
	Model        string `toml:"model"`
	Language     string `toml:"language"`
	Threads      int    `toml:"threads"`
	ServerBinary string `toml:"server_binary"`
	ServerPort   int    `toml:"server_port"`
	ServerArgs   string `toml:"server_args"`
	CLIBinary    string `toml:"cli_binary"`

	Preview         bool          `toml:"preview"`
	PreviewInterval time.Duration `toml:"preview_interval"`
	PreviewSeconds  int           `toml:"preview_seconds"`
}

type CorrectionConfig struct {
	Enabled      bool   `toml:"enabled"`
	Backend      string `toml:"backend"` // "llama-server" or "openai"
	Model        string `toml:"model"`
	Style        string `toml:"style"`
	CustomPrompt string `toml:"custom_prompt"`

	Binary         string        `toml:"binary"`
	Port           int           `toml:"port"`
	ContextSize    int           `toml:"context_size"`
	GPULayers      int           `toml:"gpu_layers"`
	Threads        int           `toml:"threads"`
	Timeout        time.Duration `toml:"timeout"`
	HealthInterval time.Duration `toml:"health_interval"`
	HealthAttempts int           `toml:"health_attempts"`
	ServerArgs     string        `toml:"server_args"`

	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"` // falls back to OPENAI_API_KEY
}

type InjectionConfig struct {
	Backends         []string      `toml:"backends"`
	CopyToClipboard  bool          `toml:"copy_to_clipboard"`
	RestoreClipboard bool          `toml:"restore_clipboard"`
	TypeTimeout      time.Duration `toml:"type_timeout"`
	ClipboardTimeout time.Duration `toml:"clipboard_timeout"`
	RestoreDelay     time.Duration `toml:"restore_delay"`
}

type NotificationsConfig struct {
	Enabled  bool              `toml:"enabled"`
	Type     string            `toml:"type"` // "desktop", "log", "none"
	Sound    bool              `toml:"sound"`
	Messages map[string]string `toml:"messages"`
}

type HistoryConfig struct {
	Enabled  bool `toml:"enabled"`
	MaxItems int  `toml:"max_items"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// clone copies c deeply enough that callers can mutate the result.
func (c *Config) clone() *Config {
	out := *c
	out.Injection.Backends = append([]string(nil), c.Injection.Backends...)
	if c.Notifications.Messages != nil {
		out.Notifications.Messages = make(map[string]string, len(c.Notifications.Messages))
		for k, v := range c.Notifications.Messages {
			out.Notifications.Messages[k] = v
		}
	}
	return &out
}
