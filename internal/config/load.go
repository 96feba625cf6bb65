package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/leonardotrapani/hyprdictate/internal/models"
)

var ErrConfigNotFound = errors.New("config not found")

const appDir = "hyprdictate"

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, appDir, "config.toml"), nil
}

// Load reads the config file at the default path. A missing file is not an
// error: the defaults are returned instead.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(configPath)
	if errors.Is(err, ErrConfigNotFound) {
		log := logging.Component("config")
		log.Info().Str("path", configPath).Msg("no config file, using defaults")
		return DefaultConfig(), nil
	}
	return cfg, err
}

// LoadFile decodes path on top of DefaultConfig.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s (run hyprdictate configure)", ErrConfigNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		log := logging.Component("config")
		log.Warn().Str("path", path).Strs("keys", keys).Msg("ignoring unknown config keys")
	}
	return cfg, nil
}

// Save writes cfg to the default path, creating the directory if needed.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(configPath, cfg)
}

// SaveFile replaces path atomically so a watching daemon never reads a
// half-written file.
func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# hyprdictate configuration\n# Changes are picked up by a running daemon without a restart.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// ModelsDir resolves general.models_dir.
func (c *Config) ModelsDir() (string, error) {
	if c.General.ModelsDir != "" {
		return expandHome(c.General.ModelsDir)
	}
	return models.DefaultDir()
}

// DataDir resolves general.data_dir, defaulting to
// $XDG_DATA_HOME/hyprdictate.
func (c *Config) DataDir() (string, error) {
	if c.General.DataDir != "" {
		return expandHome(c.General.DataDir)
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appDir), nil
}

// HistoryPath is the sqlite file inside the data directory.
func (c *Config) HistoryPath() (string, error) {
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

func expandHome(p string) (string, error) {
	if p == "~" || len(p) > 1 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
