package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/deps"
)

func TestFormatStatus(t *testing.T) {
	fields := map[string]string{
		"preview":    "hello wor",
		"state":      "recording",
		"zeta":       "1",
		"style":      "casual",
		"correction": "true",
	}
	lines := formatStatus(fields)
	if len(lines) != len(fields) {
		t.Fatalf("got %d lines, want %d", len(lines), len(fields))
	}

	wantOrder := []string{"state", "style", "correction", "preview", "zeta"}
	for i, key := range wantOrder {
		if !strings.Contains(lines[i], key) || !strings.HasSuffix(lines[i], fields[key]) {
			t.Errorf("line %d = %q, want %s", i, lines[i], key)
		}
	}
}

func TestNeedsFor(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		want   deps.Needs
	}{
		{
			name:   "defaults",
			modify: func(*config.Config) {},
			want: deps.Needs{
				Capture:       "pipewire",
				Engine:        "whisper-server",
				Injection:     []string{"ydotool", "wtype", "clipboard"},
				Notifications: true,
				Sound:         true,
			},
		},
		{
			name: "correction and log notifications",
			modify: func(c *config.Config) {
				c.Correction.Enabled = true
				c.Notifications.Type = "log"
				c.Notifications.Sound = false
				c.Injection.Backends = []string{"wtype"}
			},
			want: deps.Needs{
				Capture:    "pipewire",
				Engine:     "whisper-server",
				Correction: "llama-server",
				Injection:  []string{"wtype"},
			},
		},
		{
			name: "notifications disabled",
			modify: func(c *config.Config) {
				c.Notifications.Enabled = false
			},
			want: deps.Needs{
				Capture:   "pipewire",
				Engine:    "whisper-server",
				Injection: []string{"ydotool", "wtype", "clipboard"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)
			if got := needsFor(cfg); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("needsFor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	old := configPath
	defer func() { configPath = old }()

	configPath = filepath.Join(dir, "config.toml")
	cfg, path, found, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() missing file error = %v", err)
	}
	if found || path != configPath {
		t.Errorf("loadConfig() found = %v, path = %s", found, path)
	}
	if cfg.Hotkey.Key != "capslock" {
		t.Errorf("missing file did not return defaults: %+v", cfg.Hotkey)
	}

	content := "[hotkey]\nkey = \"f9\"\nmode = \"hold\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, found, err = loadConfig()
	if err != nil || !found {
		t.Fatalf("loadConfig() = found %v, err %v", found, err)
	}
	if cfg.Hotkey.Key != "f9" || cfg.Hotkey.Mode != "hold" {
		t.Errorf("hotkey = %+v", cfg.Hotkey)
	}

	if err := os.WriteFile(configPath, []byte("[hotkey\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := loadConfig(); err == nil {
		t.Error("loadConfig() accepted a broken file")
	}
}

func TestFormatDepLine(t *testing.T) {
	installed := deps.Status{Binary: deps.Ydotool, Installed: true, Path: "/usr/bin/ydotool", Version: "1.0.4"}
	if line := formatDepLine(installed); !strings.Contains(line, "/usr/bin/ydotool") || !strings.Contains(line, "1.0.4") {
		t.Errorf("installed line = %q", line)
	}

	missing := deps.Status{Binary: deps.WhisperServer, Required: true}
	if line := formatDepLine(missing); !strings.Contains(line, "missing") {
		t.Errorf("missing line = %q", line)
	}

	optional := deps.Status{Binary: deps.FFmpeg}
	if line := formatDepLine(optional); !strings.Contains(line, "not installed") {
		t.Errorf("optional line = %q", line)
	}
}
