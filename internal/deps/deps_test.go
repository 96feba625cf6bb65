package deps

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeBin puts an executable script called name on a fresh PATH.
func fakeBin(t *testing.T, name, script string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)
}

func TestCheck_Installed(t *testing.T) {
	fakeBin(t, "whisper-cli", `echo; echo "whisper.cpp 1.7.4" >&2`)

	status := Check(WhisperCli)
	if !status.Installed {
		t.Fatal("whisper-cli on PATH but Installed=false")
	}
	if filepath.Base(status.Path) != "whisper-cli" {
		t.Errorf("path = %s", status.Path)
	}
	if status.Version != "whisper.cpp 1.7.4" {
		t.Errorf("version = %q", status.Version)
	}
}

func TestCheck_VersionFailure(t *testing.T) {
	fakeBin(t, "ffmpeg", "exit 1")

	status := Check(FFmpeg)
	if !status.Installed || status.Version != "" {
		t.Errorf("status = %+v, want installed without version", status)
	}
}

func TestCheck_NotInstalled(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	status := Check(LlamaServer)
	if status.Installed {
		t.Error("expected Installed=false with an empty PATH")
	}
	if status.Path != "" {
		t.Error("expected empty path when not installed")
	}
}

func TestReport(t *testing.T) {
	fakeBin(t, "pw-record", "echo pw-record 1.2")

	tests := []struct {
		name        string
		needs       Needs
		wantMissing []string
	}{
		{
			name:        "defaults",
			needs:       Needs{Injection: []string{"ydotool", "wtype", "clipboard"}, Notifications: true},
			wantMissing: []string{"whisper-server", "ydotool", "wtype", "wl-copy", "notify-send"},
		},
		{
			name:        "cli engine with local correction",
			needs:       Needs{Capture: "ffmpeg", Engine: "whisper-cli", Correction: "llama-server", Sound: true},
			wantMissing: []string{"ffmpeg", "whisper-cli", "llama-server", "pw-play"},
		},
		{
			name:        "remote correction needs no server",
			needs:       Needs{Correction: "openai"},
			wantMissing: []string{"whisper-server"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Report(tt.needs)
			if len(report) != 10 {
				t.Fatalf("report has %d entries, want 10", len(report))
			}
			missing := Missing(report)
			if len(missing) != len(tt.wantMissing) {
				t.Fatalf("missing = %v, want %v", missing, tt.wantMissing)
			}
			for i, name := range tt.wantMissing {
				if missing[i].Name != name {
					t.Errorf("missing[%d] = %s, want %s", i, missing[i].Name, name)
				}
			}
		})
	}
}
