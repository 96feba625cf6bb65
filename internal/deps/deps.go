// Package deps reports which external programs the daemon can find.
package deps

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 2 * time.Second

// Binary is an external program the daemon may run.
type Binary struct {
	Name        string
	Purpose     string
	VersionArgs []string
}

var (
	PwRecord      = Binary{"pw-record", "PipeWire audio capture", []string{"--version"}}
	FFmpeg        = Binary{"ffmpeg", "ffmpeg audio capture", []string{"-version"}}
	WhisperServer = Binary{"whisper-server", "whisper.cpp transcription server", []string{"--version"}}
	WhisperCli    = Binary{"whisper-cli", "whisper.cpp command line transcription", []string{"--version"}}
	LlamaServer   = Binary{"llama-server", "llama.cpp correction server", []string{"--version"}}
	Ydotool       = Binary{"ydotool", "text injection (uinput)", nil}
	Wtype         = Binary{"wtype", "text injection (Wayland)", nil}
	WlCopy        = Binary{"wl-copy", "clipboard injection", []string{"--version"}}
	NotifySend    = Binary{"notify-send", "desktop notifications", []string{"--version"}}
	PwPlay        = Binary{"pw-play", "sound cues", []string{"--version"}}
)

// Status represents the installation status of a dependency
type Status struct {
	Binary
	Required  bool
	Installed bool
	Path      string
	Version   string
}

// Check looks name up on PATH and asks it for a version.
func Check(b Binary) Status {
	status := Status{Binary: b}
	path, err := exec.LookPath(b.Name)
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	if len(b.VersionArgs) == 0 {
		return status
	}
	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()
	// several tools print their version on stderr
	output, err := exec.CommandContext(ctx, path, b.VersionArgs...).CombinedOutput()
	if err == nil {
		status.Version = firstLine(string(output))
	}
	return status
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Needs describes which backends a configuration selects.
type Needs struct {
	Capture       string // "pipewire", "ffmpeg" or "command"
	Engine        string // "whisper-server" or "whisper-cli"
	Correction    string // "llama-server", "openai" or "" when disabled
	Injection     []string
	Notifications bool
	Sound         bool
}

// Report checks every known binary and marks the ones needs depends on.
func Report(needs Needs) []Status {
	required := map[string]bool{}
	switch needs.Capture {
	case "", "pipewire":
		required[PwRecord.Name] = true
	case "ffmpeg":
		required[FFmpeg.Name] = true
	}
	switch needs.Engine {
	case "", "whisper-server":
		required[WhisperServer.Name] = true
	case "whisper-cli":
		required[WhisperCli.Name] = true
	}
	if needs.Correction == "llama-server" {
		required[LlamaServer.Name] = true
	}
	for _, b := range needs.Injection {
		switch b {
		case "ydotool":
			required[Ydotool.Name] = true
		case "wtype":
			required[Wtype.Name] = true
		case "clipboard":
			required[WlCopy.Name] = true
		}
	}
	if needs.Notifications {
		required[NotifySend.Name] = true
	}
	if needs.Sound {
		required[PwPlay.Name] = true
	}

	all := []Binary{PwRecord, FFmpeg, WhisperServer, WhisperCli, LlamaServer, Ydotool, Wtype, WlCopy, NotifySend, PwPlay}
	out := make([]Status, 0, len(all))
	for _, b := range all {
		s := Check(b)
		s.Required = required[b.Name]
		out = append(out, s)
	}
	return out
}

// Missing lists the required binaries that were not found.
func Missing(report []Status) []Status {
	var out []Status
	for _, s := range report {
		if s.Required && !s.Installed {
			out = append(out, s)
		}
	}
	return out
}
