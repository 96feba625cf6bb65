package recording

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestCommandSource_LogsStderrBeforeClose(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{
			name:    "exits after writing",
			command: `sh -c 'echo "mic muted" >&2; printf abcd'`,
			want:    []string{"mic muted"},
		},
		{
			name:    "several lines",
			command: `sh -c 'for i in 1 2 3; do echo "underrun $i" >&2; done; printf abcdefgh'`,
			want:    []string{"underrun 1", "underrun 2", "underrun 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			src, err := NewSource(Config{Backend: "command", SampleRate: 16000, Command: tt.command})
			if err != nil {
				t.Fatalf("NewSource() error = %v", err)
			}

			stream, err := src.Open(context.Background())
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if _, err := io.ReadAll(stream); err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if err := stream.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			out := buf.String()
			for _, line := range tt.want {
				if !strings.Contains(out, line) {
					t.Errorf("log missing %q: %s", line, out)
				}
			}
			if !strings.Contains(out, `"source":"sh"`) {
				t.Errorf("log missing source field: %s", out)
			}
		})
	}
}
