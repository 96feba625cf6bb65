package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/rs/zerolog"
)

// CLIEngine runs one whisper-cli process per pass. It reloads the model every
// time, so it suits machines where keeping a server resident is not wanted.
type CLIEngine struct {
	binary string
	log    zerolog.Logger

	mu        sync.Mutex
	modelPath string
	tempDir   string
}

func NewCLIEngine(cfg Config) *CLIEngine {
	bin := cfg.CLIBinary
	if bin == "" {
		bin = DefaultConfig().CLIBinary
	}
	return &CLIEngine{binary: bin, log: logging.Component("whisper-cli")}
}

func (e *CLIEngine) Name() string { return "whisper-cli" }

func (e *CLIEngine) Load(ctx context.Context, modelPath string) error {
	if _, err := exec.LookPath(e.binary); err != nil {
		return fmt.Errorf("%s not found: install whisper.cpp first", e.binary)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.modelPath != "" {
		return ErrAlreadyLoaded
	}
	e.modelPath = modelPath
	e.tempDir = os.TempDir()
	return nil
}

func (e *CLIEngine) cliArgs(model, file string, p Params) []string {
	args := []string{
		"-m", model,
		"-l", p.Language,
		"-nt", // no timestamps
		"-np", // no progress
		"-f", file,
	}
	if p.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(p.Threads))
	}
	if p.NoContext {
		args = append(args, "-mc", "0")
	}
	return args
}

func (e *CLIEngine) Transcribe(ctx context.Context, audio Audio, p Params) ([]string, error) {
	e.mu.Lock()
	model, tempDir := e.modelPath, e.tempDir
	e.mu.Unlock()
	if model == "" {
		return nil, errEngineNotLoaded
	}

	file := audio.Path
	if file == "" {
		tmp, err := os.CreateTemp(tempDir, "hyprdictate-chunk-*.wav")
		if err != nil {
			return nil, fmt.Errorf("create chunk file: %w", err)
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.Write(audio.WAV); err != nil {
			tmp.Close()
			return nil, fmt.Errorf("write chunk file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return nil, fmt.Errorf("write chunk file: %w", err)
		}
		file = tmp.Name()
	}

	cmd := exec.CommandContext(ctx, e.binary, e.cliArgs(model, file, p)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Debug().Dur("took", time.Since(start)).Str("stderr", stderr.String()).Msg("command failed")
		return nil, fmt.Errorf("whisper-cli failed: %w", err)
	}

	return parseCLIOutput(stdout.String()), nil
}

// parseCLIOutput turns whisper-cli's one-line-per-segment output into
// segments, keeping the leading space whisper puts on each one.
func parseCLIOutput(out string) []string {
	var segments []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		segments = append(segments, line)
	}
	return segments
}

func (e *CLIEngine) Close() error {
	e.mu.Lock()
	e.modelPath = ""
	e.mu.Unlock()
	return nil
}
