package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/mattn/go-shellwords"
	"github.com/rs/zerolog"
)

// Source produces raw little-endian float32 mono audio at the configured
// sample rate. Closing the returned stream ends the capture.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// CommandSource captures by running a recorder binary that writes raw
// samples to stdout.
type CommandSource struct {
	name         string
	binary       string
	args         []string
	startupProbe time.Duration
	stopTimeout  time.Duration
	log          zerolog.Logger
}

// NewSource builds the capture source for backend: "pipewire" (pw-record),
// "ffmpeg" (PulseAudio input through ffmpeg) or "command" with a custom
// shell-style command line. {rate} in a custom command expands to the
// sample rate.
func NewSource(cfg Config) (*CommandSource, error) {
	rate := strconv.Itoa(cfg.SampleRate)

	var binary string
	var args []string
	switch cfg.Backend {
	case "", "pipewire":
		binary = "pw-record"
		args = []string{"--format", "f32", "--rate", rate, "--channels", "1"}
		if cfg.Device != "" {
			args = append(args, "--target", cfg.Device)
		}
		args = append(args, "-")
	case "ffmpeg":
		device := cfg.Device
		if device == "" {
			device = "default"
		}
		binary = "ffmpeg"
		args = []string{
			"-nostdin", "-hide_banner", "-loglevel", "warning",
			"-f", "pulse", "-i", device,
			"-ac", "1", "-ar", rate,
			"-f", "f32le", "-",
		}
	case "command":
		words, err := shellwords.Parse(strings.ReplaceAll(cfg.Command, "{rate}", rate))
		if err != nil {
			return nil, fmt.Errorf("invalid capture command: %w", err)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("invalid capture command: empty")
		}
		binary, args = words[0], words[1:]
	default:
		return nil, fmt.Errorf("unsupported capture backend: %s", cfg.Backend)
	}

	return &CommandSource{
		name:         binary,
		binary:       binary,
		args:         args,
		startupProbe: cfg.StartupProbe,
		stopTimeout:  1200 * time.Millisecond,
		log:          logging.Component("recorder"),
	}, nil
}

func (s *CommandSource) Name() string { return s.name }

func (s *CommandSource) Args() []string { return s.args }

func (s *CommandSource) Open(ctx context.Context) (io.ReadCloser, error) {
	// our own pipe so Wait never closes the read end before we drain it
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}

	// stderr also gets an owned pipe so Wait cannot close it mid-read
	errR, errW, err := os.Pipe()
	if err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.binary, s.args...)
	cmd.Stdout = pw
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		for _, f := range []*os.File{pr, pw, errR, errW} {
			f.Close()
		}
		return nil, fmt.Errorf("start %s: %w", s.name, err)
	}
	pw.Close()
	errW.Close()

	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		defer errR.Close()
		logging.Pipe(s.log, s.name, errR)
	}()

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	if s.startupProbe > 0 {
		select {
		case err := <-waitErr:
			pr.Close()
			if err != nil {
				return nil, fmt.Errorf("%s exited before capture started: %w", s.name, err)
			}
			return nil, fmt.Errorf("%s exited before capture started", s.name)
		case <-time.After(s.startupProbe):
		}
	}

	return &processStream{
		File:        pr,
		process:     cmd.Process,
		waitErr:     waitErr,
		stderrDone:  stderrDone,
		stopTimeout: s.stopTimeout,
	}, nil
}

type processStream struct {
	*os.File
	process     *os.Process
	waitErr     <-chan error
	stderrDone  <-chan struct{}
	stopTimeout time.Duration

	stopOnce sync.Once
	stopErr  error
}

// Interrupt asks the recorder to exit so it flushes its last buffer, and
// kills it if it lingers. The read end stays open so the remaining samples
// can be drained.
func (s *processStream) Interrupt() error {
	s.stopOnce.Do(func() {
		_ = s.process.Signal(os.Interrupt)

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(s.stopTimeout):
			_ = s.process.Kill()
			if err, ok := <-s.waitErr; ok {
				s.stopErr = normalizeStopErr(err)
			}
		}
	})
	return s.stopErr
}

// Close stops the recorder and waits for its stderr to be logged.
func (s *processStream) Close() error {
	err := s.Interrupt()
	select {
	case <-s.stderrDone:
	case <-time.After(s.stopTimeout):
	}
	if cerr := s.File.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}

func normalizeStopErr(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// CheckAvailable reports whether the configured capture backend can run.
// It is the startup check for a missing microphone stack.
func CheckAvailable(ctx context.Context, cfg Config) error {
	switch cfg.Backend {
	case "", "pipewire":
		return CheckPipeWireAvailable(ctx)
	case "ffmpeg":
		if _, err := exec.LookPath("ffmpeg"); err != nil {
			return fmt.Errorf("%w: ffmpeg not found: %v", ErrCaptureUnavailable, err)
		}
		return nil
	case "command":
		src, err := NewSource(cfg)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
		}
		if _, err := exec.LookPath(src.binary); err != nil {
			return fmt.Errorf("%w: %s not found: %v", ErrCaptureUnavailable, src.binary, err)
		}
		return nil
	}
	return fmt.Errorf("%w: unsupported capture backend %q", ErrCaptureUnavailable, cfg.Backend)
}

func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("%w: pw-record not found: %v (install pipewire-tools)", ErrCaptureUnavailable, err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := exec.CommandContext(checkCtx, "pw-cli", "info").Run(); err != nil {
		return fmt.Errorf("%w: PipeWire not running or accessible: %v", ErrCaptureUnavailable, err)
	}
	return nil
}
