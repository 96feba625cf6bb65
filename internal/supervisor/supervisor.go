// Package supervisor runs long-lived local inference servers as child
// processes: spawn, poll a health check until ready, and shut down with
// SIGTERM followed by SIGKILL.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/rs/zerolog"
)

type State int32

const (
	Unloaded State = iota
	Starting
	Ready
	Stopped
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

var (
	ErrAlreadyStarted = errors.New("process already started")
	ErrHealthTimeout  = errors.New("process did not become healthy in time")
	ErrExited         = errors.New("process exited")
)

// HealthFunc reports nil once the child is ready to serve requests.
type HealthFunc func(ctx context.Context) error

type Config struct {
	Name   string
	Binary string
	Args   []string
	Env    []string

	Health         HealthFunc
	HealthInterval time.Duration
	HealthAttempts int
	GracePeriod    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = c.Binary
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = 500 * time.Millisecond
	}
	if c.HealthAttempts <= 0 {
		c.HealthAttempts = 30
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = 3 * time.Second
	}
	return c
}

// Process is a single supervised child. It may be started again after it
// has stopped, but never runs twice at once.
type Process struct {
	cfg Config
	log zerolog.Logger

	state atomic.Int32

	mu       sync.Mutex
	cmd      *exec.Cmd
	cancel   context.CancelFunc
	done     chan struct{}
	waitErr  error
	stopping bool
}

func New(cfg Config) *Process {
	cfg = cfg.withDefaults()
	return &Process{
		cfg: cfg,
		log: logging.Component("supervisor").With().Str("process", cfg.Name).Logger(),
	}
}

func (p *Process) State() State {
	return State(p.state.Load())
}

func (p *Process) Ready() bool {
	return p.State() == Ready
}

// PID returns the child's pid, or 0 when nothing is running.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil || p.State() == Stopped {
		return 0
	}
	return p.cmd.Process.Pid
}

// Start spawns the child and blocks until the health check passes, the
// attempts run out, the child exits, or ctx is cancelled. On any failure the
// child is stopped before returning.
func (p *Process) Start(ctx context.Context) error {
	if err := p.spawn(); err != nil {
		return err
	}

	if err := p.waitHealthy(ctx); err != nil {
		p.log.Warn().Err(err).Msg("server not ready, stopping it")
		_ = p.Stop()
		return err
	}

	p.state.CompareAndSwap(int32(Starting), int32(Ready))
	if p.State() != Ready {
		return fmt.Errorf("%s: %w", p.cfg.Name, ErrExited)
	}
	p.log.Info().Int("pid", p.PID()).Msg("server ready")
	return nil
}

func (p *Process) spawn() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s := p.State(); s == Starting || s == Ready {
		return ErrAlreadyStarted
	}
	if p.cfg.Binary == "" {
		return fmt.Errorf("%s: binary is required", p.cfg.Name)
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, p.cfg.Binary, p.cfg.Args...)
	if len(p.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), p.cfg.Env...)
	}

	// own process group so the whole tree goes down with the server
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = p.cfg.GracePeriod

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	p.log.Info().Str("binary", p.cfg.Binary).Strs("args", p.cfg.Args).Msg("starting server")
	if err := cmd.Start(); err != nil {
		cancel()
		pw.Close()
		return fmt.Errorf("failed to start %s: %w", p.cfg.Name, err)
	}

	p.cmd = cmd
	p.cancel = cancel
	p.done = make(chan struct{})
	p.waitErr = nil
	p.stopping = false
	p.state.Store(int32(Starting))

	go logging.Pipe(p.log, p.cfg.Name, pr)
	go p.wait(cmd, pw, p.done)

	return nil
}

func (p *Process) wait(cmd *exec.Cmd, output io.Closer, done chan struct{}) {
	err := cmd.Wait()
	output.Close()

	p.mu.Lock()
	p.waitErr = err
	stopping := p.stopping
	p.mu.Unlock()

	if !stopping {
		p.log.Warn().Err(err).Msg("server exited unexpectedly")
	}
	p.state.Store(int32(Stopped))
	close(done)
}

func (p *Process) waitHealthy(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if p.cfg.Health == nil {
		return nil
	}

	ticker := time.NewTicker(p.cfg.HealthInterval)
	defer ticker.Stop()

	var lastErr error
	for attempt := 1; attempt <= p.cfg.HealthAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return fmt.Errorf("%s: %w: %v", p.cfg.Name, ErrExited, p.exitErr())
		case <-ticker.C:
		}

		hctx, cancel := context.WithTimeout(ctx, p.cfg.HealthInterval)
		lastErr = p.cfg.Health(hctx)
		cancel()
		if lastErr == nil {
			return nil
		}
		p.log.Debug().Int("attempt", attempt).Err(lastErr).Msg("health check pending")
	}

	return fmt.Errorf("%s: %w after %d attempts: %v", p.cfg.Name, ErrHealthTimeout, p.cfg.HealthAttempts, lastErr)
}

func (p *Process) exitErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitErr
}

// Stop terminates the child and waits for it to exit. Safe to call any
// number of times, including before Start.
func (p *Process) Stop() error {
	p.mu.Lock()
	if p.cmd == nil {
		p.mu.Unlock()
		return nil
	}
	done := p.done
	p.stopping = true
	cancel := p.cancel
	p.mu.Unlock()

	select {
	case <-done:
		return nil
	default:
	}

	p.log.Info().Msg("stopping server")
	cancel()
	<-done
	p.log.Info().Msg("server stopped")
	return nil
}
