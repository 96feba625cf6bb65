// Package llm drives the correction stage: a local text model rewrites the
// transcription in the selected style, and every failure falls back to the
// original text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/rs/zerolog"
)

var (
	// ErrServerNotRunning rejects a correction while the backend is not Ready.
	ErrServerNotRunning = errors.New("correction server not running")

	// ErrCorrectionUnavailable is the Reason of every fallback outcome.
	ErrCorrectionUnavailable = errors.New("correction unavailable")

	ErrDegenerateResponse = errors.New("correction response too short")
)

// minResponseLen is the shortest trimmed reply, in characters, accepted as a
// correction.
const minResponseLen = 3

// Backend is a completion endpoint with a managed lifecycle.
type Backend interface {
	Name() string
	Start(ctx context.Context, modelPath string) error
	Ready() bool
	Complete(ctx context.Context, req Request) (string, error)
	Stop() error
}

type Config struct {
	Backend string // "llama-server" or "openai"

	Binary         string
	Host           string
	Port           int
	ContextSize    int
	GPULayers      int
	Threads        int
	ServerArgs     []string
	HealthInterval time.Duration
	HealthAttempts int
	Timeout        time.Duration

	// openai backend
	BaseURL string
	APIKey  string
	Model   string
}

func DefaultConfig() Config {
	return Config{
		Backend:        "llama-server",
		Binary:         "llama-server",
		Host:           "127.0.0.1",
		Port:           8765,
		ContextSize:    2048,
		GPULayers:      99,
		Threads:        4,
		HealthInterval: 500 * time.Millisecond,
		HealthAttempts: 30,
		Timeout:        30 * time.Second,
	}
}

// NewBackend builds the backend named in cfg.
func NewBackend(cfg Config) (Backend, error) {
	switch cfg.Backend {
	case "", "llama-server":
		return NewLlamaBackend(cfg), nil
	case "openai":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai correction backend needs base_url")
		}
		return NewOpenAIBackend(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported correction backend: %s", cfg.Backend)
	}
}

// Outcome is what the pipeline emits. When Corrected is false, Text is the
// original input and Reason says why the rewrite was not used.
type Outcome struct {
	Text      string
	Corrected bool
	Reason    error
}

type Service struct {
	backend Backend
	timeout time.Duration
	log     zerolog.Logger
}

func NewService(cfg Config, backend Backend) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Service{
		backend: backend,
		timeout: cfg.Timeout,
		log:     logging.Component("correction").With().Str("backend", backend.Name()).Logger(),
	}
}

// Start brings the backend up. A failure is logged and returned, but leaves
// the service usable: corrections then fall back to the original text.
func (s *Service) Start(ctx context.Context, modelPath string) error {
	start := time.Now()
	if err := s.backend.Start(ctx, modelPath); err != nil {
		s.log.Warn().Err(err).Str("model", modelPath).Msg("correction unavailable, continuing without it")
		return err
	}
	s.log.Info().Str("model", modelPath).Dur("took", time.Since(start)).Msg("correction ready")
	return nil
}

func (s *Service) Ready() bool {
	return s.backend.Ready()
}

// Correct rewrites text in style. The only error is ErrServerNotRunning;
// every other failure comes back as an uncorrected Outcome.
func (s *Service) Correct(ctx context.Context, text string, style Style) (Outcome, error) {
	if !s.backend.Ready() {
		return Outcome{Text: text, Reason: ErrServerNotRunning}, ErrServerNotRunning
	}

	req := BuildRequest(text, style)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.backend.Complete(ctx, req)
	took := time.Since(start)
	if err != nil {
		s.log.Warn().Err(err).Dur("took", took).Msg("correction failed, using original text")
		return Outcome{Text: text, Reason: fmt.Errorf("%w: %w", ErrCorrectionUnavailable, err)}, nil
	}

	reply = strings.TrimSpace(reply)
	if utf8.RuneCountInString(reply) < minResponseLen {
		s.log.Warn().Str("reply", reply).Msg("correction reply too short, using original text")
		return Outcome{Text: text, Reason: fmt.Errorf("%w: %w", ErrCorrectionUnavailable, ErrDegenerateResponse)}, nil
	}

	s.log.Debug().Str("style", style.String()).Int("max_tokens", req.MaxTokens).Dur("took", took).Msg("corrected")
	return Outcome{Text: reply, Corrected: true}, nil
}

// Stop shuts the backend down. Safe to call more than once.
func (s *Service) Stop() error {
	return s.backend.Stop()
}
