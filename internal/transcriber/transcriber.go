// Package transcriber runs speech inference off the caller's goroutine:
// full passes over a recorded artifact and quick passes over short preview
// chunks.
package transcriber

import (
	"context"
	"fmt"
	"strings"
)

type Mode int

const (
	Full Mode = iota
	Chunk
)

func (m Mode) String() string {
	if m == Chunk {
		return "chunk"
	}
	return "full"
}

// Audio is the input to one inference pass. Engines use whichever form
// suits them: an on-disk WAV at Path, or in-memory WAV bytes.
type Audio struct {
	Path string
	WAV  []byte
}

// Params tune a single pass.
type Params struct {
	Language      string // whisper language code, or "auto" to detect it while transcribing
	SingleSegment bool
	NoContext     bool
	Threads       int
}

// Engine is a speech inference backend holding one loaded model.
type Engine interface {
	Name() string
	Load(ctx context.Context, modelPath string) error
	Transcribe(ctx context.Context, audio Audio, p Params) ([]string, error)
	Close() error
}

type Config struct {
	Engine     string // "whisper-server" or "whisper-cli"
	Language   string // language code, or "auto"
	Threads    int
	SampleRate int

	ServerBinary string
	ServerHost   string
	ServerPort   int
	ServerArgs   []string
	CLIBinary    string
}

func DefaultConfig() Config {
	return Config{
		Engine:       "whisper-server",
		Language:     "auto",
		Threads:      4,
		SampleRate:   16000,
		ServerBinary: "whisper-server",
		ServerHost:   "127.0.0.1",
		ServerPort:   8766,
		CLIBinary:    "whisper-cli",
	}
}

// NewEngine builds the engine named in cfg.
func NewEngine(cfg Config) (Engine, error) {
	switch cfg.Engine {
	case "", "whisper-server":
		return NewServerEngine(cfg), nil
	case "whisper-cli":
		return NewCLIEngine(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported transcription engine: %s", cfg.Engine)
	}
}

func (c Config) params(mode Mode) Params {
	p := Params{
		Language:  strings.ToLower(strings.TrimSpace(c.Language)),
		NoContext: true,
		Threads:   c.Threads,
	}
	if p.Language == "" {
		p.Language = "auto"
	}
	if mode == Chunk {
		p.SingleSegment = true
	}
	return p
}

func joinSegments(segments []string) string {
	return strings.TrimSpace(strings.Join(segments, ""))
}
