// Package pipeline runs dictation sessions: it owns the recording state
// machine, drives capture, and hands each finished recording through
// transcription, correction, injection and history.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/history"
	"github.com/leonardotrapani/hyprdictate/internal/hotkey"
	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/recording"
	"github.com/leonardotrapani/hyprdictate/internal/transcriber"
)

type Phase int

const (
	Idle Phase = iota
	Recording
	Processing
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	case Error:
		return "error"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// State is the controller's externally visible state. Message is only set
// in the Error phase.
type State struct {
	Phase   Phase
	Message string
}

func (s State) String() string {
	if s.Phase == Error && s.Message != "" {
		return "error: " + s.Message
	}
	return s.Phase.String()
}

// Config is read at the start of every session; changing it never affects
// a session that is already running.
type Config struct {
	Mode            hotkey.Mode
	Correction      bool
	Style           llm.Style
	Preview         bool
	PreviewInterval time.Duration
	PreviewWindow   time.Duration
	History         bool
}

func DefaultConfig() Config {
	return Config{
		Mode:            hotkey.Toggle,
		Style:           llm.None,
		Preview:         true,
		PreviewInterval: time.Second,
		PreviewWindow:   5 * time.Second,
		History:         true,
	}
}

type Recorder interface {
	Start(ctx context.Context) (recording.Artifact, error)
	Stop() (recording.Artifact, bool)
	Window(d time.Duration) []float32
	Level() float64
}

type Transcriber interface {
	TranscribeArtifact(ctx context.Context, path string) <-chan transcriber.Result
	TranscribeChunk(ctx context.Context, samples []float32) <-chan transcriber.Result
}

type Corrector interface {
	Correct(ctx context.Context, text string, style llm.Style) (llm.Outcome, error)
}

type Injector interface {
	Inject(ctx context.Context, text string) error
}

type History interface {
	Add(ctx context.Context, raw, corrected string) (history.Item, error)
}

// Observer hears about everything the user should see. Calls arrive on the
// controller's goroutine, in order, and must not block.
type Observer interface {
	StateChanged(State)
	PreviewChanged(text string)
	StyleChanged(llm.Style)
	HistoryRequested()
	Completed(Result)
}

// NopObserver can be embedded to implement only part of Observer.
type NopObserver struct{}

func (NopObserver) StateChanged(State) {}
func (NopObserver) PreviewChanged(string) {}
func (NopObserver) StyleChanged(llm.Style) {}
func (NopObserver) HistoryRequested() {}
func (NopObserver) Completed(Result) {}

// Deps are the collaborators a Controller drives. Corrector and History
// may be nil.
type Deps struct {
	Recorder    Recorder
	Transcriber Transcriber
	Corrector   Corrector
	Injector    Injector
	History     History
	Observer    Observer
}

// Result is the single outcome of one processing cycle.
type Result struct {
	Raw       string // trimmed transcription
	Corrected string // empty when correction was off or fell back
	Text      string // what was handed to the injector
	Style     llm.Style
	Fallback  error // why a requested correction was not used
	Err       error
	Duration  time.Duration
}

// Emitted reports whether text reached the injector.
func (r Result) Emitted() bool {
	return r.Err == nil && r.Text != ""
}
