// Package testutil holds fakes for the collaborators the dictation
// pipeline drives.
package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/history"
	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/recording"
	"github.com/leonardotrapani/hyprdictate/internal/transcriber"
)

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}
	return configPath
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("Condition not met within %v", timeout)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// CaptureOutput captures stdout for testing
func CaptureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		out, _ := io.ReadAll(r)
		done <- out
	}()

	fn()

	w.Close()
	os.Stdout = old
	return string(<-done)
}

// MockRecorder creates a real, small artifact file per session so tests can
// check that it gets removed.
type MockRecorder struct {
	Dir        string
	StartError error
	Samples    []float32 // returned by Window while recording

	mu        sync.Mutex
	active    bool
	current   recording.Artifact
	starts    int
	stops     int
	artifacts []string
}

func NewMockRecorder(dir string) *MockRecorder {
	return &MockRecorder{Dir: dir, Samples: make([]float32, 16000)}
}

func (m *MockRecorder) Start(ctx context.Context) (recording.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StartError != nil {
		return recording.Artifact{}, m.StartError
	}
	if m.active {
		return recording.Artifact{}, fmt.Errorf("%w: session already open", recording.ErrCaptureUnavailable)
	}

	m.starts++
	path := filepath.Join(m.Dir, fmt.Sprintf("whisper-recording-%d.wav", m.starts))
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		return recording.Artifact{}, err
	}
	m.active = true
	m.current = recording.Artifact{Path: path, SampleRate: 16000}
	m.artifacts = append(m.artifacts, path)
	return m.current, nil
}

func (m *MockRecorder) Stop() (recording.Artifact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return recording.Artifact{}, false
	}
	m.active = false
	m.stops++
	a := m.current
	a.Samples = 16000
	return a, true
}

func (m *MockRecorder) Window(d time.Duration) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return nil
	}
	return append([]float32(nil), m.Samples...)
}

func (m *MockRecorder) Level() float64 {
	if m.Active() {
		return 0.25
	}
	return 0
}

func (m *MockRecorder) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *MockRecorder) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

func (m *MockRecorder) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// Artifacts lists every artifact path handed out so far.
func (m *MockRecorder) Artifacts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.artifacts...)
}

// MockTranscriber answers full passes with Transcription and chunks with
// ChunkText. A non-nil Gate holds full passes until it is closed;
// ChunkGate does the same for chunks.
type MockTranscriber struct {
	Transcription string
	Err           error
	ChunkText     string
	ChunkErr      error
	Gate          chan struct{}
	ChunkGate     chan struct{}

	mu      sync.Mutex
	paths   []string
	missing []string
	chunks  int
}

func NewMockTranscriber(transcription string) *MockTranscriber {
	return &MockTranscriber{Transcription: transcription}
}

func (m *MockTranscriber) TranscribeArtifact(ctx context.Context, path string) <-chan transcriber.Result {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	if _, err := os.Stat(path); err != nil {
		m.missing = append(m.missing, path)
	}
	gate := m.Gate
	m.mu.Unlock()

	ch := make(chan transcriber.Result, 1)
	go func() {
		if gate != nil {
			<-gate
		}
		ch <- transcriber.Result{Text: m.Transcription, Err: m.Err}
	}()
	return ch
}

func (m *MockTranscriber) TranscribeChunk(ctx context.Context, samples []float32) <-chan transcriber.Result {
	m.mu.Lock()
	m.chunks++
	gate := m.ChunkGate
	m.mu.Unlock()

	ch := make(chan transcriber.Result, 1)
	go func() {
		if gate != nil {
			<-gate
		}
		ch <- transcriber.Result{Text: m.ChunkText, Err: m.ChunkErr}
	}()
	return ch
}

// Paths lists the artifacts passed to TranscribeArtifact.
func (m *MockTranscriber) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// Missing lists artifacts that did not exist when transcription was asked
// for.
func (m *MockTranscriber) Missing() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.missing...)
}

func (m *MockTranscriber) Chunks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chunks
}

type CorrectCall struct {
	Text  string
	Style llm.Style
}

// MockCorrector rewrites to Text. Fallback makes it return an uncorrected
// outcome; Err makes it behave like a correction server that is not
// running.
type MockCorrector struct {
	Text     string
	Fallback error
	Err      error

	mu    sync.Mutex
	calls []CorrectCall
}

func NewMockCorrector(text string) *MockCorrector {
	return &MockCorrector{Text: text}
}

func (m *MockCorrector) Correct(ctx context.Context, text string, style llm.Style) (llm.Outcome, error) {
	m.mu.Lock()
	m.calls = append(m.calls, CorrectCall{Text: text, Style: style})
	m.mu.Unlock()

	if m.Err != nil {
		return llm.Outcome{Text: text, Reason: m.Err}, m.Err
	}
	if m.Fallback != nil {
		return llm.Outcome{Text: text, Reason: m.Fallback}, nil
	}
	return llm.Outcome{Text: m.Text, Corrected: true}, nil
}

func (m *MockCorrector) Calls() []CorrectCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CorrectCall(nil), m.calls...)
}

// MockInjector implements injection.Injector for testing
type MockInjector struct {
	InjectedTexts []string
	InjectError   error

	mu sync.Mutex
}

func NewMockInjector() *MockInjector {
	return &MockInjector{}
}

func (m *MockInjector) Inject(ctx context.Context, text string) error {
	if m.InjectError != nil {
		return m.InjectError
	}
	m.mu.Lock()
	m.InjectedTexts = append(m.InjectedTexts, text)
	m.mu.Unlock()
	return nil
}

func (m *MockInjector) GetInjectedTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.InjectedTexts))
	copy(result, m.InjectedTexts)
	return result
}

type HistoryEntry struct {
	Raw       string
	Corrected string
}

// MockHistory keeps entries in memory.
type MockHistory struct {
	AddError error

	mu      sync.Mutex
	entries []HistoryEntry
}

func NewMockHistory() *MockHistory {
	return &MockHistory{}
}

func (m *MockHistory) Add(ctx context.Context, raw, corrected string) (history.Item, error) {
	if m.AddError != nil {
		return history.Item{}, m.AddError
	}
	m.mu.Lock()
	m.entries = append(m.entries, HistoryEntry{Raw: raw, Corrected: corrected})
	m.mu.Unlock()
	return history.Item{Raw: raw, Corrected: corrected, CreatedAt: time.Now()}, nil
}

func (m *MockHistory) Entries() []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]HistoryEntry(nil), m.entries...)
}
