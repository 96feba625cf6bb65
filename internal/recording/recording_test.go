package recording

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
)

// pipeSource hands the recorder the read end of an in-memory pipe.
type pipeSource struct {
	r       *io.PipeReader
	w       *io.PipeWriter
	openErr error
}

func newPipeSource() *pipeSource {
	r, w := io.Pipe()
	return &pipeSource{r: r, w: w}
}

func (p *pipeSource) Name() string { return "pipe" }

func (p *pipeSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}
	return p.r, nil
}

func encodeF32(samples ...float32) []byte {
	out := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

func constant(v float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.TempDir = t.TempDir()
	cfg.WindowSeconds = 1
	cfg.BufferSize = 400
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRecorder_StopWithoutSession(t *testing.T) {
	r := NewRecorder(testConfig(t), newPipeSource())

	a, ok := r.Stop()
	if ok {
		t.Fatalf("Stop() without session returned ok, artifact %+v", a)
	}
	if a.Path != "" {
		t.Errorf("Stop() artifact path = %q, want empty", a.Path)
	}
	if r.Active() {
		t.Error("recorder became active after Stop()")
	}
	if _, ok := r.Stop(); ok {
		t.Error("second Stop() returned ok")
	}
}

func TestRecorder_RejectsSecondSession(t *testing.T) {
	src := newPipeSource()
	r := NewRecorder(testConfig(t), src)

	if _, err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop()

	_, err := r.Start(context.Background())
	if !errors.Is(err, ErrCaptureUnavailable) {
		t.Fatalf("second Start() error = %v, want ErrCaptureUnavailable", err)
	}
}

func TestRecorder_OpenFailure(t *testing.T) {
	cfg := testConfig(t)
	src := newPipeSource()
	src.openErr = errors.New("no such device")
	r := NewRecorder(cfg, src)

	_, err := r.Start(context.Background())
	if !errors.Is(err, ErrCaptureUnavailable) {
		t.Fatalf("Start() error = %v, want ErrCaptureUnavailable", err)
	}
	if r.Active() {
		t.Error("recorder active after failed Start()")
	}

	entries, _ := os.ReadDir(cfg.TempDir)
	if len(entries) != 0 {
		t.Errorf("failed Start() left %d files behind", len(entries))
	}
}

func TestRecorder_CaptureSession(t *testing.T) {
	cfg := testConfig(t)
	src := newPipeSource()
	r := NewRecorder(cfg, src)

	artifact, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if filepath.Dir(artifact.Path) != cfg.TempDir {
		t.Errorf("artifact in %s, want %s", filepath.Dir(artifact.Path), cfg.TempDir)
	}
	if !r.Active() {
		t.Fatal("recorder not active after Start()")
	}

	// 0.5s of audio at half scale, written with a split sample in the middle
	data := encodeF32(constant(0.5, 8000)...)
	go func() {
		src.w.Write(data[:1001])
		src.w.Write(data[1001:])
	}()

	waitFor(t, "window to fill", func() bool { return len(r.Window(0)) == 8000 })

	if got := r.Level(); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("Level() = %v, want 0.5", got)
	}
	if got := len(r.Window(100 * time.Millisecond)); got != 1600 {
		t.Errorf("Window(100ms) len = %d, want 1600", got)
	}

	stopped, ok := r.Stop()
	if !ok {
		t.Fatal("Stop() returned false for an open session")
	}
	if stopped.Path != artifact.Path {
		t.Errorf("Stop() path = %s, want %s", stopped.Path, artifact.Path)
	}
	if stopped.Samples != 8000 {
		t.Errorf("Stop() samples = %d, want 8000", stopped.Samples)
	}
	if r.Level() != 0 {
		t.Errorf("Level() after Stop = %v, want 0", r.Level())
	}
	if len(r.Window(0)) != 0 {
		t.Error("window not cleared after Stop")
	}

	f, err := os.Open(stopped.Path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("artifact is not a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if buf.Format.SampleRate != 16000 || buf.Format.NumChannels != 1 {
		t.Errorf("artifact format = %+v", buf.Format)
	}
	if len(buf.Data) != 8000 {
		t.Fatalf("artifact has %d samples, want 8000", len(buf.Data))
	}
	if buf.Data[0] != 16384 {
		t.Errorf("first sample = %d, want 16384", buf.Data[0])
	}

	if err := stopped.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(stopped.Path); !os.IsNotExist(err) {
		t.Error("artifact still present after Remove()")
	}
	if err := stopped.Remove(); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
}

func TestRecorder_DropsNonFiniteFrames(t *testing.T) {
	cfg := testConfig(t)
	src := newPipeSource()
	r := NewRecorder(cfg, src)

	if _, err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// buffer size is 400 bytes, so each write lands as its own frame
	bad := encodeF32(append(constant(0.1, 99), float32(math.NaN()))...)
	good := encodeF32(constant(0.2, 100)...)
	go func() {
		src.w.Write(bad)
		src.w.Write(good)
	}()

	waitFor(t, "good frame", func() bool { return len(r.Window(0)) == 100 })

	a, _ := r.Stop()
	if a.Samples != 100 {
		t.Errorf("artifact samples = %d, want 100", a.Samples)
	}
}

func TestRecorder_RestartAfterStop(t *testing.T) {
	cfg := testConfig(t)
	src := newPipeSource()
	r := NewRecorder(cfg, src)

	first, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	r.Stop()

	src2 := newPipeSource()
	r.source = src2
	second, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() after Stop error = %v", err)
	}
	defer r.Stop()

	if first.Path == second.Path {
		t.Error("sessions reused the same artifact path")
	}
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantBin  string
		wantArgs []string
		wantErr  bool
	}{
		{
			name:     "pipewire default device",
			cfg:      Config{Backend: "pipewire", SampleRate: 16000},
			wantBin:  "pw-record",
			wantArgs: []string{"--format", "f32", "--rate", "16000", "--channels", "1", "-"},
		},
		{
			name:     "pipewire with target",
			cfg:      Config{SampleRate: 16000, Device: "alsa_input.usb"},
			wantBin:  "pw-record",
			wantArgs: []string{"--format", "f32", "--rate", "16000", "--channels", "1", "--target", "alsa_input.usb", "-"},
		},
		{
			name:    "ffmpeg",
			cfg:     Config{Backend: "ffmpeg", SampleRate: 16000},
			wantBin: "ffmpeg",
			wantArgs: []string{
				"-nostdin", "-hide_banner", "-loglevel", "warning",
				"-f", "pulse", "-i", "default",
				"-ac", "1", "-ar", "16000",
				"-f", "f32le", "-",
			},
		},
		{
			name:     "custom command",
			cfg:      Config{Backend: "command", SampleRate: 16000, Command: `parec --rate={rate} --format=float32le --channels=1 --device="my mic"`},
			wantBin:  "parec",
			wantArgs: []string{"--rate=16000", "--format=float32le", "--channels=1", "--device=my mic"},
		},
		{
			name:    "empty custom command",
			cfg:     Config{Backend: "command", SampleRate: 16000},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			cfg:     Config{Backend: "oss", SampleRate: 16000},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSource(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if src.Name() != tt.wantBin {
				t.Errorf("binary = %s, want %s", src.Name(), tt.wantBin)
			}
			if len(src.Args()) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", src.Args(), tt.wantArgs)
			}
			for i := range tt.wantArgs {
				if src.Args()[i] != tt.wantArgs[i] {
					t.Errorf("arg[%d] = %q, want %q", i, src.Args()[i], tt.wantArgs[i])
				}
			}
		})
	}
}
