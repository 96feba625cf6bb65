// Package recording owns the microphone: one capture session at a time,
// written to a WAV artifact while a short trailing window stays in memory
// for live preview.
package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/rs/zerolog"
)

// ErrCaptureUnavailable covers session conflicts and device failures.
var ErrCaptureUnavailable = errors.New("capture unavailable")

type Config struct {
	Backend       string // "pipewire", "ffmpeg" or "command"
	Command       string // used by the "command" backend
	Device        string
	SampleRate    int
	BufferSize    int // bytes per read from the capture stream
	WindowSeconds int
	TempDir       string
	StartupProbe  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Backend:       "pipewire",
		SampleRate:    16000,
		BufferSize:    6400, // 100ms of f32 mono at 16kHz
		WindowSeconds: 10,
		StartupProbe:  200 * time.Millisecond,
	}
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", c.SampleRate)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("invalid BufferSize: %d", c.BufferSize)
	}
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("invalid WindowSeconds: %d", c.WindowSeconds)
	}
	return nil
}

const drainTimeout = 2 * time.Second

// interrupter is implemented by streams that can end the capture while
// still letting buffered audio be read.
type interrupter interface {
	Interrupt() error
}

type session struct {
	stream   io.ReadCloser
	writer   *artifactWriter
	artifact Artifact
	cancel   context.CancelFunc
	done     chan struct{}
}

// Recorder is the capture buffer. Start and Stop may be called from any
// goroutine; at most one session is ever open.
type Recorder struct {
	config Config
	source Source
	log    zerolog.Logger

	mu      sync.Mutex // guards session, held for the whole of Start and Stop
	session *session

	window *ringWindow
	level  atomic.Uint64
}

func NewRecorder(config Config, source Source) *Recorder {
	if config.WindowSeconds <= 0 {
		config.WindowSeconds = DefaultConfig().WindowSeconds
	}
	return &Recorder{
		config: config,
		source: source,
		log:    logging.Component("recorder"),
		window: newRingWindow(config.SampleRate * config.WindowSeconds),
	}
}

func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}

// Level is the RMS of the most recent frame in [0,1].
func (r *Recorder) Level() float64 {
	return math.Float64frombits(r.level.Load())
}

func (r *Recorder) SampleRate() int { return r.config.SampleRate }

// Window returns a copy of the newest d of audio, or the whole trailing
// window when d is not positive.
func (r *Recorder) Window(d time.Duration) []float32 {
	max := 0
	if d > 0 {
		max = int(d.Seconds() * float64(r.config.SampleRate))
	}
	return r.window.last(max)
}

// Start opens a capture session and returns the artifact it will produce.
func (r *Recorder) Start(ctx context.Context) (Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return Artifact{}, fmt.Errorf("%w: session already open", ErrCaptureUnavailable)
	}
	if err := r.config.validate(); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	artifact := Artifact{Path: artifactPath(r.config.TempDir), SampleRate: r.config.SampleRate}
	writer, err := newArtifactWriter(artifact.Path, r.config.SampleRate)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	sessCtx, cancel := context.WithCancel(context.Background())
	stream, err := r.openSource(ctx, sessCtx)
	if err != nil {
		cancel()
		writer.discard()
		return Artifact{}, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	s := &session{
		stream:   stream,
		writer:   writer,
		artifact: artifact,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	r.session = s
	r.window.reset()
	r.level.Store(0)

	go r.captureLoop(s)

	r.log.Info().Str("source", r.source.Name()).Str("artifact", artifact.Path).Msg("recording started")
	return artifact, nil
}

func (r *Recorder) openSource(startCtx, sessCtx context.Context) (io.ReadCloser, error) {
	type opened struct {
		stream io.ReadCloser
		err    error
	}
	ch := make(chan opened, 1)
	go func() {
		s, err := r.source.Open(sessCtx)
		ch <- opened{s, err}
	}()

	select {
	case o := <-ch:
		return o.stream, o.err
	case <-startCtx.Done():
		go func() {
			if o := <-ch; o.stream != nil {
				o.stream.Close()
			}
		}()
		return nil, startCtx.Err()
	}
}

// Stop closes the open session and returns its artifact. With no session
// open it returns false and changes nothing.
func (r *Recorder) Stop() (Artifact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	if s == nil {
		return Artifact{}, false
	}
	r.session = nil

	if in, ok := s.stream.(interrupter); ok {
		if err := in.Interrupt(); err != nil {
			r.log.Warn().Err(err).Msg("capture did not stop cleanly")
		}
		select {
		case <-s.done:
		case <-time.After(drainTimeout):
		}
	}
	if err := s.stream.Close(); err != nil {
		r.log.Warn().Err(err).Msg("failed to close capture stream")
	}
	s.cancel()
	<-s.done

	if err := s.writer.close(); err != nil {
		r.log.Error().Err(err).Msg("failed to finalize recording")
	}
	s.artifact.Samples = s.writer.samples

	r.window.reset()
	r.level.Store(0)

	r.log.Info().
		Int("samples", s.artifact.Samples).
		Dur("duration", time.Duration(float64(s.artifact.Samples)/float64(r.config.SampleRate)*float64(time.Second))).
		Msg("recording stopped")
	return s.artifact, true
}

func (r *Recorder) captureLoop(s *session) {
	defer close(s.done)

	var dec f32Decoder
	buffer := make([]byte, r.config.BufferSize)
	var dropped int
	lastDropLog := time.Now()

	for {
		n, readErr := s.stream.Read(buffer)
		if n > 0 {
			frame := dec.decode(buffer[:n])
			if err := validateFrame(frame); err != nil {
				dropped++
				if time.Since(lastDropLog) > time.Second {
					r.log.Warn().Int("dropped", dropped).Err(err).Msg("dropping bad audio frames")
					lastDropLog = time.Now()
					dropped = 0
				}
			} else if len(frame) > 0 {
				if err := s.writer.write(frame); err != nil {
					r.log.Warn().Err(err).Msg("failed to write frame")
				}
				r.window.append(frame)
				r.level.Store(math.Float64bits(rms(frame)))
			}
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) && !errors.Is(readErr, os.ErrClosed) {
				r.log.Warn().Err(readErr).Msg("audio stream ended")
			}
			return
		}
	}
}
