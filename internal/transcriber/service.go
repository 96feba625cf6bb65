package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/rs/zerolog"
)

var ErrAlreadyLoaded = errors.New("transcription model already loaded")

// Result is the outcome of one pass. Text is always trimmed.
type Result struct {
	Text string
	Err  error
}

type job struct {
	ctx    context.Context
	mode   Mode
	audio  Audio
	result chan Result
}

// Service owns the engine and the worker that runs inference. Full passes
// take priority over queued preview chunks.
type Service struct {
	cfg    Config
	engine Engine
	log    zerolog.Logger

	loadMu sync.Mutex
	loaded atomic.Bool

	full   chan job
	chunks chan job
	quit   chan struct{}
	wg     sync.WaitGroup

	unloadOnce sync.Once
	unloadErr  error
}

func NewService(cfg Config, engine Engine) *Service {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	s := &Service{
		cfg:    cfg,
		engine: engine,
		log:    logging.Component("transcriber").With().Str("engine", engine.Name()).Logger(),
		full:   make(chan job, 4),
		chunks: make(chan job, 1),
		quit:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// Load loads the model and blocks until the engine is ready or has failed.
func (s *Service) Load(ctx context.Context, modelPath string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	select {
	case <-s.quit:
		return fmt.Errorf("load after unload: %w", ErrNotInitialized)
	default:
	}
	if s.loaded.Load() {
		return ErrAlreadyLoaded
	}
	if _, err := os.Stat(modelPath); err != nil {
		return fmt.Errorf("model file not found: %s: %w", modelPath, err)
	}

	start := time.Now()
	if err := s.engine.Load(ctx, modelPath); err != nil {
		return fmt.Errorf("load model %s: %w", modelPath, err)
	}
	s.loaded.Store(true)
	s.log.Info().Str("model", modelPath).Dur("took", time.Since(start)).Msg("model loaded")
	return nil
}

func (s *Service) Loaded() bool {
	return s.loaded.Load()
}

// TranscribeArtifact queues a full pass over the WAV file at path.
func (s *Service) TranscribeArtifact(ctx context.Context, path string) <-chan Result {
	return s.submit(ctx, s.full, Full, Audio{Path: path})
}

// TranscribeChunk queues a low-latency pass over samples. If a chunk is
// already waiting, the new one is rejected rather than queued behind it.
func (s *Service) TranscribeChunk(ctx context.Context, samples []float32) <-chan Result {
	if len(samples) == 0 {
		return done(Result{})
	}
	return s.submit(ctx, s.chunks, Chunk, Audio{WAV: encodeWAV(samples, s.cfg.SampleRate)})
}

func (s *Service) TranscribeArtifactSync(ctx context.Context, path string) (string, error) {
	return wait(ctx, s.TranscribeArtifact(ctx, path))
}

func (s *Service) TranscribeChunkSync(ctx context.Context, samples []float32) (string, error) {
	return wait(ctx, s.TranscribeChunk(ctx, samples))
}

func (s *Service) submit(ctx context.Context, queue chan job, mode Mode, audio Audio) <-chan Result {
	if !s.loaded.Load() {
		return done(Result{Err: ErrNotInitialized})
	}

	j := job{ctx: ctx, mode: mode, audio: audio, result: make(chan Result, 1)}
	select {
	case <-s.quit:
		return done(Result{Err: ErrNotInitialized})
	default:
	}

	if mode == Chunk {
		select {
		case queue <- j:
		default:
			return done(Result{Err: errors.New("preview chunk already pending")})
		}
		return j.result
	}

	select {
	case queue <- j:
	case <-ctx.Done():
		return done(Result{Err: ctx.Err()})
	case <-s.quit:
		return done(Result{Err: ErrNotInitialized})
	}
	return j.result
}

func (s *Service) worker() {
	defer s.wg.Done()
	for {
		select {
		case j := <-s.full:
			s.run(j)
			continue
		default:
		}

		select {
		case j := <-s.full:
			s.run(j)
		case j := <-s.chunks:
			s.run(j)
		case <-s.quit:
			s.drain()
			return
		}
	}
}

// drain fails every job still queued at shutdown.
func (s *Service) drain() {
	for {
		select {
		case j := <-s.full:
			j.result <- Result{Err: ErrNotInitialized}
		case j := <-s.chunks:
			j.result <- Result{Err: ErrNotInitialized}
		default:
			return
		}
	}
}

func (s *Service) run(j job) {
	if err := j.ctx.Err(); err != nil {
		j.result <- Result{Err: err}
		return
	}

	if j.mode == Full {
		info, err := InspectArtifact(j.audio.Path)
		if err != nil {
			j.result <- Result{Err: newTranscriptionError(Full, err)}
			return
		}
		if info.Samples == 0 {
			s.log.Info().Msg("empty recording, nothing to transcribe")
			j.result <- Result{}
			return
		}
		s.log.Debug().Dur("audio", info.Duration).Msg("transcribing recording")
	}

	start := time.Now()
	segments, err := s.engine.Transcribe(j.ctx, j.audio, s.cfg.params(j.mode))
	if err != nil {
		s.log.Warn().Err(err).Str("mode", j.mode.String()).Dur("took", time.Since(start)).Msg("transcription failed")
		j.result <- Result{Err: newTranscriptionError(j.mode, err)}
		return
	}

	text := joinSegments(segments)
	ev := s.log.Debug()
	if j.mode == Full {
		ev = s.log.Info()
	}
	ev.Str("mode", j.mode.String()).Int("segments", len(segments)).Dur("took", time.Since(start)).Int("chars", len(text)).Msg("transcribed")
	j.result <- Result{Text: text}
}

// Unload stops the worker and releases the engine. Only the first call
// does anything, and it is safe without a prior Load.
func (s *Service) Unload() error {
	s.unloadOnce.Do(func() {
		s.loadMu.Lock()
		defer s.loadMu.Unlock()

		close(s.quit)
		s.wg.Wait()
		if s.loaded.Swap(false) {
			s.unloadErr = s.engine.Close()
			s.log.Info().Msg("model unloaded")
		}
	})
	return s.unloadErr
}

func done(r Result) <-chan Result {
	ch := make(chan Result, 1)
	ch <- r
	return ch
}

func wait(ctx context.Context, ch <-chan Result) (string, error) {
	select {
	case r := <-ch:
		return r.Text, r.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
