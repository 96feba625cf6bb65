package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/history"
	"github.com/leonardotrapani/hyprdictate/internal/injection"
	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/pipeline"
	"github.com/leonardotrapani/hyprdictate/internal/recording"
	"github.com/leonardotrapani/hyprdictate/internal/transcriber"
)

type historyStore interface {
	pipeline.History
	List(ctx context.Context) ([]history.Item, error)
	Clear(ctx context.Context) error
}

// components are the long-lived collaborators of the controller. They are
// built once at startup; changing any of them needs a restart.
type components struct {
	recorder    pipeline.Recorder
	transcriber pipeline.Transcriber
	corrector   pipeline.Corrector
	injector    pipeline.Injector
	history     historyStore

	// optional
	transcriberReady func() bool
	correctionReady  func() bool
	startCorrection  func(ctx context.Context, cfg *config.Config) error

	closers []func() error
}

func (c *components) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// close runs the closers in reverse order of registration.
func (c *components) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *components) deps(observer pipeline.Observer) pipeline.Deps {
	deps := pipeline.Deps{
		Recorder:    c.recorder,
		Transcriber: c.transcriber,
		Corrector:   c.corrector,
		Injector:    c.injector,
		Observer:    observer,
	}
	if c.history != nil {
		deps.History = c.history
	}
	return deps
}

// buildComponents wires the real recorder, whisper engine, correction
// backend, injector and history store. Only a failure to load the whisper
// model is fatal; the rest degrade and are logged.
func (d *Daemon) buildComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	c := &components{}

	recCfg := cfg.ToRecordingConfig()
	if err := recording.CheckAvailable(ctx, recCfg); err != nil {
		d.log.Warn().Err(err).Msg("microphone unavailable, recordings will fail until it is fixed")
	}
	src, err := recording.NewSource(recCfg)
	if err != nil {
		return nil, fmt.Errorf("capture source: %w", err)
	}
	c.recorder = recording.NewRecorder(recCfg, src)

	trCfg := cfg.ToTranscriberConfig()
	engine, err := transcriber.NewEngine(trCfg)
	if err != nil {
		return nil, err
	}
	svc := transcriber.NewService(trCfg, engine)
	modelPath, err := cfg.WhisperModelPath()
	if err != nil {
		return nil, err
	}
	if err := svc.Load(ctx, modelPath); err != nil {
		_ = svc.Unload()
		return nil, fmt.Errorf("load whisper model: %w", err)
	}
	c.transcriber = svc
	c.transcriberReady = svc.Loaded
	c.onClose(svc.Unload)

	inj, err := injection.NewInjector(cfg.ToInjectionConfig())
	if err != nil {
		c.close()
		return nil, err
	}
	c.injector = inj

	if cfg.History.Enabled {
		if path, err := cfg.HistoryPath(); err != nil {
			d.log.Warn().Err(err).Msg("history disabled")
		} else if store, err := history.Open(ctx, path, cfg.History.MaxItems); err != nil {
			d.log.Warn().Err(err).Str("path", path).Msg("history disabled")
		} else {
			c.history = store
			c.onClose(store.Close)
		}
	}

	llmCfg := cfg.ToCorrectionConfig()
	backend, err := llm.NewBackend(llmCfg)
	if err != nil {
		c.close()
		return nil, err
	}
	corr := llm.NewService(llmCfg, backend)
	c.corrector = corr
	c.correctionReady = corr.Ready
	c.onClose(corr.Stop)

	starter := &correctionStarter{ready: corr.Ready, start: corr.Start}
	c.startCorrection = starter.run

	return c, nil
}

// correctionStarter brings the correction backend up on demand. A failed
// start is retried on the next call; a ready backend is left alone.
type correctionStarter struct {
	mu    sync.Mutex
	ready func() bool
	start func(ctx context.Context, modelPath string) error
}

func (s *correctionStarter) run(ctx context.Context, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready() {
		return nil
	}
	path, err := cfg.LLMModelPath()
	if err != nil {
		return err
	}
	return s.start(ctx, path)
}
