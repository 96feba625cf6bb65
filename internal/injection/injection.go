// Package injection types dictated text into the focused window, trying each
// configured backend in order and ending on the clipboard.
package injection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyText    = errors.New("cannot inject empty text")
	ErrNoBackend    = errors.New("no injection backend succeeded")
	DefaultBackends = []string{"ydotool", "wtype", "clipboard"}
)

type Injector interface {
	Inject(ctx context.Context, text string) error
}

type Config struct {
	Backends         []string      // tried in order
	CopyToClipboard  bool          // also leave the text on the clipboard
	RestoreClipboard bool          // put the previous clipboard back after typing
	TypeTimeout      time.Duration // per typing attempt
	ClipboardTimeout time.Duration
	RestoreDelay     time.Duration
}

func DefaultConfig() Config {
	return Config{
		Backends:         DefaultBackends,
		RestoreClipboard: true,
		TypeTimeout:      5 * time.Second,
		ClipboardTimeout: 3 * time.Second,
		RestoreDelay:     100 * time.Millisecond,
	}
}

type injector struct {
	config   Config
	backends []Backend
	clip     *clipboard
	log      zerolog.Logger
}

func NewInjector(config Config) (Injector, error) {
	return newInjector(config, execRunner{})
}

func newInjector(config Config, run runner) (*injector, error) {
	if len(config.Backends) == 0 {
		config.Backends = DefaultBackends
	}
	clip := &clipboard{run: run}
	i := &injector{config: config, clip: clip, log: logging.Component("injection")}

	for _, name := range config.Backends {
		switch name {
		case "ydotool":
			i.backends = append(i.backends, &ydotoolBackend{run: run})
		case "wtype":
			i.backends = append(i.backends, &wtypeBackend{run: run})
		case "clipboard":
			i.backends = append(i.backends, &clipboardBackend{clip: clip})
		default:
			return nil, fmt.Errorf("unsupported injection backend: %s", name)
		}
	}
	return i, nil
}

// Inject tries each backend in turn and stops at the first that works.
func (i *injector) Inject(ctx context.Context, text string) error {
	if text == "" {
		return ErrEmptyText
	}

	var previous string
	if i.config.RestoreClipboard && i.config.CopyToClipboard {
		previous = i.clip.get(ctx, i.config.ClipboardTimeout)
	}
	if i.config.CopyToClipboard {
		if err := i.clip.set(ctx, text, i.config.ClipboardTimeout); err != nil {
			i.log.Warn().Err(err).Msg("failed to copy text to clipboard")
		}
	}

	var errs []error
	for _, b := range i.backends {
		if err := b.Available(); err != nil {
			i.log.Debug().Str("backend", b.Name()).Err(err).Msg("backend unavailable")
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		if err := b.Inject(ctx, text, i.config.TypeTimeout); err != nil {
			i.log.Warn().Str("backend", b.Name()).Err(err).Msg("injection failed, trying next backend")
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}

		i.log.Info().Str("backend", b.Name()).Int("chars", len(text)).Msg("text injected")
		if b.Name() != "clipboard" && previous != "" {
			i.restore(previous)
		}
		return nil
	}

	return fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(errs...))
}

// restore puts the old clipboard back once the typed text has landed.
func (i *injector) restore(previous string) {
	go func() {
		time.Sleep(i.config.RestoreDelay)
		ctx, cancel := context.WithTimeout(context.Background(), i.config.ClipboardTimeout)
		defer cancel()
		if err := i.clip.set(ctx, previous, i.config.ClipboardTimeout); err != nil {
			i.log.Debug().Err(err).Msg("clipboard restore failed")
		}
	}()
}
