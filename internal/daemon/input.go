package daemon

import (
	"context"
	"sync"

	"github.com/leonardotrapani/hyprdictate/internal/hotkey"
)

type hotkeySource interface {
	Start(ctx context.Context, h hotkey.Handler) error
	Close() error
}

// hotkeyInput feeds keyboard events and socket triggers through one
// classifier, so both paths share the hold/toggle gating.
type hotkeyInput struct {
	mu         sync.Mutex
	cfg        hotkey.Config
	classifier *hotkey.Classifier
	dispatch   func(hotkey.Event)
}

func newHotkeyInput(cfg hotkey.Config, dispatch func(hotkey.Event)) *hotkeyInput {
	return &hotkeyInput{
		cfg:        cfg,
		classifier: hotkey.NewClassifier(cfg.Key, cfg.Mode),
		dispatch:   dispatch,
	}
}

// reconfigure swaps the classifier when the key or mode changed. Source and
// device changes need a restart.
func (in *hotkeyInput) reconfigure(cfg hotkey.Config) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if cfg.Key == in.cfg.Key && cfg.Mode == in.cfg.Mode {
		return
	}
	in.cfg.Key, in.cfg.Mode = cfg.Key, cfg.Mode
	in.classifier = hotkey.NewClassifier(cfg.Key, cfg.Mode)
}

func (in *hotkeyInput) handle(ev hotkey.RawEvent) {
	in.mu.Lock()
	res := in.classifier.Handle(ev)
	in.mu.Unlock()
	in.emit(res)
}

func (in *hotkeyInput) trigger(down bool) {
	in.mu.Lock()
	res := in.classifier.Trigger(down)
	in.mu.Unlock()
	in.emit(res)
}

func (in *hotkeyInput) emit(res hotkey.Result) {
	for _, ev := range res.Events {
		in.dispatch(ev)
	}
}
