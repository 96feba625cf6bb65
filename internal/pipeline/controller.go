package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/hotkey"
	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/leonardotrapani/hyprdictate/internal/recording"
	"github.com/rs/zerolog"
)

type commandKind int

const (
	cmdPress commandKind = iota
	cmdRelease
	cmdToggle
	cmdCycleStyle
	cmdHistory
	cmdReset
	cmdConfigure
)

func (k commandKind) String() string {
	return [...]string{"press", "release", "toggle", "style-cycle", "history", "reset", "configure"}[k]
}

type command struct {
	kind commandKind
	cfg  Config
}

type session struct {
	id       uint64
	cfg      Config
	artifact recording.Artifact
	started  time.Time
	preview  *previewLoop
}

type cycleDone struct {
	id     uint64
	result Result
}

// Status is a point-in-time view of the controller for status queries.
type Status struct {
	State      State
	Style      llm.Style
	Correction bool
	Preview    string
	Level      float64
}

// Controller serializes every state change on one goroutine. The exported
// methods only queue commands, so they are safe to call from input
// callbacks.
type Controller struct {
	deps     Deps
	observer Observer
	log      zerolog.Logger

	cmds     chan command
	done     chan cycleDone
	previews chan previewText

	// owned by the control goroutine
	cfg     Config
	style   llm.Style
	state   State
	active  bool
	session *session
	nextID  uint64

	mu       sync.RWMutex
	snapshot Status

	runOnce  sync.Once
	cancel   context.CancelFunc
	loopDone chan struct{}
	workers  sync.WaitGroup
}

func NewController(cfg Config, deps Deps) *Controller {
	observer := deps.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	c := &Controller{
		deps:     deps,
		observer: observer,
		log:      logging.Component("pipeline"),
		cmds:     make(chan command, 16),
		done:     make(chan cycleDone, 1),
		previews: make(chan previewText, 1),
		cfg:      cfg,
		style:    cfg.Style,
		loopDone: make(chan struct{}),
	}
	c.publish()
	return c
}

// Run starts the control goroutine. It stops when ctx is cancelled or
// Close is called.
func (c *Controller) Run(ctx context.Context) {
	c.runOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		c.cancel = cancel
		go c.loop(ctx)
	})
}

// Close stops the control goroutine, discards an open recording and waits
// for in-flight work to return.
func (c *Controller) Close() {
	c.runOnce.Do(func() { close(c.loopDone) })
	if c.cancel != nil {
		c.cancel()
	}
	<-c.loopDone
	c.workers.Wait()
}

func (c *Controller) Press()      { c.send(command{kind: cmdPress}) }
func (c *Controller) Release()    { c.send(command{kind: cmdRelease}) }
func (c *Controller) Toggle()     { c.send(command{kind: cmdToggle}) }
func (c *Controller) CycleStyle() { c.send(command{kind: cmdCycleStyle}) }
func (c *Controller) History()    { c.send(command{kind: cmdHistory}) }
func (c *Controller) Reset()      { c.send(command{kind: cmdReset}) }

// Configure replaces the settings used by the next session.
func (c *Controller) Configure(cfg Config) {
	c.send(command{kind: cmdConfigure, cfg: cfg})
}

// HandleHotkey maps classified hotkey events onto controller commands.
func (c *Controller) HandleHotkey(ev hotkey.Event) {
	switch ev {
	case hotkey.Press:
		c.Press()
	case hotkey.Release:
		c.Release()
	case hotkey.HistoryShortcut:
		c.History()
	case hotkey.StyleCycleShortcut:
		c.CycleStyle()
	}
}

func (c *Controller) send(cmd command) {
	select {
	case c.cmds <- cmd:
	default:
		c.log.Warn().Stringer("command", cmd.kind).Msg("command queue full, dropping")
	}
}

func (c *Controller) Status() Status {
	c.mu.RLock()
	s := c.snapshot
	c.mu.RUnlock()
	if s.State.Phase == Recording {
		s.Level = c.deps.Recorder.Level()
	}
	return s
}

func (c *Controller) State() State {
	return c.Status().State
}

func (c *Controller) loop(ctx context.Context) {
	defer close(c.loopDone)
	for {
		select {
		case cmd := <-c.cmds:
			c.handle(ctx, cmd)
		case d := <-c.done:
			c.finish(d)
		case p := <-c.previews:
			c.showPreview(p)
		case <-ctx.Done():
			c.shutdown()
			return
		}
	}
}

func (c *Controller) handle(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdPress:
		if !c.active {
			c.startSession(ctx)
			return
		}
		if c.session.cfg.Mode == hotkey.Toggle {
			c.stopSession(ctx)
			return
		}
		c.log.Debug().Msg("press while already recording, ignored")

	case cmdRelease:
		if c.active && c.session.cfg.Mode == hotkey.Hold {
			c.stopSession(ctx)
		}

	case cmdToggle:
		if c.active {
			c.stopSession(ctx)
		} else {
			c.startSession(ctx)
		}

	case cmdCycleStyle:
		if !c.cfg.Correction {
			c.log.Debug().Msg("style cycle ignored, correction is disabled")
			return
		}
		c.style = c.style.Next()
		c.publish()
		c.log.Info().Str("style", c.style.String()).Msg("writing style changed")
		c.observer.StyleChanged(c.style)

	case cmdHistory:
		c.observer.HistoryRequested()

	case cmdReset:
		if c.state.Phase == Error {
			c.setState(State{Phase: Idle})
		}

	case cmdConfigure:
		c.cfg = cmd.cfg
		changed := c.style != cmd.cfg.Style
		c.style = cmd.cfg.Style
		c.publish()
		if changed {
			c.observer.StyleChanged(c.style)
		}
	}
}

func (c *Controller) startSession(ctx context.Context) {
	if c.state.Phase == Processing {
		c.log.Info().Msg("still processing the previous recording, ignoring start")
		return
	}

	cfg := c.cfg
	artifact, err := c.deps.Recorder.Start(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to start recording")
		c.setState(State{Phase: Error, Message: err.Error()})
		return
	}

	c.nextID++
	s := &session{id: c.nextID, cfg: cfg, artifact: artifact, started: time.Now()}
	c.active = true
	c.session = s
	c.setState(State{Phase: Recording})

	if cfg.Preview && cfg.PreviewInterval > 0 && cfg.PreviewWindow > 0 {
		s.preview = c.startPreview(ctx, s)
	}
}

func (c *Controller) stopSession(ctx context.Context) {
	s := c.session
	c.active = false
	c.session = nil

	if s.preview != nil {
		s.preview.stop()
	}
	c.setPreview("")

	artifact, ok := c.deps.Recorder.Stop()
	if !ok {
		c.log.Warn().Msg("recorder had no open session")
		if err := s.artifact.Remove(); err != nil {
			c.log.Warn().Err(err).Msg("failed to remove recording")
		}
		c.setState(State{Phase: Idle})
		return
	}

	c.log.Info().Dur("recorded", time.Since(s.started)).Msg("recording finished, processing")
	c.setState(State{Phase: Processing})

	cy := &cycle{artifact: artifact, cfg: s.cfg, style: c.style}
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		res := c.process(ctx, cy)
		select {
		case c.done <- cycleDone{id: s.id, result: res}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) finish(d cycleDone) {
	res := d.result
	log := c.log.Info()
	if res.Err != nil {
		log = c.log.Error().Err(res.Err)
	}
	log.Int("chars", len(res.Text)).Bool("corrected", res.Corrected != "").Dur("took", res.Duration).Msg("processing finished")

	c.observer.Completed(res)
	if res.Err != nil {
		c.setState(State{Phase: Error, Message: res.Err.Error()})
		return
	}
	c.setState(State{Phase: Idle})
}

func (c *Controller) shutdown() {
	if !c.active {
		return
	}
	s := c.session
	c.active = false
	c.session = nil
	if s.preview != nil {
		s.preview.stop()
	}
	if artifact, ok := c.deps.Recorder.Stop(); ok {
		s.artifact = artifact
	}
	if err := s.artifact.Remove(); err != nil {
		c.log.Warn().Err(err).Msg("failed to remove recording")
	}
	c.log.Info().Msg("recording discarded on shutdown")
}

func (c *Controller) setState(s State) {
	c.state = s
	c.publish()
	c.log.Debug().Stringer("state", s).Msg("state changed")
	c.observer.StateChanged(s)
}

func (c *Controller) setPreview(text string) {
	c.mu.Lock()
	changed := c.snapshot.Preview != text
	c.snapshot.Preview = text
	c.mu.Unlock()
	if changed {
		c.observer.PreviewChanged(text)
	}
}

func (c *Controller) publish() {
	c.mu.Lock()
	c.snapshot.State = c.state
	c.snapshot.Style = c.style
	c.snapshot.Correction = c.cfg.Correction
	c.mu.Unlock()
}
