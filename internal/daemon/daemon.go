// Package daemon owns every long-lived component and serves the control
// socket.
package daemon

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/bus"
	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/hotkey"
	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/leonardotrapani/hyprdictate/internal/notify"
	"github.com/leonardotrapani/hyprdictate/internal/pipeline"
	"github.com/rs/zerolog"
)

const clientTimeout = 5 * time.Second

type Daemon struct {
	mgr     *config.Manager
	version string
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	build     func(ctx context.Context, cfg *config.Config) (*components, error)
	newSource func(cfg hotkey.Config) hotkeySource

	comps    *components
	ctrl     *pipeline.Controller
	observer *notifyObserver
	input    *hotkeyInput
	bg       sync.WaitGroup

	cfgMu         sync.Mutex
	started       *config.Config
	appliedStyle  string
	appliedPrompt string
}

func New(mgr *config.Manager, version string) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		mgr:     mgr,
		version: version,
		log:     logging.Component("daemon"),
		ctx:     ctx,
		cancel:  cancel,
	}
	d.build = d.buildComponents
	d.newSource = func(cfg hotkey.Config) hotkeySource { return hotkey.NewEvdevSource(cfg.Device) }
	return d
}

// Stop asks a running daemon to shut down.
func (d *Daemon) Stop() { d.cancel() }

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	cfg := d.mgr.GetConfig()
	d.started = cfg
	d.appliedStyle, d.appliedPrompt = cfg.Correction.Style, cfg.Correction.CustomPrompt

	comps, err := d.build(d.ctx, cfg)
	if err != nil {
		return err
	}
	d.comps = comps
	defer func() {
		if err := comps.close(); err != nil {
			d.log.Warn().Err(err).Msg("shutdown finished with errors")
		}
	}()

	ln, err := bus.Listen()
	if err != nil {
		return fmt.Errorf("control socket: %w", err)
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	notifier, err := notify.New(cfg.ToNotifyConfig())
	if err != nil {
		d.log.Warn().Err(err).Msg("notifications disabled")
		notifier = notify.Nop{}
	}
	var hist historyLister
	if comps.history != nil {
		hist = comps.history
	}
	d.observer = newNotifyObserver(notifier, d.persistStyle, hist)
	defer d.observer.close()

	d.ctrl = pipeline.NewController(cfg.ToPipelineConfig(), comps.deps(d.observer))
	d.ctrl.Run(d.ctx)
	defer d.ctrl.Close()

	if cfg.Correction.Enabled {
		d.startCorrection(cfg)
	}
	defer d.bg.Wait()

	hk, err := cfg.ToHotkeyConfig()
	if err != nil {
		d.log.Warn().Err(err).Msg("invalid hotkey, using defaults")
		hk, _ = config.DefaultConfig().ToHotkeyConfig()
	}
	d.input = newHotkeyInput(hk, d.ctrl.HandleHotkey)
	if hk.Source == "evdev" {
		src := d.newSource(hk)
		if err := src.Start(d.ctx, d.input.handle); err != nil {
			d.log.Error().Err(err).Msg("keyboard hotkey unavailable, use `hyprdictate toggle` from a compositor bind")
			d.observer.send(notify.Error, err.Error())
		} else {
			defer src.Close()
		}
	}

	d.mgr.OnChange(d.applyConfig)
	if err := d.mgr.StartWatching(d.ctx); err != nil {
		d.log.Warn().Err(err).Msg("config hot reload disabled")
	}
	defer d.mgr.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			d.log.Info().Stringer("signal", sig).Msg("shutting down")
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	d.log.Info().
		Str("hotkey", hotkey.KeyName(hk.Key)).
		Stringer("mode", hk.EffectiveMode()).
		Str("source", hk.Source).
		Msg("daemon started")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.log.Info().Msg("shutdown requested")
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) startCorrection(cfg *config.Config) {
	if d.comps.startCorrection == nil || d.ctx.Err() != nil {
		return
	}
	d.bg.Add(1)
	go func() {
		defer d.bg.Done()
		if err := d.comps.startCorrection(d.ctx, cfg); err != nil && d.ctx.Err() == nil {
			d.observer.send(notify.CorrectionUnavailable, err.Error())
		}
	}()
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(clientTimeout))

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		d.log.Debug().Err(err).Msg("client read error")
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]
	d.log.Debug().Str("command", string(cmd)).Msg("control command")

	switch cmd {
	case bus.CmdPress:
		d.input.trigger(true)
		fmt.Fprint(c, "OK pressed\n")
	case bus.CmdRelease:
		d.input.trigger(false)
		fmt.Fprint(c, "OK released\n")
	case bus.CmdToggle:
		d.ctrl.Toggle()
		fmt.Fprint(c, "OK toggled\n")
	case bus.CmdStyle:
		d.ctrl.CycleStyle()
		fmt.Fprint(c, "OK style\n")
	case bus.CmdHistory:
		d.ctrl.History()
		fmt.Fprint(c, "OK history\n")
	case bus.CmdHistoryClear:
		if d.comps.history == nil {
			fmt.Fprint(c, "ERR history_disabled\n")
			return
		}
		ctx, cancel := context.WithTimeout(d.ctx, clientTimeout)
		defer cancel()
		if err := d.comps.history.Clear(ctx); err != nil {
			fmt.Fprintf(c, "ERR %s\n", bus.Field("clear", err.Error()))
			return
		}
		fmt.Fprint(c, "OK cleared\n")
	case bus.CmdStatus:
		fmt.Fprintf(c, "STATUS %s\n", d.statusFields())
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s %s\n", bus.ProtoVer, bus.Field("version", d.version))
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		d.log.Warn().Str("command", string(cmd)).Msg("unknown command")
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

func (d *Daemon) statusFields() string {
	st := d.ctrl.Status()
	fields := []string{
		bus.Field("state", st.State.Phase.String()),
		bus.Field("style", st.Style.String()),
		bus.Field("correction", strconv.FormatBool(st.Correction)),
		bus.Field("level", strconv.FormatFloat(st.Level, 'f', 3, 64)),
	}
	if d.comps.correctionReady != nil {
		fields = append(fields, bus.Field("correction_ready", strconv.FormatBool(d.comps.correctionReady())))
	}
	if d.comps.transcriberReady != nil {
		fields = append(fields, bus.Field("model_loaded", strconv.FormatBool(d.comps.transcriberReady())))
	}
	if st.State.Message != "" {
		fields = append(fields, bus.Field("message", st.State.Message))
	}
	if st.Preview != "" {
		fields = append(fields, bus.Field("preview", st.Preview))
	}
	return strings.Join(fields, " ")
}

// applyConfig takes a reloaded config. The running style is kept unless the
// file names a different one than last applied, so writing back a cycled
// style never undoes a later cycle.
func (d *Daemon) applyConfig(cfg *config.Config) {
	pc := cfg.ToPipelineConfig()

	d.cfgMu.Lock()
	if cfg.Correction.Style == d.appliedStyle && cfg.Correction.CustomPrompt == d.appliedPrompt {
		pc.Style = d.ctrl.Status().Style
	}
	d.appliedStyle, d.appliedPrompt = cfg.Correction.Style, cfg.Correction.CustomPrompt
	started := d.started
	d.cfgMu.Unlock()

	d.ctrl.Configure(pc)

	if hk, err := cfg.ToHotkeyConfig(); err == nil {
		d.input.reconfigure(hk)
		if hk.Source != started.Hotkey.Source || hk.Device != started.Hotkey.Device {
			d.log.Warn().Msg("hotkey source changes take effect after a restart")
		}
	}
	if n, err := notify.New(cfg.ToNotifyConfig()); err == nil {
		d.observer.setNotifier(n)
	}
	if cfg.Correction.Enabled {
		d.startCorrection(cfg)
	}
	if cfg.Transcription != started.Transcription || cfg.Recording != started.Recording {
		d.log.Warn().Msg("recording and transcription changes take effect after a restart")
	}
	d.log.Info().Msg("configuration applied")
}

// persistStyle writes a cycled style back to the config file.
func (d *Daemon) persistStyle(s llm.Style) {
	d.cfgMu.Lock()
	if s.String() == d.appliedStyle {
		d.cfgMu.Unlock()
		return
	}
	d.appliedStyle = s.String()
	d.cfgMu.Unlock()

	if err := d.mgr.Update(func(c *config.Config) { c.Correction.Style = s.String() }); err != nil {
		d.log.Warn().Err(err).Msg("failed to save writing style")
	}
}
