package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/bus"
	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/history"
	"github.com/leonardotrapani/hyprdictate/internal/hotkey"
	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/notify"
	"github.com/leonardotrapani/hyprdictate/internal/pipeline"
	"github.com/leonardotrapani/hyprdictate/internal/testutil"
)

const waitTimeout = 3 * time.Second

type fakeHistory struct {
	*testutil.MockHistory

	mu      sync.Mutex
	cleared int
}

func (f *fakeHistory) List(ctx context.Context) ([]history.Item, error) {
	entries := f.Entries()
	items := make([]history.Item, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		items = append(items, history.Item{Raw: entries[i].Raw, Corrected: entries[i].Corrected})
	}
	return items, nil
}

func (f *fakeHistory) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

func (f *fakeHistory) clears() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

type harness struct {
	daemon  *Daemon
	path    string
	rec     *testutil.MockRecorder
	inj     *testutil.MockInjector
	corr    *testutil.MockCorrector
	history *fakeHistory
	errCh   chan error
}

const baseConfig = `
[hotkey]
source = "socket"
key = "f9"
mode = "hold"

[transcription]
preview = false

[notifications]
enabled = false
sound = false
`

func startDaemon(t *testing.T, extra string) *harness {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(baseConfig+extra), 0o600); err != nil {
		t.Fatal(err)
	}
	mgr, err := config.NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	h := &harness{
		path:    path,
		rec:     testutil.NewMockRecorder(t.TempDir()),
		inj:     testutil.NewMockInjector(),
		corr:    testutil.NewMockCorrector("Hello, world."),
		history: &fakeHistory{MockHistory: testutil.NewMockHistory()},
		errCh:   make(chan error, 1),
	}
	h.daemon = New(mgr, "test")
	h.daemon.build = func(ctx context.Context, cfg *config.Config) (*components, error) {
		return &components{
			recorder:    h.rec,
			transcriber: testutil.NewMockTranscriber("hello world"),
			corrector:   h.corr,
			injector:    h.inj,
			history:     h.history,
		}, nil
	}

	go func() { h.errCh <- h.daemon.Run() }()

	testutil.WaitForCondition(t, func() bool {
		_, err := bus.SendCommand(bus.CmdStatus)
		return err == nil
	}, waitTimeout)

	t.Cleanup(func() {
		bus.SendCommand(bus.CmdQuit)
		select {
		case err := <-h.errCh:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(waitTimeout):
			t.Error("daemon did not exit within timeout")
		}
	})
	return h
}

func send(t *testing.T, cmd byte) string {
	t.Helper()
	reply, err := bus.SendCommand(cmd)
	if err != nil {
		t.Fatalf("SendCommand(%c) error = %v", cmd, err)
	}
	return reply
}

func status(t *testing.T) map[string]string {
	t.Helper()
	_, fields, err := bus.ParseReply(send(t, bus.CmdStatus))
	if err != nil {
		t.Fatalf("status reply: %v", err)
	}
	return fields
}

func waitStatus(t *testing.T, key, want string) {
	t.Helper()
	testutil.WaitForCondition(t, func() bool { return status(t)[key] == want }, waitTimeout)
}

func TestDaemon_HoldCycleOverSocket(t *testing.T) {
	h := startDaemon(t, "")

	if got := send(t, bus.CmdPress); got != "OK pressed\n" {
		t.Fatalf("press reply = %q", got)
	}
	waitStatus(t, "state", "recording")

	// repeated press while held is swallowed by the classifier
	send(t, bus.CmdPress)
	send(t, bus.CmdRelease)
	waitStatus(t, "state", "idle")

	if h.rec.Starts() != 1 {
		t.Errorf("recorder starts = %d, want 1", h.rec.Starts())
	}
	testutil.WaitForCondition(t, func() bool { return len(h.inj.GetInjectedTexts()) == 1 }, waitTimeout)
	if got := h.inj.GetInjectedTexts()[0]; got != "hello world" {
		t.Errorf("injected %q", got)
	}
	if entries := h.history.Entries(); len(entries) != 1 || entries[0].Corrected != "" {
		t.Errorf("history = %+v", entries)
	}
}

func TestDaemon_Commands(t *testing.T) {
	h := startDaemon(t, "")

	t.Run("toggle", func(t *testing.T) {
		send(t, bus.CmdToggle)
		waitStatus(t, "state", "recording")
		send(t, bus.CmdToggle)
		waitStatus(t, "state", "idle")
	})

	t.Run("style ignored without correction", func(t *testing.T) {
		if got := send(t, bus.CmdStyle); got != "OK style\n" {
			t.Errorf("style reply = %q", got)
		}
		if s := status(t); s["style"] != "none" || s["correction"] != "false" {
			t.Errorf("status = %v", s)
		}
	})

	t.Run("history", func(t *testing.T) {
		if got := send(t, bus.CmdHistory); got != "OK history\n" {
			t.Errorf("history reply = %q", got)
		}
		if got := send(t, bus.CmdHistoryClear); got != "OK cleared\n" {
			t.Errorf("clear reply = %q", got)
		}
		if h.history.clears() != 1 {
			t.Errorf("Clear called %d times, want 1", h.history.clears())
		}
	})

	t.Run("version", func(t *testing.T) {
		_, fields, err := bus.ParseReply(send(t, bus.CmdVersion))
		if err != nil {
			t.Fatal(err)
		}
		if fields["proto"] != bus.ProtoVer || fields["version"] != "test" {
			t.Errorf("version fields = %v", fields)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if got := send(t, 'x'); got != "ERR unknown='x'\n" {
			t.Errorf("unknown reply = %q", got)
		}
	})
}

func TestDaemon_RefusesSecondInstance(t *testing.T) {
	startDaemon(t, "")

	mgr, err := config.NewManager(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatal(err)
	}
	second := New(mgr, "test")
	second.build = func(context.Context, *config.Config) (*components, error) {
		t.Error("second daemon built its components")
		return nil, errors.New("unreachable")
	}
	if err := second.Run(); err == nil {
		t.Fatal("second daemon started while the first is running")
	}
}

func TestDaemon_StyleCyclePersists(t *testing.T) {
	h := startDaemon(t, "\n[correction]\nenabled = true\n")

	send(t, bus.CmdStyle)
	waitStatus(t, "style", "professional")

	testutil.WaitForCondition(t, func() bool {
		cfg, err := config.LoadFile(h.path)
		return err == nil && cfg.Correction.Style == "professional"
	}, waitTimeout)

	send(t, bus.CmdStyle)
	waitStatus(t, "style", "casual")
	testutil.WaitForCondition(t, func() bool {
		cfg, err := config.LoadFile(h.path)
		return err == nil && cfg.Correction.Style == "casual"
	}, waitTimeout)

	// the write-back reload must not undo the cycle
	time.Sleep(100 * time.Millisecond)
	if got := status(t)["style"]; got != "casual" {
		t.Errorf("style after reload = %q, want casual", got)
	}

	send(t, bus.CmdToggle)
	waitStatus(t, "state", "recording")
	send(t, bus.CmdToggle)
	testutil.WaitForCondition(t, func() bool { return len(h.inj.GetInjectedTexts()) == 1 }, waitTimeout)
	if calls := h.corr.Calls(); len(calls) != 1 || calls[0].Style != llm.Casual {
		t.Errorf("corrector calls = %+v", calls)
	}
}

func TestHotkeyInput(t *testing.T) {
	var got []hotkey.Event
	in := newHotkeyInput(hotkey.Config{Key: hotkey.KeyRightCtrl, Mode: hotkey.Hold}, func(ev hotkey.Event) {
		got = append(got, ev)
	})

	in.trigger(true)
	in.trigger(true)
	in.trigger(false)
	in.trigger(false)
	in.handle(hotkey.RawEvent{Code: hotkey.KeyH, Kind: hotkey.KeyDown, Modifiers: hotkey.ModSuper | hotkey.ModShift})

	in.reconfigure(hotkey.Config{Key: hotkey.KeyRightCtrl, Mode: hotkey.Toggle})
	in.trigger(true)
	in.trigger(false)

	want := []hotkey.Event{hotkey.Press, hotkey.Release, hotkey.HistoryShortcut, hotkey.Press}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

type sent struct {
	t      notify.MessageType
	detail string
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []sent
}

func (r *recordingNotifier) Send(t notify.MessageType, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{t, detail})
}

type staticHistory []history.Item

func (s staticHistory) List(context.Context) ([]history.Item, error) { return s, nil }

func TestNotifyObserver(t *testing.T) {
	n := &recordingNotifier{}
	var persisted []llm.Style
	o := newNotifyObserver(n, func(s llm.Style) { persisted = append(persisted, s) }, staticHistory{
		{Raw: "second one"},
		{Raw: "first", Corrected: "First."},
	})

	o.StateChanged(pipeline.State{Phase: pipeline.Recording})
	o.StateChanged(pipeline.State{Phase: pipeline.Processing})
	o.StateChanged(pipeline.State{Phase: pipeline.Idle})
	o.Completed(pipeline.Result{Raw: "hi there", Text: "hi there", Fallback: llm.ErrServerNotRunning})
	o.StateChanged(pipeline.State{Phase: pipeline.Error, Message: "microphone unavailable"})
	o.StyleChanged(llm.Funny)
	o.HistoryRequested()
	o.close()

	want := []sent{
		{notify.RecordingStarted, ""},
		{notify.Transcribing, ""},
		{notify.CorrectionUnavailable, llm.ErrServerNotRunning.Error()},
		{notify.Injected, "hi there"},
		{notify.Error, "microphone unavailable"},
		{notify.StyleChanged, "Funny (4)"},
		{notify.HistoryShown, "1. second one\n2. First."},
	}
	if len(n.msgs) != len(want) {
		t.Fatalf("sent %+v, want %+v", n.msgs, want)
	}
	for i := range want {
		if n.msgs[i] != want[i] {
			t.Errorf("message[%d] = %+v, want %+v", i, n.msgs[i], want[i])
		}
	}
	if len(persisted) != 1 || persisted[0] != llm.Funny {
		t.Errorf("persisted = %v", persisted)
	}
}

func TestFormatHistory(t *testing.T) {
	if got := formatHistory(nil); got != "No dictations yet" {
		t.Errorf("formatHistory(nil) = %q", got)
	}
	long := strings.Repeat("a", 200)
	got := formatHistory([]history.Item{{Raw: long}})
	if r := []rune(got); len(r) != len("1. ")+maxDetailChars {
		t.Errorf("long entry rendered as %d runes", len(r))
	}
}

func TestCorrectionStarter_RetriesAfterFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Correction.Backend = "openai"
	cfg.Correction.Model = "qwen2.5-3b"

	var (
		ready   bool
		calls   []string
		results = []error{errors.New("health check timed out"), nil}
	)
	s := &correctionStarter{
		ready: func() bool { return ready },
		start: func(ctx context.Context, modelPath string) error {
			calls = append(calls, modelPath)
			err := results[len(calls)-1]
			ready = err == nil
			return err
		},
	}

	steps := []struct {
		name      string
		wantErr   bool
		wantCalls int
	}{
		{name: "first start fails", wantErr: true, wantCalls: 1},
		{name: "reload retries", wantCalls: 2},
		{name: "ready backend is left alone", wantCalls: 2},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			err := s.run(context.Background(), cfg)
			if (err != nil) != step.wantErr {
				t.Fatalf("run() error = %v, wantErr %v", err, step.wantErr)
			}
			if len(calls) != step.wantCalls {
				t.Errorf("start calls = %d, want %d", len(calls), step.wantCalls)
			}
		})
	}
	if calls[0] != "qwen2.5-3b" {
		t.Errorf("model path = %q, want qwen2.5-3b", calls[0])
	}
}
