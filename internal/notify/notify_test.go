package notify

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type recorded struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorded) run(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil
}

func (r *recorded) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

type collect struct {
	types []MessageType
}

func (c *collect) Send(t MessageType, detail string) { c.types = append(c.types, t) }

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		check   func(Notifier) bool
		wantErr bool
	}{
		{"disabled", Config{Enabled: false, Type: "desktop"}, func(n Notifier) bool { _, ok := n.(Nop); return ok }, false},
		{"none", Config{Enabled: true, Type: "none"}, func(n Notifier) bool { _, ok := n.(Nop); return ok }, false},
		{"desktop default", Config{Enabled: true}, func(n Notifier) bool { _, ok := n.(*Desktop); return ok }, false},
		{"log", Config{Enabled: true, Type: "log"}, func(n Notifier) bool { _, ok := n.(*Log); return ok }, false},
		{"sound wraps", Config{Enabled: true, Type: "log", Sound: true}, func(n Notifier) bool {
			s, ok := n.(*Sound)
			if !ok {
				return false
			}
			_, ok = s.Next.(*Log)
			return ok
		}, false},
		{"sound without visual", Config{Enabled: false, Sound: true}, func(n Notifier) bool {
			s, ok := n.(*Sound)
			if !ok {
				return false
			}
			_, ok = s.Next.(Nop)
			return ok
		}, false},
		{"unknown", Config{Enabled: true, Type: "dbus"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !tt.check(n) {
				t.Errorf("New() = %T", n)
			}
		})
	}
}

func TestMessages_Render(t *testing.T) {
	m := DefaultMessages().With(map[string]string{
		"recording_started": "Listening",
		"transcribing":      "",
	})

	tests := []struct {
		t      MessageType
		detail string
		want   string
	}{
		{RecordingStarted, "", "Listening"},
		{Transcribing, "", "Transcribing..."},
		{StyleChanged, "Funny", "Writing style: Funny"},
		{Error, "microphone unavailable", "Error: microphone unavailable"},
		{Injected, "hello world", "hello world"},
	}
	for _, tt := range tests {
		if got := m.render(tt.t, tt.detail); got != tt.want {
			t.Errorf("render(%s) = %q, want %q", tt.t.key(), got, tt.want)
		}
	}

	if DefaultMessages().Body["recording_started"] != "Recording started" {
		t.Error("With() modified the defaults")
	}
}

func TestDesktop_Send(t *testing.T) {
	rec := &recorded{}
	d := &Desktop{Messages: DefaultMessages(), run: rec.run}

	d.Send(Error, "model missing")
	d.Send(RecordingStarted, "")

	calls := rec.snapshot()
	if len(calls) != 2 {
		t.Fatalf("notify-send ran %d times", len(calls))
	}
	errCall := strings.Join(calls[0], " ")
	if calls[0][0] != "notify-send" || !strings.Contains(errCall, "-u critical") || !strings.HasSuffix(errCall, "Error: model missing") {
		t.Errorf("error notification = %q", errCall)
	}
	if !strings.Contains(strings.Join(calls[1], " "), "x-canonical-private-synchronous") {
		t.Errorf("status notification = %q", calls[1])
	}
}

func TestDesktop_SendFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	saved := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = saved }()

	d := &Desktop{
		Messages: DefaultMessages(),
		run: func(ctx context.Context, name string, args ...string) error {
			return errors.New("no notification daemon")
		},
	}
	d.Send(RecordingStarted, "")

	out := buf.String()
	if !strings.Contains(out, "failed to send notification") || !strings.Contains(out, "no notification daemon") {
		t.Errorf("failure not logged: %s", out)
	}
}

func TestSound_MissingCue(t *testing.T) {
	var buf bytes.Buffer
	saved := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	defer func() { log.Logger = saved }()
	savedLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	defer zerolog.SetGlobalLevel(savedLevel)

	rec := &recorded{}
	s := &Sound{Next: Nop{}, run: rec.run}
	s.play(filepath.Join(t.TempDir(), "gone.oga"))

	if len(rec.snapshot()) != 0 {
		t.Error("pw-play ran for a missing file")
	}
	if !strings.Contains(buf.String(), "sound cue missing") {
		t.Errorf("missing cue not logged: %s", buf.String())
	}
}

func TestSound_Send(t *testing.T) {
	dir := t.TempDir()
	cue := filepath.Join(dir, "start.oga")
	os.WriteFile(cue, []byte("ogg"), 0o644)

	saved := soundFiles
	soundFiles = map[MessageType]string{RecordingStarted: cue}
	defer func() { soundFiles = saved }()

	rec := &recorded{}
	next := &collect{}
	s := &Sound{Next: next, run: rec.run}

	s.Send(RecordingStarted, "")
	s.Send(Transcribing, "")

	deadline := time.Now().Add(time.Second)
	for len(rec.snapshot()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("pw-play never ran")
		}
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)

	calls := rec.snapshot()
	if len(calls) != 1 || calls[0][0] != "pw-play" || calls[0][1] != cue {
		t.Errorf("sound calls = %v", calls)
	}
	if len(next.types) != 2 {
		t.Errorf("forwarded %d messages, want 2", len(next.types))
	}
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	n.Send(Error, "ignored")
}
