package supervisor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"
)

func requireBinary(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}

func TestProcess_StartReadyStop(t *testing.T) {
	sleep := requireBinary(t, "sleep")

	var calls atomic.Int32
	p := New(Config{
		Name:   "sleeper",
		Binary: sleep,
		Args:   []string{"30"},
		Health: func(ctx context.Context) error {
			if calls.Add(1) < 3 {
				return errors.New("loading")
			}
			return nil
		},
		HealthInterval: 10 * time.Millisecond,
		HealthAttempts: 10,
		GracePeriod:    time.Second,
	})

	if p.State() != Unloaded {
		t.Fatalf("initial state = %v, want unloaded", p.State())
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !p.Ready() {
		t.Fatalf("state after Start = %v, want ready", p.State())
	}
	if calls.Load() != 3 {
		t.Errorf("health called %d times, want 3", calls.Load())
	}
	if p.PID() == 0 {
		t.Error("PID() = 0 for a running process")
	}

	if err := p.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.State() != Stopped {
		t.Errorf("state after Stop = %v, want stopped", p.State())
	}
	if err := p.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestProcess_HealthTimeout(t *testing.T) {
	sleep := requireBinary(t, "sleep")

	p := New(Config{
		Binary:         sleep,
		Args:           []string{"30"},
		Health:         func(ctx context.Context) error { return errors.New("never") },
		HealthInterval: 5 * time.Millisecond,
		HealthAttempts: 3,
		GracePeriod:    time.Second,
	})

	err := p.Start(context.Background())
	if !errors.Is(err, ErrHealthTimeout) {
		t.Fatalf("Start() error = %v, want ErrHealthTimeout", err)
	}
	if p.State() != Stopped {
		t.Errorf("state = %v, want stopped after timeout", p.State())
	}
}

func TestProcess_ExitsBeforeReady(t *testing.T) {
	falseBin := requireBinary(t, "false")

	p := New(Config{
		Binary:         falseBin,
		Health:         func(ctx context.Context) error { return errors.New("down") },
		HealthInterval: 20 * time.Millisecond,
		HealthAttempts: 50,
	})

	err := p.Start(context.Background())
	if !errors.Is(err, ErrExited) {
		t.Fatalf("Start() error = %v, want ErrExited", err)
	}
}

func TestProcess_StopBeforeStart(t *testing.T) {
	p := New(Config{Binary: "unused"})
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() before Start error = %v", err)
	}
	if p.State() != Unloaded {
		t.Errorf("state = %v, want unloaded", p.State())
	}
}

func TestProcess_MissingBinary(t *testing.T) {
	p := New(Config{Binary: "/nonexistent/llama-server"})
	if err := p.Start(context.Background()); err == nil {
		t.Fatal("Start() with missing binary should fail")
	}
}

func TestHTTPHealth(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"ok", http.StatusOK, `{"status":"ok"}`, false},
		{"loading", http.StatusServiceUnavailable, `{"error":{"message":"Loading model"}}`, true},
		{"wrong status field", http.StatusOK, `{"status":"loading model"}`, true},
		{"garbage", http.StatusOK, `not json`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := HTTPHealth(srv.Client(), srv.URL+"/health")(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HTTPHealth() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
