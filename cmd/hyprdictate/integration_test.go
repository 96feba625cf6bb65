//go:build integration

package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/models"
	"github.com/leonardotrapani/hyprdictate/internal/transcriber"
)

// These tests drive the real whisper and llama binaries with the user's
// config. Run with: HYPRDICTATE_TEST_AUDIO=speech.wav go test -tags integration ./cmd/hyprdictate

const testTimeout = 2 * time.Minute

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func TestTranscriptionEngines(t *testing.T) {
	audio := os.Getenv("HYPRDICTATE_TEST_AUDIO")
	if audio == "" {
		t.Skip("HYPRDICTATE_TEST_AUDIO not set")
	}
	cfg := loadTestConfig(t)
	dir, err := cfg.ModelsDir()
	if err != nil {
		t.Fatal(err)
	}

	installed := models.Installed(dir, models.Whisper)
	if len(installed) == 0 {
		t.Skipf("no whisper models in %s", dir)
	}
	model := installed[0]
	for _, m := range installed[1:] {
		if m.SizeBytes < model.SizeBytes {
			model = m
		}
	}

	for _, engine := range []string{"whisper-cli", "whisper-server"} {
		t.Run(engine+"/"+model.ID, func(t *testing.T) {
			tc := cfg.ToTranscriberConfig()
			tc.Engine = engine
			e, err := transcriber.NewEngine(tc)
			if err != nil {
				t.Fatal(err)
			}
			svc := transcriber.NewService(tc, e)
			defer svc.Unload()

			ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
			defer cancel()

			start := time.Now()
			if err := svc.Load(ctx, models.Path(dir, models.Whisper, model.ID)); err != nil {
				t.Fatalf("load failed: %v", err)
			}
			text, err := svc.TranscribeArtifactSync(ctx, audio)
			if err != nil {
				t.Fatalf("transcription failed: %v", err)
			}
			if text == "" {
				t.Fatal("empty transcription")
			}
			t.Logf("%s: %q (%s)", engine, text, time.Since(start).Round(time.Millisecond))
		})
	}
}

func TestCorrectionStyles(t *testing.T) {
	cfg := loadTestConfig(t)
	if !cfg.Correction.Enabled {
		t.Skip("correction disabled in config")
	}
	modelPath, err := cfg.LLMModelPath()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Correction.Backend == "llama-server" && !models.IsInstalled(modelPath) {
		t.Skipf("correction model not installed: %s", modelPath)
	}

	backend, err := llm.NewBackend(cfg.ToCorrectionConfig())
	if err != nil {
		t.Fatal(err)
	}
	svc := llm.NewService(cfg.ToCorrectionConfig(), backend)
	defer svc.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := svc.Start(ctx, modelPath); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	const input = "so um i think we should meet tomorrow at three to talk about the the release"
	for _, style := range llm.Styles() {
		t.Run(style.String(), func(t *testing.T) {
			out, err := svc.Correct(ctx, input, style)
			if err != nil {
				t.Fatalf("Correct() error = %v", err)
			}
			if !out.Corrected {
				t.Fatalf("fell back to the input: %v", out.Reason)
			}
			t.Logf("%s: %q", style.DisplayName(), out.Text)
		})
	}
}
