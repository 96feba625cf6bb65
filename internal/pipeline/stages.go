package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/recording"
)

// errNothingToEmit ends a cycle early without it being a failure.
var errNothingToEmit = errors.New("empty transcription")

type cycle struct {
	artifact recording.Artifact
	cfg      Config
	style    llm.Style
	result   Result
}

type stage struct {
	name string
	run  func(ctx context.Context, cy *cycle) error
	// fatal stages end the cycle on error; the others record it and let
	// later stages run
	fatal bool
}

func (c *Controller) stages(cfg Config) []stage {
	stages := []stage{{name: "transcribe", run: c.transcribe, fatal: true}}
	if cfg.Correction && c.deps.Corrector != nil {
		stages = append(stages, stage{name: "correct", run: c.correct})
	}
	stages = append(stages, stage{name: "inject", run: c.inject})
	if cfg.History && c.deps.History != nil {
		stages = append(stages, stage{name: "history", run: c.record})
	}
	return stages
}

// process runs one recording through every stage. The artifact is removed
// whatever happens.
func (c *Controller) process(ctx context.Context, cy *cycle) Result {
	start := time.Now()
	defer func() {
		if err := cy.artifact.Remove(); err != nil {
			c.log.Warn().Err(err).Str("path", cy.artifact.Path).Msg("failed to remove recording")
		}
	}()

	cy.result.Style = cy.style
	for _, st := range c.stages(cy.cfg) {
		err := st.run(ctx, cy)
		if err == nil {
			continue
		}
		if errors.Is(err, errNothingToEmit) {
			c.log.Info().Msg("transcription was empty, nothing to insert")
			break
		}
		if cy.result.Err == nil {
			cy.result.Err = fmt.Errorf("%s: %w", st.name, err)
		}
		if st.fatal {
			break
		}
	}

	cy.result.Duration = time.Since(start)
	return cy.result
}

func (c *Controller) transcribe(ctx context.Context, cy *cycle) error {
	var text string
	select {
	case r := <-c.deps.Transcriber.TranscribeArtifact(ctx, cy.artifact.Path):
		if r.Err != nil {
			return r.Err
		}
		text = strings.TrimSpace(r.Text)
	case <-ctx.Done():
		return ctx.Err()
	}

	cy.result.Raw = text
	cy.result.Text = text
	if text == "" {
		return errNothingToEmit
	}
	return nil
}

// correct never fails the cycle: any problem leaves the raw text in place
// and is reported as the fallback reason.
func (c *Controller) correct(ctx context.Context, cy *cycle) error {
	out, err := c.deps.Corrector.Correct(ctx, cy.result.Raw, cy.style)
	switch {
	case err != nil:
		cy.result.Fallback = err
	case !out.Corrected:
		cy.result.Fallback = out.Reason
	default:
		cy.result.Corrected = out.Text
		cy.result.Text = out.Text
	}
	return nil
}

func (c *Controller) inject(ctx context.Context, cy *cycle) error {
	return c.deps.Injector.Inject(ctx, cy.result.Text)
}

// record keeps the dictation even when injection failed, so the text can
// still be recovered from the history.
func (c *Controller) record(ctx context.Context, cy *cycle) error {
	if _, err := c.deps.History.Add(ctx, cy.result.Raw, cy.result.Corrected); err != nil {
		c.log.Warn().Err(err).Msg("failed to save history")
	}
	return nil
}
