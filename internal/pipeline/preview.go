package pipeline

import (
	"context"
	"sync/atomic"
	"time"
)

type previewText struct {
	id   uint64
	text string
}

// previewLoop transcribes the recorder's trailing window on a fixed
// interval. At most one chunk is outstanding; ticks that find one still
// running are skipped.
type previewLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
	busy   atomic.Bool
}

func (c *Controller) startPreview(ctx context.Context, s *session) *previewLoop {
	ctx, cancel := context.WithCancel(ctx)
	p := &previewLoop{cancel: cancel, done: make(chan struct{})}
	go c.runPreview(ctx, p, s.id, s.cfg.PreviewInterval, s.cfg.PreviewWindow)
	return p
}

// stop cancels the ticker and any outstanding chunk wait. A chunk already
// running in the transcriber finishes there and its text is dropped.
func (p *previewLoop) stop() {
	p.cancel()
	<-p.done
}

func (c *Controller) runPreview(ctx context.Context, p *previewLoop, id uint64, interval, window time.Duration) {
	defer close(p.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !p.busy.CompareAndSwap(false, true) {
			c.log.Trace().Msg("preview chunk still running, skipping tick")
			continue
		}
		samples := c.deps.Recorder.Window(window)
		if len(samples) == 0 {
			p.busy.Store(false)
			continue
		}

		results := c.deps.Transcriber.TranscribeChunk(ctx, samples)
		c.workers.Add(1)
		go func() {
			defer c.workers.Done()
			defer p.busy.Store(false)
			select {
			case r := <-results:
				if r.Err != nil {
					c.log.Debug().Err(r.Err).Msg("preview chunk failed")
					return
				}
				select {
				case c.previews <- previewText{id: id, text: r.Text}:
				case <-ctx.Done():
				}
			case <-ctx.Done():
			}
		}()
	}
}

func (c *Controller) showPreview(p previewText) {
	if c.session == nil || c.session.id != p.id {
		return
	}
	c.setPreview(p.text)
}
