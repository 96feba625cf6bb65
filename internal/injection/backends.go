package injection

import (
	"context"
	"fmt"
	"time"
)

// Backend puts text into the focused window.
type Backend interface {
	Name() string
	Available() error
	Inject(ctx context.Context, text string, timeout time.Duration) error
}

type wtypeBackend struct {
	run runner
}

func (w *wtypeBackend) Name() string { return "wtype" }

func (w *wtypeBackend) Available() error {
	if err := w.run.LookPath("wtype"); err != nil {
		return fmt.Errorf("wtype not found: %w (install wtype package)", err)
	}
	return nil
}

func (w *wtypeBackend) Inject(ctx context.Context, text string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := w.run.Run(ctx, "", "wtype", "--", text)
	return err
}

// clipboardBackend leaves the text on the clipboard for the user to paste.
// It is the last resort and never restores the previous contents.
type clipboardBackend struct {
	clip *clipboard
}

func (c *clipboardBackend) Name() string { return "clipboard" }

func (c *clipboardBackend) Available() error { return c.clip.available() }

func (c *clipboardBackend) Inject(ctx context.Context, text string, timeout time.Duration) error {
	return c.clip.set(ctx, text, timeout)
}

type clipboard struct {
	run runner
}

func (c *clipboard) available() error {
	for _, tool := range []string{"wl-copy", "wl-paste"} {
		if err := c.run.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found: %w (install wl-clipboard)", tool, err)
		}
	}
	return nil
}

func (c *clipboard) get(ctx context.Context, timeout time.Duration) string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := c.run.Run(ctx, "", "wl-paste", "--no-newline")
	if err != nil {
		return ""
	}
	return out
}

func (c *clipboard) set(ctx context.Context, text string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := c.run.Run(ctx, text, "wl-copy")
	return err
}
