package daemon

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/history"
	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/leonardotrapani/hyprdictate/internal/notify"
	"github.com/leonardotrapani/hyprdictate/internal/pipeline"
	"github.com/rs/zerolog"
)

const (
	observerQueue  = 32
	maxDetailChars = 80
)

type historyLister interface {
	List(ctx context.Context) ([]history.Item, error)
}

// notifyObserver turns controller events into notifications. Controller
// callbacks only enqueue; one goroutine runs notify-send, sound cues and
// config writes in the order the events happened.
type notifyObserver struct {
	log     zerolog.Logger
	persist func(llm.Style)
	history historyLister

	mu       sync.RWMutex
	notifier notify.Notifier

	queue chan func()
	done  chan struct{}
	once  sync.Once
}

func newNotifyObserver(n notify.Notifier, persist func(llm.Style), hist historyLister) *notifyObserver {
	if n == nil {
		n = notify.Nop{}
	}
	o := &notifyObserver{
		log:      logging.Component("daemon"),
		persist:  persist,
		history:  hist,
		notifier: n,
		queue:    make(chan func(), observerQueue),
		done:     make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *notifyObserver) run() {
	defer close(o.done)
	for fn := range o.queue {
		fn()
	}
}

// close drains the queue. The controller must be closed first.
func (o *notifyObserver) close() {
	o.once.Do(func() { close(o.queue) })
	<-o.done
}

func (o *notifyObserver) setNotifier(n notify.Notifier) {
	o.mu.Lock()
	o.notifier = n
	o.mu.Unlock()
}

func (o *notifyObserver) post(fn func()) {
	select {
	case o.queue <- fn:
	default:
		o.log.Warn().Msg("notification queue full, dropping event")
	}
}

func (o *notifyObserver) send(t notify.MessageType, detail string) {
	o.mu.RLock()
	n := o.notifier
	o.mu.RUnlock()
	n.Send(t, detail)
}

func (o *notifyObserver) StateChanged(s pipeline.State) {
	switch s.Phase {
	case pipeline.Recording:
		o.post(func() { o.send(notify.RecordingStarted, "") })
	case pipeline.Processing:
		o.post(func() { o.send(notify.Transcribing, "") })
	case pipeline.Error:
		o.post(func() { o.send(notify.Error, s.Message) })
	}
}

func (o *notifyObserver) PreviewChanged(text string) {
	if text != "" {
		o.log.Debug().Str("preview", text).Msg("live preview")
	}
}

func (o *notifyObserver) StyleChanged(s llm.Style) {
	o.post(func() {
		if o.persist != nil {
			o.persist(s)
		}
		o.send(notify.StyleChanged, fmt.Sprintf("%s (%d)", s.DisplayName(), s.Number()))
	})
}

func (o *notifyObserver) HistoryRequested() {
	o.post(func() {
		if o.history == nil {
			o.send(notify.HistoryShown, "History is disabled")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		items, err := o.history.List(ctx)
		if err != nil {
			o.log.Error().Err(err).Msg("failed to read history")
			o.send(notify.Error, "history unavailable")
			return
		}
		o.send(notify.HistoryShown, formatHistory(items))
	})
}

func (o *notifyObserver) Completed(r pipeline.Result) {
	o.post(func() {
		if r.Fallback != nil {
			o.send(notify.CorrectionUnavailable, r.Fallback.Error())
		}
		if r.Emitted() {
			o.send(notify.Injected, truncate(r.Text, maxDetailChars))
		}
	})
}

func formatHistory(items []history.Item) string {
	if len(items) == 0 {
		return "No dictations yet"
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, truncate(it.Text(), maxDetailChars))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
