package recording

import "sync"

// ringWindow keeps the most recent samples, overwriting the oldest once
// full.
type ringWindow struct {
	mu    sync.Mutex
	buf   []float32
	start int
	n     int
}

func newRingWindow(capacity int) *ringWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &ringWindow{buf: make([]float32, capacity)}
}

func (w *ringWindow) append(samples []float32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := len(w.buf)
	if len(samples) >= c {
		copy(w.buf, samples[len(samples)-c:])
		w.start, w.n = 0, c
		return
	}
	for _, s := range samples {
		end := (w.start + w.n) % c
		w.buf[end] = s
		if w.n < c {
			w.n++
		} else {
			w.start = (w.start + 1) % c
		}
	}
}

// last copies out the newest max samples in order (all of them when max is
// not positive).
func (w *ringWindow) last(max int) []float32 {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.n
	if max > 0 && max < n {
		n = max
	}
	out := make([]float32, n)
	c := len(w.buf)
	first := (w.start + w.n - n) % c
	for i := 0; i < n; i++ {
		out[i] = w.buf[(first+i)%c]
	}
	return out
}

func (w *ringWindow) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

func (w *ringWindow) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start, w.n = 0, 0
}
