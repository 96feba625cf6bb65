package hotkey

// Result is what a single raw event turned into. Consumed tells a source
// that can swallow events not to pass this one on.
type Result struct {
	Events   []Event
	Consumed bool
}

const chordMods = ModSuper | ModShift

// Classifier maps raw events for one dictation key to semantic events. It
// keeps no buffer: every call answers for exactly the event it was given.
// A Classifier is not safe for concurrent use.
type Classifier struct {
	key  uint16
	mode Mode
	lock bool

	lastLocked bool
	down       bool
}

// NewClassifier builds a classifier for key. Lock keys have no release, so
// they always classify in Toggle mode.
func NewClassifier(key uint16, mode Mode) *Classifier {
	c := &Classifier{key: key, mode: mode, lock: IsLockKey(key)}
	if c.lock {
		c.mode = Toggle
	}
	return c
}

func (c *Classifier) Key() uint16 { return c.key }

// Mode is the effective mode, which may differ from the requested one for
// lock keys.
func (c *Classifier) Mode() Mode { return c.mode }

func (c *Classifier) Handle(ev RawEvent) Result {
	if ev.Kind == KeyDown && ev.Modifiers.Has(chordMods) {
		switch ev.Code {
		case KeyH:
			return Result{Events: []Event{HistoryShortcut}, Consumed: true}
		case KeyS:
			return Result{Events: []Event{StyleCycleShortcut}, Consumed: true}
		}
	}

	if ev.Code != c.key {
		return Result{}
	}

	if c.lock {
		return c.handleLock(ev)
	}

	switch ev.Kind {
	case KeyDown:
		return c.Trigger(true)
	case KeyUp:
		return c.Trigger(false)
	case KeyRepeat:
		return Result{Consumed: true}
	}
	return Result{}
}

func (c *Classifier) handleLock(ev RawEvent) Result {
	if ev.Kind != LockState {
		return Result{}
	}
	if ev.Seed {
		c.lastLocked = ev.Locked
		return Result{}
	}
	if ev.Locked == c.lastLocked {
		return Result{}
	}
	c.lastLocked = ev.Locked
	return Result{Events: []Event{Press}}
}

// Trigger applies the down/up gating for the dictation key directly. It is
// how external triggers (compositor binds over the control socket) reach the
// classifier, whatever the key class.
func (c *Classifier) Trigger(down bool) Result {
	if down {
		if c.mode == Hold {
			if c.down {
				return Result{Consumed: true}
			}
			c.down = true
		}
		return Result{Events: []Event{Press}, Consumed: true}
	}

	if c.mode != Hold || !c.down {
		return Result{Consumed: true}
	}
	c.down = false
	return Result{Events: []Event{Release}, Consumed: true}
}
