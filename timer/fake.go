package timer

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests. Scheduled callbacks run on
// the goroutine that calls Advance, in due-time order, and never while the
// Fake's own lock is held, so a callback may schedule further callbacks.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*fakeTimer
}

type fakeTimer struct {
	fake    *Fake
	at      time.Time
	seq     uint64
	f       func()
	stopped bool
	fired   bool
}

// NewFake creates a Fake clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc schedules fn to run once the fake has advanced by d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	t := &fakeTimer{
		fake: f,
		at:   f.now.Add(d),
		seq:  f.seq,
		f:    fn,
	}
	f.pending = append(f.pending, t)
	return t
}

// Advance moves the clock forward by d, firing every callback that comes
// due along the way, including ones scheduled by earlier callbacks.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.popDueLocked(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		if next.at.After(f.now) {
			f.now = next.at
		}
		f.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of scheduled callbacks that have not fired
// or been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// popDueLocked removes and returns the earliest timer due at or before
// target (assumes mutex is held)
func (f *Fake) popDueLocked(target time.Time) *fakeTimer {
	idx := -1
	for i, t := range f.pending {
		if t.at.After(target) {
			continue
		}
		if idx < 0 || t.at.Before(f.pending[idx].at) ||
			(t.at.Equal(f.pending[idx].at) && t.seq < f.pending[idx].seq) {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	t := f.pending[idx]
	f.pending = append(f.pending[:idx], f.pending[idx+1:]...)
	t.fired = true
	return t
}

func (t *fakeTimer) Stop() bool {
	f := t.fake
	f.mu.Lock()
	defer f.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	for i, p := range f.pending {
		if p == t {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			break
		}
	}
	return true
}
