package chain

import (
	"fmt"
	"sync"
	"time"

	"dingwecker/timer"
)

// Countdown counts down from a start value once per interval.
//
// For Start(n, onTick, onComplete) the observations are onTick(n),
// onTick(n-1), ..., onTick(1) and then a single onComplete. onTick(n) is
// delivered before Start returns; n == 0 completes before Start returns
// without any tick.
//
// Callbacks run with the countdown's lock held. They must not call Start or
// Cancel on the same Countdown. Because delivery and Cancel share that lock,
// nothing is delivered once Cancel has returned. onComplete is the last use
// of the countdown's state, so an owner sharing the lock may release it
// inside onComplete and take it back before returning.
type Countdown struct {
	clock    timer.Clock
	interval time.Duration
	mu       sync.Locker

	gen        uint64
	pending    timer.Timer
	running    bool
	onTick     func(remaining int)
	onComplete func()
}

// NewCountdown creates a stopped Countdown ticking every interval on clock.
func NewCountdown(clock timer.Clock, interval time.Duration) *Countdown {
	return newCountdown(clock, interval, &sync.Mutex{})
}

// newCountdown shares mu with an owner whose handlers call the lock-free
// start and cancel from inside callbacks.
func newCountdown(clock timer.Clock, interval time.Duration, mu sync.Locker) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		clock:    clock,
		interval: interval,
		mu:       mu,
	}
}

// Start cancels any countdown in progress and begins a new one from n.
func (c *Countdown) Start(n int, onTick func(remaining int), onComplete func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start(n, onTick, onComplete)
}

// Cancel stops the countdown. It is safe to call repeatedly and after completion.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel()
}

// Running reports whether a countdown is in progress.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// start assumes mu is held
func (c *Countdown) start(n int, onTick func(remaining int), onComplete func()) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCount, n)
	}

	c.cancel()
	c.onTick = onTick
	c.onComplete = onComplete
	c.running = true
	c.step(c.gen, n)
	return nil
}

// cancel assumes mu is held
func (c *Countdown) cancel() {
	c.gen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.running = false
	c.onTick = nil
	c.onComplete = nil
}

// step delivers one observation for generation gen and schedules the next
// (assumes mu is held)
func (c *Countdown) step(gen uint64, remaining int) {
	if remaining == 0 {
		onComplete := c.onComplete
		c.running = false
		c.onTick = nil
		c.onComplete = nil
		if onComplete != nil {
			onComplete()
		}
		return
	}

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if gen != c.gen {
		return
	}
	c.pending = c.clock.AfterFunc(c.interval, func() {
		c.fire(gen, remaining-1)
	})
}

func (c *Countdown) fire(gen uint64, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Stale: cancelled or restarted after this tick was scheduled.
	if gen != c.gen {
		return
	}
	c.pending = nil
	c.step(gen, remaining)
}
