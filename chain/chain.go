// Package chain implements the delayed action chain: after a trigger it
// counts down a randomized delay, opens the target application, counts
// down a fixed return delay and brings the host application back.
package chain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"dingwecker/config"
	"dingwecker/log"
	"dingwecker/timer"
)

// Phase is the position of a chain in its lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseApproaching
	PhaseTriggering
	PhaseReturning
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseApproaching:
		return "approaching"
	case PhaseTriggering:
		return "triggering"
	case PhaseReturning:
		return "returning"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Outcome describes how a run ended.
type Outcome string

const (
	OutcomeCompleted  Outcome = "completed"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeSuperseded Outcome = "superseded"
)

// Trigger is the event that starts a chain.
type Trigger struct {
	Source string    // "alarm", "http", "tui", "cli"
	Slot   string    // alarm slot name, if any
	At     time.Time // filled from the chain's clock when zero
}

// Run records one chain from start to finish.
type Run struct {
	ID           string
	Trigger      Trigger
	InitialDelay int
	ReturnDelay  int
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      Outcome
	LaunchErr    error
	RestoreErr   error
}

// Status is a snapshot of the chain.
type Status struct {
	Phase            Phase
	SecondsRemaining int
	Run              *Run // nil when idle
}

// RangeSource supplies the delay range for each new chain.
type RangeSource interface {
	Range() config.DelayRange
}

// Actions performs the side effects at the end of each countdown.
type Actions interface {
	LaunchTargetApplication() error
	RestoreHostApplication() error
}

// Notifier shows short-lived messages. Implementations must not block.
type Notifier interface {
	ShowTransient(message string)
}

// Dismisser is implemented by notifiers holding a message on screen; the
// chain calls Dismiss when a run ends.
type Dismisser interface {
	Dismiss()
}

// Callbacks for chain events.
//
// OnStatusChanged receives a snapshot after every phase change and every
// countdown observation. Snapshots arrive in order on one goroutine, so a
// slow subscriber delays later snapshots but never the chain.
// OnRunFinished is invoked on its own goroutine once per finished run.
type Callbacks struct {
	OnStatusChanged func(status Status)
	OnRunFinished   func(run Run)
}

// Options tune a Chain. Zero values select production defaults.
type Options struct {
	Clock       timer.Clock
	Interval    time.Duration // tick period, default one second
	Randomizer  *Randomizer
	ReturnDelay int
	Policy      config.RetriggerPolicy
	TargetName  string
}

// Chain runs at most one countdown chain at a time.
type Chain struct {
	mu          sync.Mutex
	ranges      RangeSource
	actions     Actions
	notifier    Notifier
	clock       timer.Clock
	randomizer  *Randomizer
	returnDelay int
	policy      config.RetriggerPolicy
	targetName  string
	countdown   *Countdown
	callbacks   Callbacks
	feed        *statusFeed
	finishing   sync.WaitGroup

	// nil while idle
	state *state
}

type state struct {
	phase     Phase
	remaining int
	run       Run
}

// New creates an idle Chain.
func New(ranges RangeSource, actions Actions, notifier Notifier, opts Options) *Chain {
	if opts.Clock == nil {
		opts.Clock = timer.Real()
	}
	if opts.Randomizer == nil {
		opts.Randomizer = NewRandomizer(nil)
	}
	if opts.ReturnDelay < 0 {
		opts.ReturnDelay = 0
	}
	if opts.Policy == "" {
		opts.Policy = config.RetriggerReject
	}
	if opts.TargetName == "" {
		opts.TargetName = "the app"
	}

	c := &Chain{
		ranges:      ranges,
		actions:     actions,
		notifier:    notifier,
		clock:       opts.Clock,
		randomizer:  opts.Randomizer,
		returnDelay: opts.ReturnDelay,
		policy:      opts.Policy,
		targetName:  opts.TargetName,
	}
	c.countdown = newCountdown(opts.Clock, opts.Interval, &c.mu)
	return c
}

// SetCallbacks sets the callback functions for chain events
func (c *Chain) SetCallbacks(callbacks Callbacks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = callbacks
	if c.feed != nil {
		c.feed.stop()
		c.feed = nil
	}
	if callbacks.OnStatusChanged != nil {
		c.feed = newStatusFeed(callbacks.OnStatusChanged)
	}
}

// Wait blocks until every OnRunFinished call started so far has returned.
func (c *Chain) Wait() {
	c.finishing.Wait()
}

// Start begins a chain for trigger. While another chain is running it
// returns ErrAlreadyActive under the reject policy, or cancels the running
// chain first under the supersede policy. An unusable delay range is
// reported and returned as *InvalidRangeError; the chain stays idle.
func (c *Chain) Start(trigger Trigger) (Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != nil {
		if c.policy != config.RetriggerSupersede {
			log.Info("trigger rejected, chain already running", "source", trigger.Source, "run_id", c.state.run.ID)
			return Run{}, ErrAlreadyActive
		}
		log.Info("trigger supersedes running chain", "source", trigger.Source, "run_id", c.state.run.ID)
		c.finish(OutcomeSuperseded)
	}

	delay, err := c.randomizer.Pick(c.ranges.Range())
	if err != nil {
		log.Warn("chain not started", "error", err)
		c.notifier.ShowTransient(fmt.Sprintf("Cannot start countdown: %v", err))
		return Run{}, err
	}

	now := c.clock.Now()
	if trigger.At.IsZero() {
		trigger.At = now
	}
	c.state = &state{
		remaining: delay,
		run: Run{
			ID:           uuid.NewString(),
			Trigger:      trigger,
			InitialDelay: delay,
			ReturnDelay:  c.returnDelay,
			StartedAt:    now,
		},
	}
	run := c.state.run
	log.Info("chain started", "run_id", run.ID, "source", trigger.Source, "slot", trigger.Slot, "delay", delay)

	c.setPhase(PhaseApproaching)
	if err := c.countdown.start(delay, c.approachTick, c.approachDone); err != nil {
		// Pick never yields a negative delay.
		c.finish(OutcomeCancelled)
		return Run{}, err
	}
	return run, nil
}

// Cancel stops a running chain without invoking either action. It reports
// whether a chain was running. Called while an action runs, Cancel returns
// at once; the action completes but the chain goes no further.
func (c *Chain) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		return false
	}
	phase := c.state.phase
	c.finish(OutcomeCancelled)
	c.notifier.ShowTransient("Countdown cancelled")
	log.Info("chain cancelled", "phase", phase.String())
	return true
}

// Status returns a snapshot of the chain.
func (c *Chain) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

// status assumes mu is held
func (c *Chain) status() Status {
	if c.state == nil {
		return Status{Phase: PhaseIdle}
	}
	run := c.state.run
	return Status{
		Phase:            c.state.phase,
		SecondsRemaining: c.state.remaining,
		Run:              &run,
	}
}

// The handlers below run from countdown callbacks with mu held.

func (c *Chain) approachTick(remaining int) {
	c.setRemaining(remaining)
	c.notifier.ShowTransient(fmt.Sprintf("%ds until %s opens...", remaining, c.targetName))
}

func (c *Chain) approachDone() {
	st := c.state
	st.remaining = 0
	c.setPhase(PhaseTriggering)

	live, err := c.invokeUnlocked(st, c.actions.LaunchTargetApplication)
	if !live {
		log.Info("launch returned after the run ended", "run_id", st.run.ID, "error", errString(err))
		return
	}
	if err != nil {
		st.run.LaunchErr = err
		log.Warn("launch failed", "run_id", st.run.ID, "error", err)
		c.notifier.ShowTransient(fmt.Sprintf("Failed to open %s: %v", c.targetName, err))
	} else {
		log.Info("target launched", "run_id", st.run.ID)
		c.notifier.ShowTransient(fmt.Sprintf("Opening %s...", c.targetName))
	}

	st.remaining = c.returnDelay
	c.setPhase(PhaseReturning)
	// returnDelay is never negative, so start cannot fail.
	_ = c.countdown.start(c.returnDelay, c.returnTick, c.returnDone)
}

func (c *Chain) returnTick(remaining int) {
	c.setRemaining(remaining)
	c.notifier.ShowTransient(fmt.Sprintf("%ds until returning to app...", remaining))
}

func (c *Chain) returnDone() {
	st := c.state
	st.remaining = 0
	c.setPhase(PhaseDone)

	live, err := c.invokeUnlocked(st, c.actions.RestoreHostApplication)
	if !live {
		log.Info("restore returned after the run ended", "run_id", st.run.ID, "error", errString(err))
		return
	}
	if err != nil {
		st.run.RestoreErr = err
		log.Warn("restore failed", "run_id", st.run.ID, "error", err)
		c.notifier.ShowTransient(fmt.Sprintf("Failed to return to app: %v", err))
	} else {
		c.notifier.ShowTransient("Returned to app")
	}

	c.finish(OutcomeCompleted)
}

// invokeUnlocked runs action with mu released so Status, Cancel and Start
// stay responsive while a command runs. live reports whether st is still
// the current run once mu is held again; when it is not, the run was
// cancelled or superseded in the meantime and must not continue.
// Assumes mu is held.
func (c *Chain) invokeUnlocked(st *state, action func() error) (live bool, err error) {
	c.mu.Unlock()
	err = invoke(action)
	c.mu.Lock()
	return c.state == st, err
}

// finish releases the countdown and notifier and returns to idle (assumes
// mu is held)
func (c *Chain) finish(outcome Outcome) {
	c.countdown.cancel()
	if d, ok := c.notifier.(Dismisser); ok {
		d.Dismiss()
	}

	run := c.state.run
	run.Outcome = outcome
	run.FinishedAt = c.clock.Now()
	c.state = nil

	log.Info("chain finished", "run_id", run.ID, "outcome", string(outcome),
		"launch_error", errString(run.LaunchErr), "restore_error", errString(run.RestoreErr))

	c.publish()
	if cb := c.callbacks.OnRunFinished; cb != nil {
		c.finishing.Add(1)
		go func() {
			defer c.finishing.Done()
			cb(run)
		}()
	}
}

// setPhase assumes mu is held
func (c *Chain) setPhase(phase Phase) {
	c.state.phase = phase
	c.publish()
}

// setRemaining assumes mu is held
func (c *Chain) setRemaining(n int) {
	if c.state.remaining == n {
		return
	}
	c.state.remaining = n
	c.publish()
}

// publish queues the current status for the subscriber (assumes mu is held)
func (c *Chain) publish() {
	if c.feed != nil {
		c.feed.push(c.status())
	}
}

// invoke runs an action, turning a panic into an error.
func invoke(action func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return action()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
