package chain

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dingwecker/timer"
)

var epoch = time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)

type countdownObserved struct {
	ticks     []int
	completed int
}

func (o *countdownObserved) tick(n int) { o.ticks = append(o.ticks, n) }
func (o *countdownObserved) done()      { o.completed++ }

func TestCountdownSequence(t *testing.T) {
	clock := timer.NewFake(epoch)
	cd := NewCountdown(clock, time.Second)
	var obs countdownObserved

	require.NoError(t, cd.Start(5, obs.tick, obs.done))
	assert.Equal(t, []int{5}, obs.ticks, "first tick is delivered by Start")
	assert.True(t, cd.Running())

	clock.Advance(4 * time.Second)
	assert.Equal(t, []int{5, 4, 3, 2, 1}, obs.ticks)
	assert.Equal(t, 0, obs.completed)

	clock.Advance(time.Second)
	assert.Equal(t, 1, obs.completed)
	assert.False(t, cd.Running())
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(time.Minute)
	assert.Equal(t, []int{5, 4, 3, 2, 1}, obs.ticks)
	assert.Equal(t, 1, obs.completed)
}

func TestCountdownZeroCompletesImmediately(t *testing.T) {
	clock := timer.NewFake(epoch)
	cd := NewCountdown(clock, time.Second)
	var obs countdownObserved

	require.NoError(t, cd.Start(0, obs.tick, obs.done))
	assert.Empty(t, obs.ticks)
	assert.Equal(t, 1, obs.completed)
	assert.False(t, cd.Running())
	assert.Equal(t, 0, clock.Pending())
}

func TestCountdownNegative(t *testing.T) {
	cd := NewCountdown(timer.NewFake(epoch), time.Second)
	err := cd.Start(-1, func(int) {}, func() {})
	assert.True(t, errors.Is(err, ErrNegativeCount))
	assert.False(t, cd.Running())
}

func TestCountdownCancel(t *testing.T) {
	clock := timer.NewFake(epoch)
	cd := NewCountdown(clock, time.Second)
	var obs countdownObserved

	require.NoError(t, cd.Start(3, obs.tick, obs.done))
	clock.Advance(time.Second)
	cd.Cancel()
	cd.Cancel()

	clock.Advance(time.Minute)
	assert.Equal(t, []int{3, 2}, obs.ticks)
	assert.Equal(t, 0, obs.completed)
	assert.Equal(t, 0, clock.Pending())
}

func TestCountdownCancelAfterCompletion(t *testing.T) {
	clock := timer.NewFake(epoch)
	cd := NewCountdown(clock, time.Second)
	var obs countdownObserved

	require.NoError(t, cd.Start(1, obs.tick, obs.done))
	clock.Advance(time.Second)
	cd.Cancel()
	assert.Equal(t, 1, obs.completed)
}

func TestCountdownRestartReplacesPrevious(t *testing.T) {
	clock := timer.NewFake(epoch)
	cd := NewCountdown(clock, time.Second)
	var first, second countdownObserved

	require.NoError(t, cd.Start(3, first.tick, first.done))
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, cd.Start(2, second.tick, second.done))
	assert.Equal(t, 1, clock.Pending(), "the first countdown's tick is released")

	clock.Advance(5 * time.Second)
	assert.Equal(t, []int{3}, first.ticks)
	assert.Equal(t, 0, first.completed)
	assert.Equal(t, []int{2, 1}, second.ticks)
	assert.Equal(t, 1, second.completed)
}

func TestCountdownCancelRacesRealTicks(t *testing.T) {
	cd := NewCountdown(timer.Real(), time.Millisecond)
	var calls atomic.Int64

	require.NoError(t, cd.Start(100000, func(int) { calls.Add(1) }, func() { calls.Add(1) }))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		cd.Cancel()
	}()
	wg.Wait()

	atCancel := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, atCancel, calls.Load(), "no tick may be delivered after Cancel returns")
	assert.False(t, cd.Running())
}

func TestCountdownSequenceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("ticks n..1 then one completion", prop.ForAll(
		func(n int) bool {
			clock := timer.NewFake(epoch)
			cd := NewCountdown(clock, time.Second)
			var obs countdownObserved
			if err := cd.Start(n, obs.tick, obs.done); err != nil {
				return false
			}
			clock.Advance(time.Duration(n+5) * time.Second)

			if len(obs.ticks) != n || obs.completed != 1 {
				return false
			}
			for i, v := range obs.ticks {
				if v != n-i {
					return false
				}
			}
			return clock.Pending() == 0
		},
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t)
}

func TestCountdownCancelProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("nothing is observed after cancel", prop.ForAll(
		func(n, elapsedMs int) bool {
			clock := timer.NewFake(epoch)
			cd := NewCountdown(clock, time.Second)
			var obs countdownObserved
			if err := cd.Start(n, obs.tick, obs.done); err != nil {
				return false
			}
			clock.Advance(time.Duration(elapsedMs) * time.Millisecond)
			cd.Cancel()

			ticks, completed := len(obs.ticks), obs.completed
			clock.Advance(time.Duration(n+5) * time.Second)
			return len(obs.ticks) == ticks && obs.completed == completed && clock.Pending() == 0
		},
		gen.IntRange(1, 30),
		gen.IntRange(0, 40000),
	))

	properties.TestingRun(t)
}
