package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)

func TestFakeFiresInDueOrder(t *testing.T) {
	clock := NewFake(epoch)
	var got []string

	clock.AfterFunc(2*time.Second, func() { got = append(got, "b") })
	clock.AfterFunc(time.Second, func() { got = append(got, "a") })
	clock.AfterFunc(2*time.Second, func() { got = append(got, "c") })

	clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 2, clock.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, epoch.Add(2500*time.Millisecond), clock.Now())
}

func TestFakeCallbackCanReschedule(t *testing.T) {
	clock := NewFake(epoch)
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 3 {
			clock.AfterFunc(time.Second, tick)
		}
	}
	clock.AfterFunc(time.Second, tick)

	clock.Advance(10 * time.Second)
	assert.Equal(t, 3, count)
	assert.Equal(t, 0, clock.Pending())
}

func TestFakeStop(t *testing.T) {
	clock := NewFake(epoch)
	fired := false
	tm := clock.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop(), "second stop reports nothing to stop")

	clock.Advance(5 * time.Second)
	assert.False(t, fired)
	assert.Equal(t, 0, clock.Pending())
}

func TestFakeStopAfterFire(t *testing.T) {
	clock := NewFake(epoch)
	tm := clock.AfterFunc(time.Second, func() {})
	clock.Advance(time.Second)
	assert.False(t, tm.Stop())
}

func TestRealClockAfterFunc(t *testing.T) {
	done := make(chan struct{})
	Real().AfterFunc(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for real clock callback")
	}
}

func TestFormatTimeRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{59 * time.Second, "00:59"},
		{4 * time.Minute, "04:00"},
		{125*time.Second + 900*time.Millisecond, "02:05"},
		{-3 * time.Second, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimeRemaining(tt.in), "input %v", tt.in)
	}
	assert.Equal(t, "03:20", FormatSeconds(200))
}
