package display

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dingwecker/alarm"
	"dingwecker/chain"
	"dingwecker/config"
)

type fakeChain struct {
	status      chain.Status
	startErr    error
	starts      int
	cancels     int
	statusCalls int
}

func (f *fakeChain) Start(trigger chain.Trigger) (chain.Run, error) {
	f.starts++
	if f.startErr != nil {
		return chain.Run{}, f.startErr
	}
	run := chain.Run{ID: "r1", Trigger: trigger, InitialDelay: 30}
	f.status = chain.Status{Phase: chain.PhaseApproaching, SecondsRemaining: 30, Run: &run}
	return run, nil
}

func (f *fakeChain) Cancel() bool {
	f.cancels++
	running := f.status.Phase != chain.PhaseIdle
	f.status = chain.Status{Phase: chain.PhaseIdle}
	return running
}

func (f *fakeChain) Status() chain.Status {
	f.statusCalls++
	return f.status
}

type fixedSchedule map[alarm.Slot]time.Time

func (s fixedSchedule) Schedule() map[alarm.Slot]time.Time { return s }

var noon = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (Model, *fakeChain) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Morning = &config.AlarmTime{Hour: 8, Minute: 50}
	fc := &fakeChain{}
	app := newApp(cfg, fc, fixedSchedule{alarm.SlotMorning: time.Date(2026, 3, 3, 8, 50, 0, 0, time.UTC)}, nil)
	m := Model{app: app}
	m = update(t, m, TickMsg(noon))
	return m, fc
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

// trigger presses t and feeds the command's result back, as the program would.
func trigger(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := pressWithCmd(t, m, "t")
	require.NotNil(t, cmd)
	return update(t, m, cmd())
}

func pressWithCmd(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key(k))
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

// pushStatus delivers the fake chain's status the way the chain's feed does.
func pushStatus(t *testing.T, m Model, fc *fakeChain) Model {
	t.Helper()
	return update(t, m, StatusMsg(fc.status))
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewIdle(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()

	assert.Contains(t, view, "MORNING")
	assert.Contains(t, view, "08:50")
	assert.Contains(t, view, "next Tue 08:50")
	assert.Contains(t, view, "EVENING  --:--")
	assert.Contains(t, view, "Chain: idle")
}

func TestTriggerKeyStartsChain(t *testing.T) {
	m, fc := newTestModel(t)

	m = trigger(t, m)
	assert.Equal(t, 1, fc.starts)
	m = pushStatus(t, m, fc)
	assert.Contains(t, m.View(), "Chain: DingTalk opens in 00:30")

	fc.startErr = chain.ErrAlreadyActive
	m = trigger(t, m)
	assert.Contains(t, m.View(), "Countdown already running")
}

func TestCancelKey(t *testing.T) {
	m, fc := newTestModel(t)

	m = update(t, m, key("c"))
	assert.Contains(t, m.View(), "Nothing to cancel")

	m = trigger(t, m)
	m = pushStatus(t, m, fc)
	m = update(t, m, key("c"))
	assert.Equal(t, 2, fc.cancels)
	m = pushStatus(t, m, fc)
	assert.Contains(t, m.View(), "Chain: idle")
}

func TestStatusPushUpdatesView(t *testing.T) {
	m, _ := newTestModel(t)

	m = update(t, m, StatusMsg{Phase: chain.PhaseReturning, SecondsRemaining: 4})
	assert.Contains(t, m.View(), "Chain: returning in 00:04")

	m = update(t, m, StatusMsg{Phase: chain.PhaseDone})
	assert.Contains(t, m.View(), "Chain: done")
}

func TestUpdateNeverReadsChainStatus(t *testing.T) {
	m, fc := newTestModel(t)

	m = update(t, m, TickMsg(noon.Add(time.Second)))
	m = update(t, m, ToastMsg("hello"))
	m = update(t, m, DismissMsg{})
	m = update(t, m, StatusMsg{Phase: chain.PhaseApproaching, SecondsRemaining: 3})
	m = update(t, m, key("c"))
	m = update(t, m, key("d"))
	_ = m.View()

	assert.Zero(t, fc.statusCalls, "a slow chain must not stall the event loop")
}

func TestInitialStatusDoesNotOverridePush(t *testing.T) {
	m, fc := newTestModel(t)
	fc.status = chain.Status{Phase: chain.PhaseApproaching, SecondsRemaining: 9}

	load := m.app.fetchStatus()
	loaded := load()
	assert.Equal(t, 1, fc.statusCalls)

	m = update(t, m, StatusMsg{Phase: chain.PhaseReturning, SecondsRemaining: 2})
	m = update(t, m, loaded)
	assert.Contains(t, m.View(), "Chain: returning in 00:02")

	fresh, _ := newTestModel(t)
	fresh = update(t, fresh, loaded)
	assert.Contains(t, fresh.View(), "Chain: DingTalk opens in 00:09")
}

func TestToastLifecycle(t *testing.T) {
	m, fc := newTestModel(t)
	m = trigger(t, m)
	m = pushStatus(t, m, fc)

	m = update(t, m, ToastMsg("29s until DingTalk opens..."))
	assert.Contains(t, m.View(), "29s until DingTalk opens...")

	m = update(t, m, TickMsg(noon.Add(10*time.Second)))
	assert.Contains(t, m.View(), "29s until DingTalk opens...", "toasts stay while the chain runs")

	m = update(t, m, ToastMsg("Returned to app"))
	m = update(t, m, StatusMsg{Phase: chain.PhaseIdle})
	m = update(t, m, DismissMsg{})
	assert.Contains(t, m.View(), "Returned to app")

	m = update(t, m, TickMsg(noon.Add(10*time.Second+toastLinger+time.Second)))
	assert.NotContains(t, m.View(), "Returned to app")
}

func TestIdleStatusStartsToastLinger(t *testing.T) {
	m, fc := newTestModel(t)
	m = trigger(t, m)
	m = pushStatus(t, m, fc)

	m = update(t, m, ToastMsg("Countdown cancelled"))
	m = update(t, m, StatusMsg{Phase: chain.PhaseIdle})
	assert.Contains(t, m.View(), "Countdown cancelled")

	m = update(t, m, TickMsg(noon.Add(toastLinger+time.Second)))
	assert.NotContains(t, m.View(), "Countdown cancelled")
}

func TestDimmerCycles(t *testing.T) {
	m, _ := newTestModel(t)
	m.app.SetBrightness(10)

	var levels []int
	for i := 0; i < 6; i++ {
		m = update(t, m, key("d"))
		levels = append(levels, m.app.brightness)
	}
	assert.Equal(t, []int{8, 6, 4, 2, 10, 8}, levels)
	assert.Equal(t, 8, m.app.config.Display.Brightness)
}

func TestFormatToggles(t *testing.T) {
	m, _ := newTestModel(t)
	require.True(t, m.app.config.Display.Hour24Format)

	m = update(t, m, key("f"))
	assert.False(t, m.app.config.Display.Hour24Format)
	m = update(t, m, key("s"))
	assert.False(t, m.app.config.Display.ShowSeconds)
	assert.Equal(t, "12:00 PM", m.app.config.FormatTime(noon))
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestNotifierNeverBlocks(t *testing.T) {
	n := NewNotifier()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			n.ShowTransient("tick")
			n.StatusChanged(chain.Status{Phase: chain.PhaseApproaching, SecondsRemaining: i})
		}
		n.Dismiss()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier blocked")
	}
}

func TestNotifierKeepsLatestStatus(t *testing.T) {
	n := NewNotifier()
	for i := 1; i <= 3; i++ {
		n.StatusChanged(chain.Status{Phase: chain.PhaseReturning, SecondsRemaining: i})
	}

	msg := n.wait()()
	assert.Equal(t, StatusMsg{Phase: chain.PhaseReturning, SecondsRemaining: 3}, msg)

	n.ShowTransient("hello")
	assert.Equal(t, ToastMsg("hello"), n.wait()())
}
