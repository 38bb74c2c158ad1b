package alarm

import (
	"context"
	"sync"
	"time"

	"dingwecker/config"
	"dingwecker/log"
)

// Slot names one of the two daily alarms.
type Slot string

const (
	SlotMorning Slot = "morning"
	SlotEvening Slot = "evening"
)

// Slots lists the slots in display order.
var Slots = []Slot{SlotMorning, SlotEvening}

// IsMorning reports whether t falls before noon.
func IsMorning(t time.Time) bool {
	return t.Hour() < 12
}

// SlotFor returns the slot a time of day belongs to.
func SlotFor(at config.AlarmTime) Slot {
	if at.Hour < 12 {
		return SlotMorning
	}
	return SlotEvening
}

// NextOccurrence returns the next time at comes round after now: today if
// that is still ahead, otherwise tomorrow.
func NextOccurrence(at config.AlarmTime, now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, at.Hour, at.Minute, 0, 0, now.Location())
	}
	return next
}

// Callbacks defines callback functions for alarm events
type Callbacks struct {
	OnAlarmTriggered func(slot Slot, at time.Time)
}

// Manager fires each configured slot once a day.
type Manager struct {
	config    *config.Config
	next      map[Slot]time.Time
	mutex     sync.RWMutex
	callbacks Callbacks
	now       func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new alarm manager
func NewManager(cfg *config.Config) *Manager {
	return newManager(cfg, time.Now)
}

func newManager(cfg *config.Config, now func() time.Time) *Manager {
	m := &Manager{
		config: cfg,
		next:   make(map[Slot]time.Time),
		now:    now,
	}
	m.rescheduleInternal(now())
	return m
}

// SetCallbacks sets the callback functions for alarm events
func (m *Manager) SetCallbacks(callbacks Callbacks) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.callbacks = callbacks
}

// UpdateConfig replaces the configuration and recomputes every slot.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.config = cfg
	m.rescheduleInternal(m.now())
}

// Next returns the earliest scheduled alarm. ok is false when no slot is set.
func (m *Manager) Next() (slot Slot, at time.Time, ok bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, s := range Slots {
		t, exists := m.next[s]
		if !exists {
			continue
		}
		if !ok || t.Before(at) {
			slot, at, ok = s, t, true
		}
	}
	return slot, at, ok
}

// Schedule returns a copy of the next occurrence of every configured slot.
func (m *Manager) Schedule() map[Slot]time.Time {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make(map[Slot]time.Time, len(m.next))
	for s, t := range m.next {
		result[s] = t
	}
	return result
}

// Start begins the alarm monitoring loop
func (m *Manager) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mutex.Lock()
	m.cancel = cancel
	m.done = done
	m.mutex.Unlock()

	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()
}

// Stop ends a loop begun with Start and waits for it to exit.
func (m *Manager) Stop() {
	m.mutex.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mutex.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Run checks the slots once a second until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	return m.runLoop(ctx, ticker.C)
}

func (m *Manager) runLoop(ctx context.Context, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-tick:
			m.checkSlots(now)
		}
	}
}

// checkSlots fires every slot that has come due and schedules its next day.
func (m *Manager) checkSlots(now time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, slot := range Slots {
		due, exists := m.next[slot]
		if !exists || now.Before(due) {
			continue
		}

		at := m.slotTime(slot)
		if at == nil {
			delete(m.next, slot)
			continue
		}
		m.next[slot] = NextOccurrence(*at, now)
		log.Info("alarm triggered", "slot", string(slot), "due", due, "next", m.next[slot])

		if m.callbacks.OnAlarmTriggered != nil {
			go m.callbacks.OnAlarmTriggered(slot, due)
		}
	}
}

// rescheduleInternal recomputes all slots (internal, assumes mutex is held)
func (m *Manager) rescheduleInternal(now time.Time) {
	for _, slot := range Slots {
		at := m.slotTime(slot)
		if at == nil {
			delete(m.next, slot)
			continue
		}
		m.next[slot] = NextOccurrence(*at, now)
	}
}

func (m *Manager) slotTime(slot Slot) *config.AlarmTime {
	if m.config == nil {
		return nil
	}
	switch slot {
	case SlotMorning:
		return m.config.Morning
	case SlotEvening:
		return m.config.Evening
	}
	return nil
}
