package display

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"dingwecker/chain"
	"dingwecker/log"
)

// ToastMsg replaces the toast line.
type ToastMsg string

// DismissMsg lets the current toast fade out.
type DismissMsg struct{}

// StatusMsg carries a chain status snapshot.
type StatusMsg chain.Status

// Notifier carries chain messages and status into the bubbletea program.
// Sends never block; when the program falls behind, toasts are dropped and
// only the newest status is kept.
type Notifier struct {
	events chan tea.Msg

	mu     sync.Mutex
	status chan chain.Status // holds at most the latest snapshot
}

// NewNotifier creates a Notifier with room for a few seconds of backlog.
func NewNotifier() *Notifier {
	return &Notifier{
		events: make(chan tea.Msg, 32),
		status: make(chan chain.Status, 1),
	}
}

func (n *Notifier) ShowTransient(message string) { n.send(ToastMsg(message)) }

func (n *Notifier) Dismiss() { n.send(DismissMsg{}) }

// StatusChanged replaces any undelivered status with st.
func (n *Notifier) StatusChanged(st chain.Status) {
	n.mu.Lock()
	defer n.mu.Unlock()

	select {
	case <-n.status:
	default:
	}
	n.status <- st
}

func (n *Notifier) send(msg tea.Msg) {
	select {
	case n.events <- msg:
	default:
		log.Debug("toast dropped", "msg", msg)
	}
}

// wait delivers the next notifier message to the program.
func (n *Notifier) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-n.events:
			return msg
		case st := <-n.status:
			return StatusMsg(st)
		}
	}
}
