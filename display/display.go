package display

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"

	"dingwecker/alarm"
	"dingwecker/chain"
	"dingwecker/config"
	"dingwecker/log"
	"dingwecker/timer"
)

const width = 72

// toastLinger is how long a toast stays after the chain dismisses it.
const toastLinger = 3 * time.Second

// Chain is the part of the action chain the display drives.
type Chain interface {
	Start(trigger chain.Trigger) (chain.Run, error)
	Cancel() bool
	Status() chain.Status
}

// Schedule reports the next occurrence of each alarm slot.
type Schedule interface {
	Schedule() map[alarm.Slot]time.Time
}

// App holds the main TUI application
type App struct {
	program     *tea.Program
	config      *config.Config
	chain       Chain
	schedule    Schedule
	notifier    *Notifier
	currentTime time.Time
	brightness  int
	toast       string
	toastUntil  time.Time

	status       chain.Status
	statusPushed bool // a StatusMsg has arrived; ignore the initial read
}

// Model represents the bubbletea model
type Model struct {
	app *App
}

// TickMsg is sent every second to update the clock
type TickMsg time.Time

// statusLoadedMsg carries the status read when the program starts.
type statusLoadedMsg chain.Status

// triggerMsg reports the outcome of a trigger key press.
type triggerMsg struct {
	run chain.Run
	err error
}

// NewApp creates a new display application. schedule may be nil.
func NewApp(cfg *config.Config, c Chain, schedule Schedule, notifier *Notifier) *App {
	app := newApp(cfg, c, schedule, notifier)
	app.program = tea.NewProgram(Model{app: app}, tea.WithAltScreen())
	return app
}

func newApp(cfg *config.Config, c Chain, schedule Schedule, notifier *Notifier) *App {
	if notifier == nil {
		notifier = NewNotifier()
	}
	return &App{
		config:     cfg,
		chain:      c,
		schedule:   schedule,
		notifier:   notifier,
		brightness: cfg.Display.Brightness,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.app.notifier.wait(), m.app.fetchStatus())
}

// fetchStatus reads the chain status once, off the event loop. Later
// changes arrive as StatusMsg through the notifier.
func (app *App) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		return statusLoadedMsg(app.chain.Status())
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		now := time.Time(msg)
		m.app.currentTime = now
		if !m.app.toastUntil.IsZero() && now.After(m.app.toastUntil) {
			m.app.toast = ""
			m.app.toastUntil = time.Time{}
		}
		return m, tick()

	case ToastMsg:
		m.app.toast = string(msg)
		m.app.toastUntil = time.Time{}
		if m.app.status.Phase == chain.PhaseIdle {
			m.app.toastUntil = m.app.now().Add(toastLinger)
		}
		return m, m.app.notifier.wait()

	case DismissMsg:
		if m.app.toast != "" {
			m.app.toastUntil = m.app.now().Add(toastLinger)
		}
		return m, m.app.notifier.wait()

	case statusLoadedMsg:
		if !m.app.statusPushed {
			m.app.status = chain.Status(msg)
		}

	case StatusMsg:
		m.app.status = chain.Status(msg)
		m.app.statusPushed = true
		if m.app.status.Phase == chain.PhaseIdle && m.app.toast != "" && m.app.toastUntil.IsZero() {
			m.app.toastUntil = m.app.now().Add(toastLinger)
		}
		return m, m.app.notifier.wait()

	case triggerMsg:
		switch {
		case errors.Is(msg.err, chain.ErrAlreadyActive):
			m.app.toast = "Countdown already running"
			m.app.toastUntil = m.app.now().Add(toastLinger)
		case msg.err != nil:
			// the chain has already shown the reason
			log.Debug("tui trigger failed", "error", msg.err)
		default:
			log.Debug("tui trigger", "run_id", msg.run.ID)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "Q":
			return m, tea.Quit
		case "t", "T", "enter":
			return m, m.app.trigger()
		case "c", "C", "esc":
			m.handleCancel()
		case "d", "D":
			m.handleDimmer()
		case "f", "F":
			m.app.config.Display.Hour24Format = !m.app.config.Display.Hour24Format
		case "s", "S":
			m.app.config.Display.ShowSeconds = !m.app.config.Display.ShowSeconds
		}
	}
	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	app := m.app
	now := app.now()

	header := "  [T] TRIGGER     [C] CANCEL     [D] DIMMER     [F] 12/24H     [Q] QUIT\n" +
		strings.Repeat("=", width)

	content := fmt.Sprintf("%s\n%s\n%s\n%s",
		app.renderSlots(),
		app.renderClock(now),
		app.renderChain(),
		app.renderToast())

	footer := strings.Repeat("=", width)

	return app.getBrightnessStyle().Render(fmt.Sprintf("%s\n%s\n%s", header, content, footer))
}

// Run starts the TUI application
func (app *App) Run() error {
	_, err := app.program.Run()
	return err
}

// Stop stops the TUI application
func (app *App) Stop() {
	if app.program != nil {
		app.program.Quit()
	}
}

func (app *App) now() time.Time {
	if app.currentTime.IsZero() {
		return time.Now()
	}
	return app.currentTime
}

// trigger starts the chain off the event loop; with a zero delay Start
// runs the launch itself.
func (app *App) trigger() tea.Cmd {
	return func() tea.Msg {
		run, err := app.chain.Start(chain.Trigger{Source: "tui"})
		return triggerMsg{run: run, err: err}
	}
}

func (m *Model) handleCancel() {
	if !m.app.chain.Cancel() {
		m.app.toast = "Nothing to cancel"
		m.app.toastUntil = m.app.now().Add(toastLinger)
	}
}

// handleDimmer cycles brightness 10, 8, ..., 2, 10.
func (m *Model) handleDimmer() {
	level := m.app.brightness - 2
	if level < 1 {
		level = 10
	}
	m.app.SetBrightness(level)
}

// renderSlots shows both alarm slots and the next occurrence of each.
func (app *App) renderSlots() string {
	var next map[alarm.Slot]time.Time
	if app.schedule != nil {
		next = app.schedule.Schedule()
	}

	lines := make([]string, 0, len(alarm.Slots))
	for _, slot := range alarm.Slots {
		at := app.slotTime(slot)
		if at == nil {
			lines = append(lines, fmt.Sprintf("  %s %-8s --:--", getBoolIcon(false), strings.ToUpper(string(slot))))
			continue
		}
		line := fmt.Sprintf("  %s %-8s %s", getBoolIcon(true), strings.ToUpper(string(slot)), at)
		if t, ok := next[slot]; ok {
			line += fmt.Sprintf("   next %s", t.Format("Mon 15:04"))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (app *App) slotTime(slot alarm.Slot) *config.AlarmTime {
	switch slot {
	case alarm.SlotMorning:
		return app.config.Morning
	case alarm.SlotEvening:
		return app.config.Evening
	}
	return nil
}

// renderClock renders the time as centered ASCII art using go-figure
func (app *App) renderClock(now time.Time) string {
	font := app.config.Display.FontName
	if font == "" {
		font = "doom"
	}
	ascii := figure.NewFigure(app.config.FormatTime(now), font, true).String()

	lines := strings.Split(strings.TrimRight(ascii, "\n"), "\n")
	for i, line := range lines {
		if padding := (width - len(line)) / 2; padding > 0 {
			lines[i] = strings.Repeat(" ", padding) + line
		}
	}
	return strings.Join(lines, "\n")
}

func (app *App) renderChain() string {
	st := app.status
	switch st.Phase {
	case chain.PhaseIdle:
		return "  Chain: idle"
	case chain.PhaseApproaching:
		return fmt.Sprintf("  Chain: %s opens in %s", app.config.Target.Name, timer.FormatSeconds(st.SecondsRemaining))
	case chain.PhaseReturning:
		return fmt.Sprintf("  Chain: returning in %s", timer.FormatSeconds(st.SecondsRemaining))
	default:
		return "  Chain: " + st.Phase.String()
	}
}

func (app *App) renderToast() string {
	if app.toast == "" {
		return ""
	}
	return "  » " + app.toast
}

// getBoolIcon returns an icon character for boolean status
func getBoolIcon(enabled bool) string {
	if enabled {
		return "●"
	}
	return "○"
}

// SetBrightness adjusts display brightness
func (app *App) SetBrightness(level int) {
	if level < 1 {
		level = 1
	}
	if level > 10 {
		level = 10
	}
	app.brightness = level
	app.config.Display.Brightness = level
}

// getBrightnessStyle returns a lipgloss style based on brightness level
func (app *App) getBrightnessStyle() lipgloss.Style {
	var color lipgloss.Color
	switch {
	case app.brightness <= 2:
		color = lipgloss.Color("#444444")
	case app.brightness <= 4:
		color = lipgloss.Color("#666666")
	case app.brightness <= 6:
		color = lipgloss.Color("#888888")
	case app.brightness <= 8:
		color = lipgloss.Color("#AAAAAA")
	default:
		color = lipgloss.Color("#FFFFFF")
	}

	return lipgloss.NewStyle().Foreground(color)
}
