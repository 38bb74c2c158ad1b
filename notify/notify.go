// Package notify provides sinks for the chain's transient messages.
package notify

import (
	"log/slog"

	"dingwecker/log"
)

// Notifier shows short-lived messages. ShowTransient must not block.
type Notifier interface {
	ShowTransient(message string)
}

// Log writes every message to the structured log.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a Log notifier on the package logger.
func NewLog() *Log {
	return &Log{logger: log.With("component", "notify")}
}

func (l *Log) ShowTransient(message string) {
	l.logger.Info("notification", "message", message)
}

// Multi fans a message out to several notifiers in order.
type Multi []Notifier

// NewMulti drops nil entries.
func NewMulti(notifiers ...Notifier) Multi {
	var m Multi
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

func (m Multi) ShowTransient(message string) {
	for _, n := range m {
		n.ShowTransient(message)
	}
}

// Dismiss forwards to every member that holds a message on screen.
func (m Multi) Dismiss() {
	for _, n := range m {
		if d, ok := n.(interface{ Dismiss() }); ok {
			d.Dismiss()
		}
	}
}
