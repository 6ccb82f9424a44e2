package syncagent

import (
	"log/slog"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Toast is a transient user-facing message. Remote failures reach the user
// only this way.
type Toast struct {
	Level   Level
	Title   string
	Message string
	At      time.Time
}

type Notifier interface {
	Notify(t Toast)
}

// FuncNotifier adapts a function to Notifier.
type FuncNotifier func(Toast)

func (f FuncNotifier) Notify(t Toast) { f(t) }

// LogNotifier writes toasts to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(t Toast) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if t.Level == LevelError {
		logger.Error(t.Title, "message", t.Message)
		return
	}
	logger.Info(t.Title, "message", t.Message)
}
