package playback

import (
	"log/slog"

	"vidash/internal/logging"
)

// Level grades a user-facing notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Notification is a non-fatal message for the user.
type Notification struct {
	Level   Level
	Message string
}

// Notifier publishes notifications. Implementations must not call back into
// the controller.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to a logger.
func LogNotifier(logger *slog.Logger) Notifier {
	logger = logging.NewComponentLogger(logger, "playback")
	return NotifierFunc(func(n Notification) {
		switch n.Level {
		case LevelError:
			logger.Error(n.Message)
		case LevelWarn:
			logger.Warn(n.Message, logging.String(logging.FieldEventType, "player_notification"))
		default:
			logger.Info(n.Message)
		}
	})
}
