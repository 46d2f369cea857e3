package notify

import (
	"log/slog"

	"github.com/google/uuid"
)

// Level is the urgency of a user-visible notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is a user-visible notification emitted by the sync core.
type Notice struct {
	ID      string
	Level   Level
	Message string

	// Sound requests an audible alert alongside the visual notice.
	Sound bool

	// Sticky notices stay visible until explicitly cleared (used for the
	// exhausted-retry connection failure state).
	Sticky bool
}

// Sink receives notices. The dashboard shell implements this with toasts
// and sounds; LogSink below is the headless default.
type Sink interface {
	Notify(n Notice)
}

// New builds a Notice with a fresh ID.
func New(level Level, message string) Notice {
	return Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
	}
}

// LogSink logs notices through slog.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a Sink that writes notices to the logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Notify logs the notice at a level matching its urgency.
func (s *LogSink) Notify(n Notice) {
	attrs := []any{"notice_id", n.ID, "sound", n.Sound, "sticky", n.Sticky}
	switch n.Level {
	case LevelError:
		s.logger.Error(n.Message, attrs...)
	case LevelWarning:
		s.logger.Warn(n.Message, attrs...)
	default:
		s.logger.Info(n.Message, attrs...)
	}
}
