package export

import (
	"time"

	"github.com/nerrad567/gray-logic-av/internal/routing/controls"
	"github.com/nerrad567/gray-logic-av/internal/routing/switcher"
)

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observable is a control that raises switcher cache events.
// controls.CachedSwitcher and controls.Destination both satisfy it.
type Observable interface {
	controls.Control
	Subscribe(h switcher.Handler) (unsubscribe func())
}

// EventMessage is the JSON form of a switcher event tagged with its control.
type EventMessage struct {
	Device    int    `json:"device"`
	Control   int    `json:"control"`
	Timestamp string `json:"timestamp"`
	switcher.Event
}

func newEventMessage(c controls.Control, ev switcher.Event, now time.Time) EventMessage {
	return EventMessage{
		Device:    c.DeviceID(),
		Control:   c.ControlID(),
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Event:     ev,
	}
}
