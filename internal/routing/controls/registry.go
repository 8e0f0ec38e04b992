package controls

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
)

// Logger defines the logging interface used by the Registry and switchers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds every control keyed by (device, control).
//
// Controls are stored by reference; the registry only guards its own map.
// All public methods are thread-safe.
type Registry struct {
	controls map[connections.ControlKey]Control
	mu       sync.RWMutex
	logger   Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		controls: make(map[connections.ControlKey]Control),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register adds c. Returns ErrControlExists if its key is taken.
func (r *Registry) Register(c Control) error {
	if c == nil {
		return fmt.Errorf("%w: nil control", ErrInvalidArgument)
	}
	key := Key(c)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.controls[key]; exists {
		return fmt.Errorf("%w: %s", ErrControlExists, key)
	}
	r.controls[key] = c

	r.logger.Debug("control registered",
		"control", key.String(),
		"name", c.Name(),
		"midpoint", isMidpoint(c),
	)
	return nil
}

// Unregister removes the control at key and reports whether it existed.
func (r *Registry) Unregister(key connections.ControlKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.controls[key]; !ok {
		return false
	}
	delete(r.controls, key)
	return true
}

// Get returns the control at key or ErrControlNotFound.
func (r *Registry) Get(key connections.ControlKey) (Control, error) {
	r.mu.RLock()
	c, ok := r.controls[key]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrControlNotFound, key)
	}
	return c, nil
}

// Switcher returns the control at key as a SwitcherControl.
// Returns ErrNotSwitcher if it cannot switch.
func (r *Registry) Switcher(key connections.ControlKey) (SwitcherControl, error) {
	c, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	sw, ok := c.(SwitcherControl)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSwitcher, key)
	}
	return sw, nil
}

// IsMidpoint reports whether the control at key passes signals through.
// Unknown keys are not midpoints.
func (r *Registry) IsMidpoint(key connections.ControlKey) bool {
	r.mu.RLock()
	c, ok := r.controls[key]
	r.mu.RUnlock()
	return ok && isMidpoint(c)
}

// All returns a snapshot of every control ordered by device then control.
func (r *Registry) All() []Control {
	r.mu.RLock()
	all := make([]Control, 0, len(r.controls))
	for _, c := range r.controls {
		all = append(all, c)
	}
	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b Control) int {
		if c := cmp.Compare(a.DeviceID(), b.DeviceID()); c != 0 {
			return c
		}
		return cmp.Compare(a.ControlID(), b.ControlID())
	})
	return all
}

// Switchers returns a snapshot of every SwitcherControl, ordered by key.
func (r *Registry) Switchers() []SwitcherControl {
	var out []SwitcherControl
	for _, c := range r.All() {
		if sw, ok := c.(SwitcherControl); ok {
			out = append(out, sw)
		}
	}
	return out
}

// Len returns the number of registered controls.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.controls)
}

func isMidpoint(c Control) bool {
	_, ok := c.(MidpointControl)
	return ok
}
