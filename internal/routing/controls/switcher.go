package controls

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
	"github.com/nerrad567/gray-logic-av/internal/routing/switcher"
)

// Driver performs the physical switch on the device.
// Implementations talk to the hardware; they must not touch the cache.
type Driver interface {
	Route(ctx context.Context, input, output int, t connections.ConnectionType) error
	ClearOutput(ctx context.Context, output int, t connections.ConnectionType) error
}

// CachedSwitcher is a SwitcherControl whose state lives in a switcher.Cache.
//
// Route and ClearOutput call the Driver first and update the cache only when
// the driver succeeds, so cache events always describe committed changes.
// A nil driver makes the switcher a loopback that just records routes.
//
// Device feedback that arrives unsolicited is applied with ReportRoute and
// ReportSignalDetected.
type CachedSwitcher struct {
	device  int
	control int
	name    string
	inputs  []Port
	outputs []Port
	driver  Driver
	cache   *switcher.Cache
	logger  Logger
}

// NewCachedSwitcher creates a switcher for the given control.
// Empty port lists accept any address.
func NewCachedSwitcher(device, control int, name string, inputs, outputs []Port, driver Driver) *CachedSwitcher {
	return &CachedSwitcher{
		device:  device,
		control: control,
		name:    name,
		inputs:  clonePorts(inputs),
		outputs: clonePorts(outputs),
		driver:  driver,
		cache:   switcher.NewCache(),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the switcher and its cache.
func (s *CachedSwitcher) SetLogger(logger Logger) {
	s.logger = logger
	s.cache.SetLogger(logger)
}

// DeviceID returns the device the switcher belongs to.
func (s *CachedSwitcher) DeviceID() int { return s.device }

// ControlID returns the control number within the device.
func (s *CachedSwitcher) ControlID() int { return s.control }

// Name returns the display name.
func (s *CachedSwitcher) Name() string { return s.name }

// Inputs returns a copy of the declared inputs.
func (s *CachedSwitcher) Inputs() []Port { return clonePorts(s.inputs) }

// Outputs returns a copy of the declared outputs.
func (s *CachedSwitcher) Outputs() []Port { return clonePorts(s.outputs) }

// Cache exposes the underlying state cache.
func (s *CachedSwitcher) Cache() *switcher.Cache { return s.cache }

// Subscribe registers h for the cache's change events.
func (s *CachedSwitcher) Subscribe(h switcher.Handler) (unsubscribe func()) {
	return s.cache.Subscribe(h)
}

// GetActiveTransmissionState reports whether output carries any flag of t.
func (s *CachedSwitcher) GetActiveTransmissionState(output int, t connections.ConnectionType) bool {
	return s.cache.GetActiveTransmissionState(output, t)
}

// GetSignalDetectedState reports whether a signal is present on input for
// the single flag t.
func (s *CachedSwitcher) GetSignalDetectedState(input int, t connections.ConnectionType) (bool, error) {
	detected, err := s.cache.GetSourceDetectedState(input, t)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return detected, nil
}

// GetInputActiveState reports whether input feeds any output for any flag of t.
func (s *CachedSwitcher) GetInputActiveState(input int, t connections.ConnectionType) bool {
	return s.cache.GetInputActiveState(input, t)
}

// GetInput returns the input routed to output for the single flag t.
func (s *CachedSwitcher) GetInput(output int, t connections.ConnectionType) (switcher.Input, error) {
	in, err := s.cache.GetInputForOutput(output, t)
	if err != nil {
		return switcher.NoInput(), fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return in, nil
}

// GetOutputs returns the outputs fed by input for any flag of t, sorted.
func (s *CachedSwitcher) GetOutputs(input int, t connections.ConnectionType) []int {
	return s.cache.GetOutputsForInput(input, t)
}

// Route connects op.Source (an input of this control) to op.Destination
// (an output of this control) for op.Type.
func (s *CachedSwitcher) Route(ctx context.Context, op RouteOperation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	key := connections.ControlKey{Device: s.device, Control: s.control}
	if op.Source.ControlKey() != key || op.Destination.ControlKey() != key {
		return fmt.Errorf("%w: %s is not local to control %s", ErrInvalidArgument, op, key)
	}
	input, output := op.Source.Address, op.Destination.Address
	if err := s.checkPorts(input, output, op.Type); err != nil {
		return err
	}

	if s.driver != nil {
		if err := s.driver.Route(ctx, input, output, op.Type); err != nil {
			return fmt.Errorf("routing %d to %d on %s: %w", input, output, key, err)
		}
	}

	s.cache.SetInputForOutput(output, switcher.SomeInput(input), op.Type)
	s.logger.Debug("switcher routed",
		"control", key.String(),
		"input", input,
		"output", output,
		"type", op.Type.String(),
	)
	return nil
}

// ClearOutput disconnects whatever feeds output for t.
func (s *CachedSwitcher) ClearOutput(ctx context.Context, output int, t connections.ConnectionType) error {
	if t == connections.None || !t.IsValid() {
		return fmt.Errorf("%w: clear type %q", ErrInvalidArgument, t)
	}
	if _, ok := findPort(s.outputs, output); !ok {
		return fmt.Errorf("%w: output %d", ErrUnknownPort, output)
	}

	if s.driver != nil {
		if err := s.driver.ClearOutput(ctx, output, t); err != nil {
			return fmt.Errorf("clearing output %d on %d:%d: %w", output, s.device, s.control, err)
		}
	}

	s.cache.SetInputForOutput(output, switcher.NoInput(), t)
	return nil
}

// ReportRoute records a routing change reported by the device itself.
func (s *CachedSwitcher) ReportRoute(output int, input switcher.Input, t connections.ConnectionType) {
	s.cache.SetInputForOutput(output, input, t)
}

// ReportSignalDetected records a signal detection change reported by the device.
func (s *CachedSwitcher) ReportSignalDetected(input int, t connections.ConnectionType, detected bool) {
	s.cache.SetSourceDetectedState(input, t, detected)
}

func (s *CachedSwitcher) checkPorts(input, output int, t connections.ConnectionType) error {
	in, ok := findPort(s.inputs, input)
	if !ok {
		return fmt.Errorf("%w: input %d", ErrUnknownPort, input)
	}
	out, ok := findPort(s.outputs, output)
	if !ok {
		return fmt.Errorf("%w: output %d", ErrUnknownPort, output)
	}
	if !in.Type.Has(t) || !out.Type.Has(t) {
		return fmt.Errorf("%w: ports %d -> %d do not carry %s", ErrInvalidArgument, input, output, t)
	}
	return nil
}

var _ SwitcherControl = (*CachedSwitcher)(nil)
