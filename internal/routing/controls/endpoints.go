package controls

import (
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
	"github.com/nerrad567/gray-logic-av/internal/routing/switcher"
)

// Source is a plain SourceControl whose transmission state is reported by
// its adapter.
type Source struct {
	device  int
	control int
	name    string
	outputs []Port

	mu           sync.RWMutex
	transmitting map[portFlag]bool
}

type portFlag struct {
	address int
	flag    connections.ConnectionType
}

// NewSource creates a source control.
func NewSource(device, control int, name string, outputs []Port) *Source {
	return &Source{
		device:       device,
		control:      control,
		name:         name,
		outputs:      clonePorts(outputs),
		transmitting: make(map[portFlag]bool),
	}
}

// DeviceID returns the device the source belongs to.
func (s *Source) DeviceID() int { return s.device }

// ControlID returns the control number within the device.
func (s *Source) ControlID() int { return s.control }

// Name returns the display name.
func (s *Source) Name() string { return s.name }

// Outputs returns a copy of the declared outputs.
func (s *Source) Outputs() []Port { return clonePorts(s.outputs) }

// SetTransmissionState records whether output is transmitting each flag of t.
func (s *Source) SetTransmissionState(output int, t connections.ConnectionType, state bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, flag := range t.Flags() {
		if state {
			s.transmitting[portFlag{output, flag}] = true
		} else {
			delete(s.transmitting, portFlag{output, flag})
		}
	}
}

// GetActiveTransmissionState reports whether output transmits any flag of t.
func (s *Source) GetActiveTransmissionState(output int, t connections.ConnectionType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, flag := range t.Flags() {
		if s.transmitting[portFlag{output, flag}] {
			return true
		}
	}
	return false
}

// Destination is a sink such as a display. Its selected input is held in a
// switcher.Cache as the route to output 0.
type Destination struct {
	device  int
	control int
	name    string
	inputs  []Port
	cache   *switcher.Cache
}

// selectedOutput is the cache output a destination's input selection is stored under.
const selectedOutput = 0

// NewDestination creates a destination control.
func NewDestination(device, control int, name string, inputs []Port) *Destination {
	return &Destination{
		device:  device,
		control: control,
		name:    name,
		inputs:  clonePorts(inputs),
		cache:   switcher.NewCache(),
	}
}

// DeviceID returns the device the destination belongs to.
func (d *Destination) DeviceID() int { return d.device }

// ControlID returns the control number within the device.
func (d *Destination) ControlID() int { return d.control }

// Name returns the display name.
func (d *Destination) Name() string { return d.name }

// Inputs returns a copy of the declared inputs.
func (d *Destination) Inputs() []Port { return clonePorts(d.inputs) }

// Subscribe registers h for selection and detection changes.
func (d *Destination) Subscribe(h switcher.Handler) (unsubscribe func()) {
	return d.cache.Subscribe(h)
}

// SelectInput records the input the sink is showing for t.
func (d *Destination) SelectInput(input switcher.Input, t connections.ConnectionType) error {
	if input.IsSet() {
		if _, ok := findPort(d.inputs, input.Address()); !ok {
			return fmt.Errorf("%w: input %d", ErrUnknownPort, input.Address())
		}
	}
	d.cache.SetInputForOutput(selectedOutput, input, t)
	return nil
}

// SelectedInput returns the input shown for the single flag t.
func (d *Destination) SelectedInput(t connections.ConnectionType) (switcher.Input, error) {
	in, err := d.cache.GetInputForOutput(selectedOutput, t)
	if err != nil {
		return switcher.NoInput(), fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return in, nil
}

// ReportSignalDetected records a detection change reported by the device.
func (d *Destination) ReportSignalDetected(input int, t connections.ConnectionType, detected bool) {
	d.cache.SetSourceDetectedState(input, t, detected)
}

// GetSignalDetectedState reports whether a signal is present on input for
// the single flag t.
func (d *Destination) GetSignalDetectedState(input int, t connections.ConnectionType) (bool, error) {
	detected, err := d.cache.GetSourceDetectedState(input, t)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return detected, nil
}

// GetInputActiveState reports whether input is the selected input for any
// flag of t.
func (d *Destination) GetInputActiveState(input int, t connections.ConnectionType) bool {
	return d.cache.GetInputActiveState(input, t)
}

var (
	_ SourceControl      = (*Source)(nil)
	_ DestinationControl = (*Destination)(nil)
)
