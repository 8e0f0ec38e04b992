package controls

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
	"github.com/nerrad567/gray-logic-av/internal/routing/switcher"
)

// Control is the identity every device control exposes.
type Control interface {
	DeviceID() int
	ControlID() int
	Name() string
}

// SourceControl is a control with outputs, such as a media player.
type SourceControl interface {
	Control
	Outputs() []Port
	GetActiveTransmissionState(output int, t connections.ConnectionType) bool
}

// DestinationControl is a control with inputs, such as a display.
type DestinationControl interface {
	Control
	Inputs() []Port
	GetSignalDetectedState(input int, t connections.ConnectionType) (bool, error)
	GetInputActiveState(input int, t connections.ConnectionType) bool
}

// MidpointControl passes signals from its inputs to its outputs.
type MidpointControl interface {
	SourceControl
	DestinationControl
	GetInput(output int, t connections.ConnectionType) (switcher.Input, error)
	GetOutputs(input int, t connections.ConnectionType) []int
}

// SwitcherControl is a midpoint whose routing can be commanded.
type SwitcherControl interface {
	MidpointControl
	Route(ctx context.Context, op RouteOperation) error
	ClearOutput(ctx context.Context, output int, t connections.ConnectionType) error
}

// Key returns the registry key of c.
func Key(c Control) connections.ControlKey {
	return connections.ControlKey{Device: c.DeviceID(), Control: c.ControlID()}
}

// Port is a declared input or output of a control.
type Port struct {
	Address int                        `json:"address" yaml:"address"`
	Name    string                     `json:"name,omitempty" yaml:"name,omitempty"`
	Type    connections.ConnectionType `json:"type" yaml:"type"`
}

// RouteOperation asks for Source to be connected to Destination for Type.
//
// Passed to SwitcherControl.Route, Source is the switcher's input endpoint
// and Destination its output endpoint. Passed to path finding, they are the
// end-to-end source and sink.
type RouteOperation struct {
	Source      connections.Endpoint       `json:"source"`
	Destination connections.Endpoint       `json:"destination"`
	Type        connections.ConnectionType `json:"type"`

	// RoomID limits the connections that may be used. Nil means no room context.
	RoomID *int `json:"room_id,omitempty"`
}

// Validate checks that the operation names a usable type.
func (op RouteOperation) Validate() error {
	if op.Type == connections.None || !op.Type.IsValid() {
		return fmt.Errorf("%w: route type %q", ErrInvalidArgument, op.Type)
	}
	return nil
}

func (op RouteOperation) String() string {
	return fmt.Sprintf("%s -> %s (%s)", op.Source, op.Destination, op.Type)
}

// findPort returns the port at address, or ok=false.
// An empty port list means the control accepts any address.
func findPort(ports []Port, address int) (Port, bool) {
	if len(ports) == 0 {
		return Port{Address: address, Type: connections.AllTypes}, true
	}
	for _, p := range ports {
		if p.Address == address {
			return p, true
		}
	}
	return Port{}, false
}

func clonePorts(ports []Port) []Port {
	if ports == nil {
		return nil
	}
	out := make([]Port, len(ports))
	copy(out, ports)
	return out
}
