package connections

import "fmt"

// Endpoint identifies one port on one control of one device.
type Endpoint struct {
	Device  int `json:"device" yaml:"device"`
	Control int `json:"control" yaml:"control"`
	Address int `json:"address" yaml:"address"`
}

// NewEndpoint returns the endpoint for the given ids.
func NewEndpoint(device, control, address int) Endpoint {
	return Endpoint{Device: device, Control: control, Address: address}
}

// SameControl reports whether e and other belong to the same control,
// ignoring the port address. Path contiguity is defined by this relation.
func (e Endpoint) SameControl(other Endpoint) bool {
	return e.Device == other.Device && e.Control == other.Control
}

// ControlKey returns the (device, control) pair without the address.
func (e Endpoint) ControlKey() ControlKey {
	return ControlKey{Device: e.Device, Control: e.Control}
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%d:%d:%d", e.Device, e.Control, e.Address)
}

// ControlKey identifies a control independent of port.
type ControlKey struct {
	Device  int `json:"device"`
	Control int `json:"control"`
}

func (k ControlKey) String() string {
	return fmt.Sprintf("%d:%d", k.Device, k.Control)
}
