package switcher

import (
	"encoding/json"
	"strconv"
)

// Input is an optional input address: either a routed input or no input.
// The zero value is "no input".
type Input struct {
	address int
	set     bool
}

// SomeInput returns an Input holding address.
func SomeInput(address int) Input {
	return Input{address: address, set: true}
}

// NoInput returns the empty Input.
func NoInput() Input {
	return Input{}
}

// Get returns the address and whether one is set.
func (i Input) Get() (int, bool) {
	return i.address, i.set
}

// Address returns the address, or 0 when unset.
func (i Input) Address() int {
	return i.address
}

// IsSet reports whether an input is present.
func (i Input) IsSet() bool {
	return i.set
}

func (i Input) String() string {
	if !i.set {
		return "none"
	}
	return strconv.Itoa(i.address)
}

// MarshalJSON encodes an unset input as null.
func (i Input) MarshalJSON() ([]byte, error) {
	if !i.set {
		return []byte("null"), nil
	}
	return json.Marshal(i.address)
}

// UnmarshalJSON accepts a number or null.
func (i *Input) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*i = NoInput()
		return nil
	}
	var addr int
	if err := json.Unmarshal(data, &addr); err != nil {
		return err
	}
	*i = SomeInput(addr)
	return nil
}
