package controls

import "errors"

// Domain errors for the controls package.
var (
	// ErrControlNotFound is returned when no control is registered for a key.
	ErrControlNotFound = errors.New("controls: not found")

	// ErrControlExists is returned when registering a key that is already taken.
	ErrControlExists = errors.New("controls: already exists")

	// ErrNotSwitcher is returned when a control cannot switch signals.
	ErrNotSwitcher = errors.New("controls: not a switcher")

	// ErrUnknownPort is returned when an address is not a declared port of the control.
	ErrUnknownPort = errors.New("controls: unknown port")

	// ErrInvalidArgument is returned for nil controls, compound types where a
	// single flag is required, and malformed route operations.
	ErrInvalidArgument = errors.New("controls: invalid argument")
)
