package connections

import "errors"

// Domain errors for the connections package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, connections.ErrConnectionNotFound) {
//	    // handle not found case
//	}
var (
	// ErrInvalidArgument is returned when a value violates a type invariant,
	// e.g. a compound connection type where a single flag is required.
	ErrInvalidArgument = errors.New("connections: invalid argument")

	// ErrInvalidConnectionType is returned when a connection type string
	// cannot be parsed.
	ErrInvalidConnectionType = errors.New("connections: invalid connection type")

	// ErrConnectionExists is returned when adding a connection whose ID is already taken.
	ErrConnectionExists = errors.New("connections: already exists")

	// ErrPortInUse is returned when a connection would give a port a second
	// outbound (or inbound) connection carrying the same flag.
	ErrPortInUse = errors.New("connections: port already connected")

	// ErrConnectionNotFound is returned when a connection ID does not exist.
	ErrConnectionNotFound = errors.New("connections: not found")
)
