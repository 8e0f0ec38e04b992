package switcher

import "github.com/nerrad567/gray-logic-av/internal/routing/connections"

// EventKind identifies what changed in a Cache.
type EventKind string

// Event kinds.
const (
	// EventSourceDetectionChanged: Address is an input; State is the new detection state.
	EventSourceDetectionChanged EventKind = "source_detection_changed"

	// EventRouteChanged: Address is an output; Input is the new input, Previous the old.
	EventRouteChanged EventKind = "route_changed"

	// EventTransmissionStateChanged: Address is an output; State is the new transmission state.
	EventTransmissionStateChanged EventKind = "transmission_state_changed"

	// EventActiveInputChanged: Address is an input; State reports whether it feeds any output.
	EventActiveInputChanged EventKind = "active_input_changed"
)

// Event is a committed change to a Cache. Type is always a single flag.
type Event struct {
	Kind     EventKind                  `json:"kind"`
	Address  int                        `json:"address"`
	Type     connections.ConnectionType `json:"type"`
	State    bool                       `json:"state"`
	Input    Input                      `json:"input"`
	Previous Input                      `json:"previous"`
}

// Handler receives cache events. It is called synchronously on the
// goroutine that made the change, with no cache lock held.
type Handler func(Event)
