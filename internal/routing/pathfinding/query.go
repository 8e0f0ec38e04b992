package pathfinding

import (
	"fmt"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
	"github.com/nerrad567/gray-logic-av/internal/routing/controls"
)

// Query asks for a path from any of Sources to each destination group.
// A group is satisfied by reaching any one of its endpoints.
type Query struct {
	Sources []connections.Endpoint     `json:"sources"`
	Groups  [][]connections.Endpoint   `json:"groups"`
	Type    connections.ConnectionType `json:"type"`

	// RoomID applies room restrictions when set.
	RoomID *int `json:"room_id,omitempty"`
}

// ForOperation builds the single-source, single-destination query for op.
func ForOperation(op controls.RouteOperation) Query {
	return Query{
		Sources: []connections.Endpoint{op.Source},
		Groups:  [][]connections.Endpoint{{op.Destination}},
		Type:    op.Type,
		RoomID:  cloneRoom(op.RoomID),
	}
}

// Validate rejects queries with no sources, no or empty groups, or an
// unusable type.
func (q Query) Validate() error {
	if len(q.Sources) == 0 {
		return fmt.Errorf("%w: query has no sources", ErrInvalidArgument)
	}
	if len(q.Groups) == 0 {
		return fmt.Errorf("%w: query has no destinations", ErrInvalidArgument)
	}
	for i, g := range q.Groups {
		if len(g) == 0 {
			return fmt.Errorf("%w: destination group %d is empty", ErrInvalidArgument, i)
		}
	}
	if !q.Type.IsValid() {
		return fmt.Errorf("%w: query type %q", ErrInvalidArgument, q.Type)
	}
	return nil
}

func cloneRoom(room *int) *int {
	if room == nil {
		return nil
	}
	r := *room
	return &r
}
