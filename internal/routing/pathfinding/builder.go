package pathfinding

import (
	"fmt"
	"slices"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
)

type builderState int

const (
	stateStart builderState = iota
	stateFrom
	stateTo
	stateTyped
	stateRoom
	stateDone
)

var stateNames = map[builderState]string{
	stateStart: "start",
	stateFrom:  "from",
	stateTo:    "to",
	stateTyped: "of-type",
	stateRoom:  "in-room",
	stateDone:  "done",
}

// Builder assembles one or more queries fluently:
//
//	From → To → AndTo* → OfType → InRoom? → AndFindPaths (next query) | With / Build
//
// The first out-of-order call records ErrInvalidOperation, which With or
// Build returns. Once With or Build has run, every call fails with
// ErrBuilderConsumed.
type Builder struct {
	state   builderState
	current Query
	queries []Query
	err     error
}

// NewBuilder starts a new query list.
func NewBuilder() *Builder {
	return &Builder{}
}

// From sets the sources of the current query.
func (b *Builder) From(sources ...connections.Endpoint) *Builder {
	if !b.step("From", stateStart) {
		return b
	}
	b.current = Query{Sources: slices.Clone(sources)}
	b.state = stateFrom
	return b
}

// To adds the first destination group.
func (b *Builder) To(destinations ...connections.Endpoint) *Builder {
	if !b.step("To", stateFrom) {
		return b
	}
	b.current.Groups = append(b.current.Groups, slices.Clone(destinations))
	b.state = stateTo
	return b
}

// AndTo adds another destination group.
func (b *Builder) AndTo(destinations ...connections.Endpoint) *Builder {
	if !b.step("AndTo", stateTo) {
		return b
	}
	b.current.Groups = append(b.current.Groups, slices.Clone(destinations))
	return b
}

// OfType sets the connection type of the current query.
func (b *Builder) OfType(t connections.ConnectionType) *Builder {
	if !b.step("OfType", stateTo) {
		return b
	}
	b.current.Type = t
	b.state = stateTyped
	return b
}

// InRoom applies room restrictions for roomID to the current query.
func (b *Builder) InRoom(roomID int) *Builder {
	if !b.step("InRoom", stateTyped) {
		return b
	}
	b.current.RoomID = &roomID
	b.state = stateRoom
	return b
}

// AndFindPaths completes the current query and starts the next one.
func (b *Builder) AndFindPaths() *Builder {
	if !b.step("AndFindPaths", stateTyped, stateRoom) {
		return b
	}
	b.finishCurrent()
	b.state = stateStart
	return b
}

// Build completes the builder and returns its queries.
func (b *Builder) Build() ([]Query, error) {
	if b.state == stateDone {
		return nil, ErrBuilderConsumed
	}
	if b.err == nil {
		switch b.state {
		case stateTyped, stateRoom:
			b.finishCurrent()
		case stateStart:
			if len(b.queries) == 0 {
				b.err = fmt.Errorf("%w: Build with no queries", ErrInvalidOperation)
			}
		default:
			b.err = fmt.Errorf("%w: Build called in state %s", ErrInvalidOperation, stateNames[b.state])
		}
	}
	b.state = stateDone

	if b.err != nil {
		return nil, b.err
	}
	for _, q := range b.queries {
		if err := q.Validate(); err != nil {
			return nil, err
		}
	}
	return b.queries, nil
}

// With completes the builder and runs its queries through f.
func (b *Builder) With(f *Finder) ([]PathResult, error) {
	queries, err := b.Build()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: nil finder", ErrInvalidArgument)
	}
	return f.FindPaths(queries...)
}

// Err returns the sticky error, if any.
func (b *Builder) Err() error {
	if b.state == stateDone && b.err == nil {
		return ErrBuilderConsumed
	}
	return b.err
}

func (b *Builder) finishCurrent() {
	b.queries = append(b.queries, b.current)
	b.current = Query{}
}

// step reports whether a call named op may proceed from the current state,
// recording the first ordering error otherwise.
func (b *Builder) step(op string, allowed ...builderState) bool {
	if b.state == stateDone {
		b.err = ErrBuilderConsumed
		return false
	}
	if b.err != nil {
		return false
	}
	if !slices.Contains(allowed, b.state) {
		b.err = fmt.Errorf("%w: %s called in state %s", ErrInvalidOperation, op, stateNames[b.state])
		return false
	}
	return true
}
