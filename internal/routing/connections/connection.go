package connections

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

// Connection is a directed, typed edge from one device port to another.
//
// Identity, endpoints and type are fixed at construction. The restriction
// lists are allow-lists (empty means unrestricted) and may only be replaced
// wholesale by the owner of the connection settings.
type Connection struct {
	id          int
	source      Endpoint
	destination Endpoint
	typ         ConnectionType

	mu                 sync.RWMutex
	deviceRestrictions map[int]struct{}
	roomRestrictions   map[int]struct{}
}

// NewConnection creates a connection.
// Returns ErrInvalidArgument if typ is empty or contains unknown flags.
func NewConnection(id int, source, destination Endpoint, typ ConnectionType, deviceRestrictions, roomRestrictions []int) (*Connection, error) {
	if !typ.IsValid() {
		return nil, fmt.Errorf("%w: connection %d has invalid type %d", ErrInvalidArgument, id, uint8(typ))
	}

	return &Connection{
		id:                 id,
		source:             source,
		destination:        destination,
		typ:                typ,
		deviceRestrictions: toSet(deviceRestrictions),
		roomRestrictions:   toSet(roomRestrictions),
	}, nil
}

// MustConnection is like NewConnection but panics on error.
// Intended for fixtures and tests.
func MustConnection(id int, source, destination Endpoint, typ ConnectionType) *Connection {
	c, err := NewConnection(id, source, destination, typ, nil, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// ID returns the connection identifier.
func (c *Connection) ID() int { return c.id }

// Source returns the endpoint the signal leaves from.
func (c *Connection) Source() Endpoint { return c.source }

// Destination returns the endpoint the signal arrives at.
func (c *Connection) Destination() Endpoint { return c.destination }

// Type returns the signal flags the connection carries.
func (c *Connection) Type() ConnectionType { return c.typ }

// Carries reports whether the connection carries every flag in t.
func (c *Connection) Carries(t ConnectionType) bool {
	return c.typ.Has(t)
}

// IsAvailableToRoom reports whether the connection may be used for roomID.
func (c *Connection) IsAvailableToRoom(roomID int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return allowed(c.roomRestrictions, roomID)
}

// IsAvailableToSourceDevice reports whether signals originating at deviceID
// may use the connection.
func (c *Connection) IsAvailableToSourceDevice(deviceID int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return allowed(c.deviceRestrictions, deviceID)
}

// SourceDeviceRestrictions returns the allowed source device ids, sorted.
func (c *Connection) SourceDeviceRestrictions() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.deviceRestrictions)
}

// RoomRestrictions returns the allowed room ids, sorted.
func (c *Connection) RoomRestrictions() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.roomRestrictions)
}

// SetSourceDeviceRestrictions replaces the source device allow-list.
func (c *Connection) SetSourceDeviceRestrictions(ids []int) {
	set := toSet(ids)
	c.mu.Lock()
	c.deviceRestrictions = set
	c.mu.Unlock()
}

// SetRoomRestrictions replaces the room allow-list.
func (c *Connection) SetRoomRestrictions(ids []int) {
	set := toSet(ids)
	c.mu.Lock()
	c.roomRestrictions = set
	c.mu.Unlock()
}

func (c *Connection) String() string {
	return fmt.Sprintf("connection %d (%s -> %s, %s)", c.id, c.source, c.destination, c.typ)
}

// connectionJSON is the wire form used by the API and MQTT payloads.
type connectionJSON struct {
	ID                       int            `json:"id"`
	Source                   Endpoint       `json:"source"`
	Destination              Endpoint       `json:"destination"`
	Type                     ConnectionType `json:"type"`
	SourceDeviceRestrictions []int          `json:"source_device_restrictions,omitempty"`
	RoomRestrictions         []int          `json:"room_restrictions,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c *Connection) MarshalJSON() ([]byte, error) {
	return json.Marshal(connectionJSON{
		ID:                       c.id,
		Source:                   c.source,
		Destination:              c.destination,
		Type:                     c.typ,
		SourceDeviceRestrictions: c.SourceDeviceRestrictions(),
		RoomRestrictions:         c.RoomRestrictions(),
	})
}

func toSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// allowed applies allow-list semantics: an empty set admits everyone.
func allowed(set map[int]struct{}, id int) bool {
	if len(set) == 0 {
		return true
	}
	_, ok := set[id]
	return ok
}

func sortedKeys(set map[int]struct{}) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
