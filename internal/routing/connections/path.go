package connections

import (
	"encoding/json"
	"slices"
	"strings"
	"sync"
)

// Path is an ordered, contiguous chain of connections.
//
// For every adjacent pair, the first connection's destination is on the same
// control as the second connection's source, and no connection appears twice.
// Mutation is only possible at the two ends, so contiguity holds at all times
// rather than being checked after the fact.
//
// All methods are safe for concurrent use.
type Path struct {
	mu    sync.RWMutex
	conns []*Connection
	typ   ConnectionType
}

// NewPath creates an empty path resolved for typ.
func NewPath(typ ConnectionType) *Path {
	return &Path{typ: typ}
}

// Type returns the signal flags this path was resolved for.
func (p *Path) Type() ConnectionType {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.typ
}

// SetType replaces the signal flags this path is valid for.
func (p *Path) SetType(t ConnectionType) {
	p.mu.Lock()
	p.typ = t
	p.mu.Unlock()
}

// Add appends c to the tail.
//
// Returns false, leaving the path unchanged, if c is nil, already present, or
// not contiguous with the current tail.
func (p *Path) Add(c *Connection) bool {
	if c == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.indexOf(c) >= 0 {
		return false
	}
	if n := len(p.conns); n > 0 && !p.conns[n-1].Destination().SameControl(c.Source()) {
		return false
	}

	p.conns = append(p.conns, c)
	return true
}

// Remove removes c if it is currently the head or the tail.
// Removing from the middle always fails.
func (p *Path) Remove(c *Connection) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.indexOf(c)
	switch {
	case idx < 0:
		return false
	case idx == len(p.conns)-1:
		p.conns = p.conns[:idx]
		return true
	case idx == 0:
		p.conns = slices.Clone(p.conns[1:])
		return true
	default:
		return false
	}
}

// Contains reports whether c is part of the path.
func (p *Path) Contains(c *Connection) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.indexOf(c) >= 0
}

// Len returns the number of connections.
func (p *Path) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}

// First returns the head connection, or nil for an empty path.
func (p *Path) First() *Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.conns) == 0 {
		return nil
	}
	return p.conns[0]
}

// Last returns the tail connection, or nil for an empty path.
func (p *Path) Last() *Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.conns) == 0 {
		return nil
	}
	return p.conns[len(p.conns)-1]
}

// Connections returns a snapshot of the ordered connections.
// The snapshot is safe to iterate while the path is mutated.
func (p *Path) Connections() []*Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.conns)
}

// IDs returns the ordered connection ids.
func (p *Path) IDs() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]int, len(p.conns))
	for i, c := range p.conns {
		ids[i] = c.ID()
	}
	return ids
}

// SameSequence reports whether p and other hold the same connections in the
// same order. Types are not compared.
func (p *Path) SameSequence(other *Path) bool {
	if p == nil || other == nil {
		return p == other
	}
	return slices.Equal(p.IDs(), other.IDs())
}

func (p *Path) String() string {
	conns := p.Connections()
	parts := make([]string, 0, len(conns)+1)
	for i, c := range conns {
		if i == 0 {
			parts = append(parts, c.Source().String())
		}
		parts = append(parts, c.Destination().String())
	}
	return strings.Join(parts, " -> ")
}

// MarshalJSON implements json.Marshaler.
func (p *Path) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        ConnectionType `json:"type"`
		Connections []*Connection  `json:"connections"`
	}{
		Type:        p.Type(),
		Connections: p.Connections(),
	})
}

// indexOf must be called with p.mu held.
func (p *Path) indexOf(c *Connection) int {
	for i, existing := range p.conns {
		if existing == c || (c != nil && existing.ID() == c.ID()) {
			return i
		}
	}
	return -1
}
