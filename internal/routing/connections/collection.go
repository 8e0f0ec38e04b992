package connections

import (
	"fmt"
	"slices"
	"sync"
)

// Collection is a thread-safe set of connections keyed by id, with lookups
// by port and by control.
//
// Lookups that walk the graph require a single connection-type flag: a port
// has at most one outbound (and one inbound) connection carrying a given
// flag, which is what makes the lookup unambiguous.
type Collection struct {
	mu    sync.RWMutex
	byID  map[int]*Connection
	order []int // sorted ids, rebuilt on mutation
}

// NewCollection creates a collection holding conns.
// Returns ErrConnectionExists if two connections share an id and
// ErrPortInUse if two share a port and a flag.
func NewCollection(conns ...*Connection) (*Collection, error) {
	c := &Collection{byID: make(map[int]*Connection, len(conns))}
	for _, conn := range conns {
		if err := c.Add(conn); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add inserts conn. A port keeps at most one outbound and one inbound
// connection per flag; a clash returns ErrPortInUse.
func (c *Collection) Add(conn *Connection) error {
	if conn == nil {
		return fmt.Errorf("%w: nil connection", ErrInvalidArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[conn.ID()]; exists {
		return fmt.Errorf("%w: id %d", ErrConnectionExists, conn.ID())
	}
	for _, other := range c.byID {
		if err := portClash(conn, other); err != nil {
			return err
		}
	}
	c.byID[conn.ID()] = conn
	c.rebuildOrder()
	return nil
}

// Remove deletes the connection with id. Reports whether it was present.
func (c *Collection) Remove(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	c.rebuildOrder()
	return true
}

// Replace swaps the whole contents for conns in one step.
// On error the collection is left unchanged.
func (c *Collection) Replace(conns []*Connection) error {
	next := make(map[int]*Connection, len(conns))
	for _, conn := range conns {
		if conn == nil {
			return fmt.Errorf("%w: nil connection", ErrInvalidArgument)
		}
		if _, exists := next[conn.ID()]; exists {
			return fmt.Errorf("%w: id %d", ErrConnectionExists, conn.ID())
		}
		for _, other := range next {
			if err := portClash(conn, other); err != nil {
				return err
			}
		}
		next[conn.ID()] = conn
	}

	c.mu.Lock()
	c.byID = next
	c.rebuildOrder()
	c.mu.Unlock()
	return nil
}

// Clear removes every connection.
func (c *Collection) Clear() {
	c.mu.Lock()
	c.byID = make(map[int]*Connection)
	c.order = nil
	c.mu.Unlock()
}

// Get returns the connection with id.
func (c *Collection) Get(id int) (*Connection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.byID[id]
	return conn, ok
}

// Len returns the number of connections.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// All returns a snapshot of every connection, sorted by id.
func (c *Collection) All() []*Connection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Connection, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Outbound returns the connection leaving exactly ep that carries flag.
func (c *Collection) Outbound(ep Endpoint, flag ConnectionType) (*Connection, bool, error) {
	return c.first(flag, func(conn *Connection) bool {
		return conn.Source() == ep
	})
}

// Inbound returns the connection arriving at exactly ep that carries flag.
func (c *Collection) Inbound(ep Endpoint, flag ConnectionType) (*Connection, bool, error) {
	return c.first(flag, func(conn *Connection) bool {
		return conn.Destination() == ep
	})
}

// OutboundFromControl returns every connection leaving any port of the
// control that carries flag, sorted by id.
func (c *Collection) OutboundFromControl(key ControlKey, flag ConnectionType) ([]*Connection, error) {
	return c.filter(flag, func(conn *Connection) bool {
		return conn.Source().ControlKey() == key
	})
}

// InboundToControl returns every connection arriving at any port of the
// control that carries flag, sorted by id.
func (c *Collection) InboundToControl(key ControlKey, flag ConnectionType) ([]*Connection, error) {
	return c.filter(flag, func(conn *Connection) bool {
		return conn.Destination().ControlKey() == key
	})
}

func (c *Collection) first(flag ConnectionType, match func(*Connection) bool) (*Connection, bool, error) {
	found, err := c.filter(flag, match)
	if err != nil {
		return nil, false, err
	}
	if len(found) == 0 {
		return nil, false, nil
	}
	return found[0], true, nil
}

func (c *Collection) filter(flag ConnectionType, match func(*Connection) bool) ([]*Connection, error) {
	if err := flag.RequireSingleFlag(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Connection
	for _, id := range c.order {
		conn := c.byID[id]
		if conn.Carries(flag) && match(conn) {
			out = append(out, conn)
		}
	}
	return out, nil
}

// portClash reports whether a and b leave or arrive at the same port with a
// flag in common.
func portClash(a, b *Connection) error {
	shared := a.Type().Intersect(b.Type())
	if shared == None {
		return nil
	}
	switch {
	case a.Source() == b.Source():
		return fmt.Errorf("%w: %s already leaves %s for %s", ErrPortInUse, b, a.Source(), shared)
	case a.Destination() == b.Destination():
		return fmt.Errorf("%w: %s already arrives at %s for %s", ErrPortInUse, b, a.Destination(), shared)
	}
	return nil
}

// rebuildOrder must be called with c.mu held for writing.
func (c *Collection) rebuildOrder() {
	c.order = c.order[:0]
	for id := range c.byID {
		c.order = append(c.order, id)
	}
	slices.Sort(c.order)
}
