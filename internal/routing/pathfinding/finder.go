package pathfinding

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
)

// Graph is the connection store the Finder searches.
// All lookups take a single connection-type flag.
type Graph interface {
	Outbound(ep connections.Endpoint, flag connections.ConnectionType) (*connections.Connection, bool, error)
	Inbound(ep connections.Endpoint, flag connections.ConnectionType) (*connections.Connection, bool, error)
	OutboundFromControl(key connections.ControlKey, flag connections.ConnectionType) ([]*connections.Connection, error)
	IsMidpoint(key connections.ControlKey) bool
}

// PathResult is the outcome for one destination group of one query.
// Path is nil when the group is unreachable for Type.
type PathResult struct {
	Query int                        `json:"query"`
	Group int                        `json:"group"`
	Type  connections.ConnectionType `json:"type"`
	Path  *connections.Path          `json:"path"`
}

// Found reports whether a path exists.
func (r PathResult) Found() bool {
	return r.Path != nil
}

// Finder runs breadth-first path searches over a Graph.
// It holds no state between calls and is safe for concurrent use if the
// Graph is.
type Finder struct {
	graph Graph
}

// NewFinder creates a Finder over g.
func NewFinder(g Graph) *Finder {
	return &Finder{graph: g}
}

// FindPaths resolves every query. Results are ordered by query, then group,
// then flag. An unreachable group yields a result with a nil Path.
func (f *Finder) FindPaths(queries ...Query) ([]PathResult, error) {
	if f.graph == nil {
		return nil, fmt.Errorf("%w: finder has no graph", ErrInvalidArgument)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no queries", ErrInvalidArgument)
	}

	var results []PathResult
	for qi, q := range queries {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("query %d: %w", qi, err)
		}

		// perFlag[g][i] is the path for group g and the i-th flag of q.Type.
		flags := q.Type.Flags()
		perFlag := make([][]*connections.Path, len(q.Groups))
		for g := range perFlag {
			perFlag[g] = make([]*connections.Path, len(flags))
		}

		for i, flag := range flags {
			paths, err := f.search(q, flag)
			if err != nil {
				return nil, fmt.Errorf("query %d, %s: %w", qi, flag, err)
			}
			for g, p := range paths {
				perFlag[g][i] = p
			}
		}

		for g := range q.Groups {
			results = append(results, merge(qi, g, q.Type, flags, perFlag[g])...)
		}
	}
	return results, nil
}

// HasPaths reports whether every group of every query is reachable for every
// flag of its type.
func (f *Finder) HasPaths(queries ...Query) (bool, error) {
	results, err := f.FindPaths(queries...)
	if err != nil {
		return false, err
	}
	for _, r := range results {
		if !r.Found() {
			return false, nil
		}
	}
	return true, nil
}

// node is one connection in the BFS frontier.
type node struct {
	conn   *connections.Connection
	parent *node
	depth  int
}

// search returns, for each group of q, the shortest path for the single flag,
// or nil. Sources are tried in order; a later source only replaces a path
// when strictly shorter.
func (f *Finder) search(q Query, flag connections.ConnectionType) ([]*connections.Path, error) {
	targets, err := f.resolveTargets(q, flag)
	if err != nil {
		return nil, err
	}

	best := make([]*node, len(q.Groups))
	for _, src := range q.Sources {
		start, ok, err := f.graph.Outbound(src, flag)
		if err != nil {
			return nil, fmt.Errorf("resolving source %s: %w", src, err)
		}
		if !ok {
			continue
		}

		found, err := f.bfs(q, src, start, flag, targets)
		if err != nil {
			return nil, err
		}
		for g, n := range found {
			if n != nil && (best[g] == nil || n.depth < best[g].depth) {
				best[g] = n
			}
		}
	}

	paths := make([]*connections.Path, len(best))
	for g, n := range best {
		if n != nil {
			paths[g] = buildPath(n, flag)
		}
	}
	return paths, nil
}

// resolveTargets maps each group to the ids of the connections arriving at
// its endpoints.
func (f *Finder) resolveTargets(q Query, flag connections.ConnectionType) ([]map[int]struct{}, error) {
	targets := make([]map[int]struct{}, len(q.Groups))
	for g, group := range q.Groups {
		targets[g] = make(map[int]struct{}, len(group))
		for _, ep := range group {
			conn, ok, err := f.graph.Inbound(ep, flag)
			if err != nil {
				return nil, fmt.Errorf("resolving destination %s: %w", ep, err)
			}
			if ok {
				targets[g][conn.ID()] = struct{}{}
			}
		}
	}
	return targets, nil
}

func (f *Finder) bfs(q Query, src connections.Endpoint, start *connections.Connection, flag connections.ConnectionType, targets []map[int]struct{}) ([]*node, error) {
	found := make([]*node, len(targets))
	if !usable(start, src.Device, q.RoomID) {
		return found, nil
	}

	remaining := 0
	for _, t := range targets {
		if len(t) > 0 {
			remaining++
		}
	}

	visited := map[int]struct{}{start.ID(): {}}
	queue := []*node{{conn: start, depth: 1}}

	for len(queue) > 0 && remaining > 0 {
		n := queue[0]
		queue = queue[1:]

		for g, t := range targets {
			if found[g] != nil {
				continue
			}
			if _, hit := t[n.conn.ID()]; hit {
				found[g] = n
				remaining--
			}
		}

		next := n.conn.Destination().ControlKey()
		if !f.graph.IsMidpoint(next) {
			continue
		}
		children, err := f.graph.OutboundFromControl(next, flag)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", next, err)
		}
		slices.SortFunc(children, func(a, b *connections.Connection) int {
			return cmp.Compare(a.ID(), b.ID())
		})
		for _, child := range children {
			if _, seen := visited[child.ID()]; seen {
				continue
			}
			if !usable(child, src.Device, q.RoomID) {
				continue
			}
			visited[child.ID()] = struct{}{}
			queue = append(queue, &node{conn: child, parent: n, depth: n.depth + 1})
		}
	}
	return found, nil
}

// usable applies source-device and, when a room is set, room restrictions.
func usable(c *connections.Connection, sourceDevice int, roomID *int) bool {
	if !c.IsAvailableToSourceDevice(sourceDevice) {
		return false
	}
	return roomID == nil || c.IsAvailableToRoom(*roomID)
}

func buildPath(n *node, t connections.ConnectionType) *connections.Path {
	chain := make([]*connections.Connection, 0, n.depth)
	for ; n != nil; n = n.parent {
		chain = append(chain, n.conn)
	}
	slices.Reverse(chain)

	p := connections.NewPath(t)
	for _, c := range chain {
		p.Add(c)
	}
	return p
}

// merge collapses per-flag paths for one group. If every flag resolved to the
// same connection sequence (or none did) a single result carries the full
// type; otherwise each flag is reported on its own.
func merge(query, group int, t connections.ConnectionType, flags []connections.ConnectionType, paths []*connections.Path) []PathResult {
	if allSame(paths) {
		p := paths[0]
		if p != nil {
			p.SetType(t)
		}
		return []PathResult{{Query: query, Group: group, Type: t, Path: p}}
	}

	out := make([]PathResult, len(flags))
	for i, flag := range flags {
		out[i] = PathResult{Query: query, Group: group, Type: flag, Path: paths[i]}
	}
	return out
}

func allSame(paths []*connections.Path) bool {
	for _, p := range paths[1:] {
		switch {
		case p == nil && paths[0] == nil:
		case p == nil || paths[0] == nil:
			return false
		case !p.SameSequence(paths[0]):
			return false
		}
	}
	return true
}
