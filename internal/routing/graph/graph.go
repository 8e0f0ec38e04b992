// Package graph joins the connection collection and the control registry
// into the routing graph the path finder searches, and executes resolved
// paths on the switchers along them.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
	"github.com/nerrad567/gray-logic-av/internal/routing/controls"
	"github.com/nerrad567/gray-logic-av/internal/routing/pathfinding"
)

// ErrNoPath is returned by Route when a connection type has no path.
var ErrNoPath = errors.New("graph: no path")

// Logger defines the logging interface used by the RoutingGraph.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// RoutingGraph implements pathfinding.Graph over a connection collection and
// a control registry. A control is expanded through only when the registry
// knows it as a midpoint.
type RoutingGraph struct {
	conns    *connections.Collection
	registry *controls.Registry
	finder   *pathfinding.Finder
	logger   Logger
}

// New creates a routing graph.
func New(conns *connections.Collection, registry *controls.Registry) *RoutingGraph {
	g := &RoutingGraph{
		conns:    conns,
		registry: registry,
		logger:   noopLogger{},
	}
	g.finder = pathfinding.NewFinder(g)
	return g
}

// SetLogger sets the logger for the graph.
func (g *RoutingGraph) SetLogger(logger Logger) {
	g.logger = logger
}

// Connections returns the underlying collection.
func (g *RoutingGraph) Connections() *connections.Collection { return g.conns }

// Registry returns the underlying control registry.
func (g *RoutingGraph) Registry() *controls.Registry { return g.registry }

// Finder returns a path finder over this graph.
func (g *RoutingGraph) Finder() *pathfinding.Finder { return g.finder }

// Outbound returns the connection leaving ep that carries flag.
func (g *RoutingGraph) Outbound(ep connections.Endpoint, flag connections.ConnectionType) (*connections.Connection, bool, error) {
	return g.conns.Outbound(ep, flag)
}

// Inbound returns the connection arriving at ep that carries flag.
func (g *RoutingGraph) Inbound(ep connections.Endpoint, flag connections.ConnectionType) (*connections.Connection, bool, error) {
	return g.conns.Inbound(ep, flag)
}

// OutboundFromControl returns every connection leaving the control that
// carries flag, sorted by id.
func (g *RoutingGraph) OutboundFromControl(key connections.ControlKey, flag connections.ConnectionType) ([]*connections.Connection, error) {
	return g.conns.OutboundFromControl(key, flag)
}

// IsMidpoint reports whether the registered control at key can pass signals
// through, i.e. implements controls.MidpointControl.
func (g *RoutingGraph) IsMidpoint(key connections.ControlKey) bool {
	return g.registry.IsMidpoint(key)
}

// Route finds the path for op and switches every midpoint along it.
// Each flag of op.Type is routed independently, so a breakaway result
// routes audio and video over different switchers.
// Returns ErrNoPath, naming the flags, if any flag is unreachable.
func (g *RoutingGraph) Route(ctx context.Context, op controls.RouteOperation) ([]*connections.Path, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	results, err := g.finder.FindPaths(pathfinding.ForOperation(op))
	if err != nil {
		return nil, fmt.Errorf("finding path for %s: %w", op, err)
	}

	var missing connections.ConnectionType
	paths := make([]*connections.Path, 0, len(results))
	for _, r := range results {
		if !r.Found() {
			missing |= r.Type
			continue
		}
		paths = append(paths, r.Path)
	}
	if missing != connections.None {
		return nil, fmt.Errorf("%w: %s for %s", ErrNoPath, missing, op)
	}

	for _, p := range paths {
		if err := g.RoutePath(ctx, p); err != nil {
			return nil, err
		}
	}

	g.logger.Info("route established",
		"source", op.Source.String(),
		"destination", op.Destination.String(),
		"type", op.Type.String(),
		"paths", len(paths),
	)
	return paths, nil
}

// RoutePath switches every midpoint along p: for each pair of consecutive
// connections, the input the first arrives at is routed to the output the
// second leaves from.
func (g *RoutingGraph) RoutePath(ctx context.Context, p *connections.Path) error {
	if p == nil || p.Len() == 0 {
		return fmt.Errorf("%w: empty path", pathfinding.ErrInvalidArgument)
	}

	hops := p.Connections()
	for i := 0; i+1 < len(hops); i++ {
		in, out := hops[i].Destination(), hops[i+1].Source()

		sw, err := g.registry.Switcher(in.ControlKey())
		if err != nil {
			return fmt.Errorf("hop %d of %s: %w", i, p, err)
		}
		op := controls.RouteOperation{Source: in, Destination: out, Type: p.Type()}
		if err := sw.Route(ctx, op); err != nil {
			return fmt.Errorf("hop %d of %s: %w", i, p, err)
		}
	}
	return nil
}

// ClearRoute clears every output that p switched. Errors do not stop the
// remaining outputs from being cleared; they are joined and returned.
func (g *RoutingGraph) ClearRoute(ctx context.Context, p *connections.Path) error {
	if p == nil || p.Len() == 0 {
		return fmt.Errorf("%w: empty path", pathfinding.ErrInvalidArgument)
	}

	var errs []error
	hops := p.Connections()
	for i := 1; i < len(hops); i++ {
		out := hops[i].Source()
		sw, err := g.registry.Switcher(out.ControlKey())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := sw.ClearOutput(ctx, out.Address, p.Type()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ pathfinding.Graph = (*RoutingGraph)(nil)
