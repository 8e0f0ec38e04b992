package graph

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
	"github.com/nerrad567/gray-logic-av/internal/routing/controls"
	"github.com/nerrad567/gray-logic-av/internal/routing/pathfinding"
	"github.com/nerrad567/gray-logic-av/internal/routing/switcher"
)

var av = connections.Audio | connections.Video

func ep(device, address int) connections.Endpoint {
	return connections.NewEndpoint(device, 1, address)
}

func pathfindingQuery(src, dst connections.Endpoint, t connections.ConnectionType) pathfinding.Query {
	return pathfinding.Query{
		Sources: []connections.Endpoint{src},
		Groups:  [][]connections.Endpoint{{dst}},
		Type:    t,
	}
}

// testSystem is player 1 -> matrix 2 -> scaler 3 -> display 4, with a
// separate audio feed from matrix output 3 to amplifier 5 and on to the display.
func testSystem(t *testing.T) (*RoutingGraph, *controls.CachedSwitcher, *controls.CachedSwitcher) {
	t.Helper()

	conns, err := connections.NewCollection(
		connections.MustConnection(1, ep(1, 1), ep(2, 4), av),
		connections.MustConnection(2, ep(2, 1), ep(3, 2), connections.Video),
		connections.MustConnection(3, ep(3, 1), ep(4, 1), connections.Video),
		connections.MustConnection(4, ep(2, 3), ep(5, 1), connections.Audio),
		connections.MustConnection(5, ep(5, 1), ep(4, 1), connections.Audio),
	)
	if err != nil {
		t.Fatalf("NewCollection error = %v", err)
	}

	matrix := controls.NewCachedSwitcher(2, 1, "Matrix", nil, nil, nil)
	scaler := controls.NewCachedSwitcher(3, 1, "Scaler", nil, nil, nil)

	registry := controls.NewRegistry()
	for _, c := range []controls.Control{
		controls.NewSource(1, 1, "Player", nil),
		matrix,
		scaler,
		controls.NewCachedSwitcher(5, 1, "Amplifier", nil, nil, nil),
		controls.NewDestination(4, 1, "Display", nil),
	} {
		if err := registry.Register(c); err != nil {
			t.Fatalf("Register error = %v", err)
		}
	}
	return New(conns, registry), matrix, scaler
}

func TestRoutingGraph_RouteBreakaway(t *testing.T) {
	g, matrix, scaler := testSystem(t)
	ctx := context.Background()

	paths, err := g.Route(ctx, controls.RouteOperation{Source: ep(1, 1), Destination: ep(4, 1), Type: av})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %d, want 2 (audio and video differ)", len(paths))
	}

	if in, _ := matrix.GetInput(1, connections.Video); in != switcher.SomeInput(4) {
		t.Errorf("matrix video output 1 = %v, want input 4", in)
	}
	if in, _ := matrix.GetInput(3, connections.Audio); in != switcher.SomeInput(4) {
		t.Errorf("matrix audio output 3 = %v, want input 4", in)
	}
	if in, _ := scaler.GetInput(1, connections.Video); in != switcher.SomeInput(2) {
		t.Errorf("scaler output 1 = %v, want input 2", in)
	}
	if got := matrix.GetOutputs(4, av); !slices.Equal(got, []int{1, 3}) {
		t.Errorf("matrix outputs for input 4 = %v, want [1 3]", got)
	}

	for _, p := range paths {
		if err := g.ClearRoute(ctx, p); err != nil {
			t.Errorf("ClearRoute(%s) error = %v", p, err)
		}
	}
	if matrix.GetInputActiveState(4, av) {
		t.Error("matrix input 4 still active after ClearRoute")
	}
	if scaler.GetActiveTransmissionState(1, connections.Video) {
		t.Error("scaler still transmitting after ClearRoute")
	}
}

func TestRoutingGraph_RouteNoPath(t *testing.T) {
	g, matrix, _ := testSystem(t)

	_, err := g.Route(context.Background(), controls.RouteOperation{Source: ep(1, 1), Destination: ep(4, 1), Type: connections.Usb})
	if !errors.Is(err, ErrNoPath) {
		t.Errorf("Route(Usb) error = %v, want ErrNoPath", err)
	}
	if len(matrix.Cache().GetOutputs()) != 0 {
		t.Error("matrix routed despite missing path")
	}
}

func TestRoutingGraph_MidpointFromRegistry(t *testing.T) {
	g, _, _ := testSystem(t)

	if !g.IsMidpoint(connections.ControlKey{Device: 2, Control: 1}) {
		t.Error("matrix should be a midpoint")
	}
	if g.IsMidpoint(connections.ControlKey{Device: 4, Control: 1}) {
		t.Error("display should not be a midpoint")
	}

	g.Registry().Unregister(connections.ControlKey{Device: 3, Control: 1})
	ok, err := g.Finder().HasPaths(pathfindingQuery(ep(1, 1), ep(4, 1), connections.Video))
	if err != nil || ok {
		t.Errorf("HasPaths without scaler = %v, %v; want false", ok, err)
	}
}

func TestRoutingGraph_RoutePathRequiresSwitchers(t *testing.T) {
	g, _, _ := testSystem(t)
	g.Registry().Unregister(connections.ControlKey{Device: 3, Control: 1})
	_ = g.Registry().Register(controls.NewDestination(3, 1, "Passive", nil))

	p := connections.NewPath(connections.Video)
	for _, id := range []int{1, 2, 3} {
		c, _ := g.Connections().Get(id)
		p.Add(c)
	}
	if err := g.RoutePath(context.Background(), p); !errors.Is(err, controls.ErrNotSwitcher) {
		t.Errorf("RoutePath() error = %v, want ErrNotSwitcher", err)
	}
	if err := g.RoutePath(context.Background(), nil); err == nil {
		t.Error("RoutePath(nil) error = nil, want error")
	}
}
