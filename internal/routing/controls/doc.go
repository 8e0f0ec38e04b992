// Package controls defines the capability interfaces that device adapters
// implement, the cache-backed switcher they embed, and the control Registry
// the path finder consults.
//
// # Capabilities
//
//	Control ──┬── SourceControl ──────┐
//	          ├── DestinationControl ─┼── MidpointControl ── SwitcherControl
//
// A control is a midpoint when signals can pass through it: it has both
// inputs and outputs and reports which input feeds each output. Path finding
// only expands through midpoints.
//
// # Key Types
//
//   - Port: a declared input or output address with the types it carries
//   - RouteOperation: a request to connect a source endpoint to a destination
//   - CachedSwitcher: a SwitcherControl backed by a switcher.Cache, delegating
//     the physical switch to a Driver
//   - Source, Destination: simple edge controls for sources and sinks
//   - Registry: every control keyed by (device, control)
//
// # Usage
//
//	registry := controls.NewRegistry()
//	registry.SetLogger(log)
//
//	matrix := controls.NewCachedSwitcher(2, 1, "Matrix", inputs, outputs, driver)
//	if err := registry.Register(matrix); err != nil {
//	    return err
//	}
//
//	err := matrix.Route(ctx, controls.RouteOperation{
//	    Source:      connections.NewEndpoint(2, 1, 3),
//	    Destination: connections.NewEndpoint(2, 1, 5),
//	    Type:        connections.Video,
//	})
package controls
