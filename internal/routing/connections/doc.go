// Package connections provides the connection graph data model for the
// Gray Logic AV routing core.
//
// An AV plant is modelled as a typed, directed graph. Devices expose ports,
// identified by an Endpoint (device, control, address). Ports are joined by
// Connections that carry one or more signal types (audio, video, USB) and may
// be restricted to particular rooms or source devices.
//
// # Key Types
//
//   - Endpoint: A (device, control, address) port identifier
//   - ConnectionType: Bit-set of signal flags (Audio, Video, Usb)
//   - Connection: A directed, typed edge between two endpoints
//   - Path: An ordered, contiguous chain of connections
//   - Collection: A thread-safe set of connections with port lookups
//   - Settings: XML persisted form of a connection list
//
// # Usage
//
//	c, err := connections.NewConnection(1,
//	    connections.Endpoint{Device: 10, Control: 1, Address: 1},
//	    connections.Endpoint{Device: 20, Control: 1, Address: 3},
//	    connections.Audio|connections.Video,
//	    nil, nil,
//	)
//	if err != nil {
//	    return err
//	}
//
//	all := connections.NewCollection()
//	if err := all.Add(c); err != nil {
//	    return err
//	}
//
//	out, ok, err := all.Outbound(c.Source(), connections.Video)
//
// # Thread Safety
//
// Connection, Path and Collection are safe for concurrent use. Enumeration
// methods return snapshots, so callers can iterate while other goroutines
// mutate the underlying structure.
package connections
