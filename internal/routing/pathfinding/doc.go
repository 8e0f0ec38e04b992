// Package pathfinding resolves routing queries into connection paths.
//
// A Query names one or more source endpoints, one or more destination
// groups and a connection type. The Finder searches the connection graph
// breadth-first, expanding only through controls the Graph reports as
// midpoints, and returns the shortest path from any source to each group.
//
// Queries are normally assembled with the Builder:
//
//	results, err := pathfinding.NewBuilder().
//	    From(player).
//	    To(display).
//	    AndTo(recorder).
//	    OfType(connections.Audio | connections.Video).
//	    InRoom(12).
//	    With(finder)
//
// Every flag of a compound type is searched independently. When all flags
// resolve to the same connections a single result carries the compound type;
// otherwise each flag is reported separately (breakaway).
package pathfinding
