// Package network models a city street network as a directed multigraph.
//
// Nodes are OSM-style integer identifiers with WGS84 coordinates; edges are
// directed street segments keyed by (U, V, Key) so that parallel carriageways
// between the same junction pair stay distinct. Every edge carries the
// geometric and semantic attributes the planner needs downstream: polyline
// geometry, length in meters, highway classification, lane count, one-way
// flag, and the set of OSM way identifiers it was assembled from.
//
// The Graph is a plain in-memory structure: maps for the node and edge
// catalogs plus out/in adjacency indices keyed by node. It is not
// concurrency-safe; the partitioning pipeline owns one graph per request and
// mutates it from a single goroutine, and the router works on an independent
// Clone. Subgraph extraction copies node attributes so the result is fully
// independent of its parent.
//
// Complexity of the accessors is O(1) amortized; Clone and Subgraph are
// O(V + E) over the copied region.
package network
