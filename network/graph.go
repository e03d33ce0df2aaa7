package network

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
)

// Graph is the in-memory directed street multigraph.
//
// Storage follows the edge-catalog design: node and edge maps plus secondary
// out/in indices from node to edge keys. Parallel edges between the same
// ordered pair are distinguished by EdgeKey.Key. The zero value is not
// usable; construct with NewGraph.
type Graph struct {
	nodes map[NodeID]Node
	edges map[EdgeKey]*Edge

	out map[NodeID][]EdgeKey
	in  map[NodeID][]EdgeKey
}

// NewGraph returns an empty street multigraph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[NodeID]Node),
		edges: make(map[EdgeKey]*Edge),
		out:   make(map[NodeID][]EdgeKey),
		in:    make(map[NodeID][]EdgeKey),
	}
}

// AddNode inserts or replaces a node. Coordinates outside the WGS84 envelope
// are rejected with ErrBadCoordinate.
func (g *Graph) AddNode(n Node) error {
	if n.Lon < -180 || n.Lon > 180 || n.Lat < -90 || n.Lat > 90 {
		return fmt.Errorf("%w: node %d at (%g, %g)", ErrBadCoordinate, n.ID, n.Lon, n.Lat)
	}
	g.nodes[n.ID] = n

	return nil
}

// AddEdge inserts a directed edge. Both endpoints must already exist, the
// (u, v, key) triple must be fresh, and the length must be non-negative.
// A nil geometry is synthesized as the straight segment between the nodes.
// OSM identifiers are normalized on the way in.
func (g *Graph) AddEdge(e Edge) error {
	u, okU := g.nodes[e.U]
	v, okV := g.nodes[e.V]
	if !okU {
		return fmt.Errorf("%w: edge tail %d", ErrNodeNotFound, e.U)
	}
	if !okV {
		return fmt.Errorf("%w: edge head %d", ErrNodeNotFound, e.V)
	}
	if _, dup := g.edges[e.EdgeKey]; dup {
		return fmt.Errorf("%w: (%d, %d, %d)", ErrDuplicateEdge, e.U, e.V, e.Key)
	}
	if e.LengthM < 0 {
		return fmt.Errorf("%w: (%d, %d, %d) length %g", ErrBadLength, e.U, e.V, e.Key, e.LengthM)
	}
	if len(e.Geometry) == 0 {
		e.Geometry = orb.LineString{u.Point(), v.Point()}
	}
	if e.Lanes < 1 {
		e.Lanes = 1
	}
	e.OSMIDs = NormalizeOSMIDs(e.OSMIDs)

	stored := e
	g.edges[e.EdgeKey] = &stored
	g.out[e.U] = append(g.out[e.U], e.EdgeKey)
	g.in[e.V] = append(g.in[e.V], e.EdgeKey)

	return nil
}

// NextKey returns the lowest unused Key slot for the ordered pair (u, v),
// for callers assembling parallel edges without tracking keys themselves.
func (g *Graph) NextKey(u, v NodeID) int {
	key := 0
	for {
		if _, ok := g.edges[EdgeKey{U: u, V: v, Key: key}]; !ok {
			return key
		}
		key++
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]

	return n, ok
}

// HasNode reports whether id is in the node catalog.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.nodes[id]

	return ok
}

// Edge returns the edge stored under k. The pointer aliases graph storage:
// attribute writes (centrality, vehicle block) are visible to later readers.
func (g *Graph) Edge(k EdgeKey) (*Edge, bool) {
	e, ok := g.edges[k]

	return e, ok
}

// HasEdge reports whether any edge u→v exists, regardless of key.
func (g *Graph) HasEdge(u, v NodeID) bool {
	for _, k := range g.out[u] {
		if k.V == v {
			return true
		}
	}

	return false
}

// EdgesBetween returns every parallel edge u→v, ordered by key.
func (g *Graph) EdgesBetween(u, v NodeID) []*Edge {
	var out []*Edge
	for _, k := range g.out[u] {
		if k.V == v {
			out = append(out, g.edges[k])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out
}

// RemoveEdge deletes the edge stored under k.
func (g *Graph) RemoveEdge(k EdgeKey) error {
	if _, ok := g.edges[k]; !ok {
		return fmt.Errorf("%w: (%d, %d, %d)", ErrEdgeNotFound, k.U, k.V, k.Key)
	}
	delete(g.edges, k)
	g.out[k.U] = removeKey(g.out[k.U], k)
	g.in[k.V] = removeKey(g.in[k.V], k)

	return nil
}

func removeKey(keys []EdgeKey, k EdgeKey) []EdgeKey {
	for i, cand := range keys {
		if cand == k {
			return append(keys[:i], keys[i+1:]...)
		}
	}

	return keys
}

// OutEdges returns the edges leaving n.
func (g *Graph) OutEdges(n NodeID) []*Edge {
	keys := g.out[n]
	out := make([]*Edge, 0, len(keys))
	for _, k := range keys {
		out = append(out, g.edges[k])
	}

	return out
}

// InEdges returns the edges entering n.
func (g *Graph) InEdges(n NodeID) []*Edge {
	keys := g.in[n]
	out := make([]*Edge, 0, len(keys))
	for _, k := range keys {
		out = append(out, g.edges[k])
	}

	return out
}

// Nodes returns all nodes in ascending id order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// NodeIDs returns all node ids in ascending order.
func (g *Graph) NodeIDs() []NodeID {
	out := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Edges returns all edges ordered by (U, V, Key).
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EdgeKey.Less(out[j].EdgeKey) })

	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Clone returns a deep copy: node values, edge values, and fresh indices.
// Complexity: O(V + E).
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for id, n := range g.nodes {
		c.nodes[id] = n
	}
	for k, e := range g.edges {
		dup := *e
		dup.Geometry = append(orb.LineString(nil), e.Geometry...)
		dup.OSMIDs = append([]int64(nil), e.OSMIDs...)
		c.edges[k] = &dup
		c.out[k.U] = append(c.out[k.U], k)
		c.in[k.V] = append(c.in[k.V], k)
	}

	return c
}

// Subgraph returns an independent multigraph over the given edge set,
// copying node attributes for every referenced endpoint. Keys absent from
// the parent are ignored. Complexity: O(|keys|).
func (g *Graph) Subgraph(keys []EdgeKey) *Graph {
	sub := NewGraph()
	for _, k := range keys {
		e, ok := g.edges[k]
		if !ok {
			continue
		}
		if !sub.HasNode(k.U) {
			sub.nodes[k.U] = g.nodes[k.U]
		}
		if !sub.HasNode(k.V) {
			sub.nodes[k.V] = g.nodes[k.V]
		}
		dup := *e
		dup.Geometry = append(orb.LineString(nil), e.Geometry...)
		dup.OSMIDs = append([]int64(nil), e.OSMIDs...)
		sub.edges[k] = &dup
		sub.out[k.U] = append(sub.out[k.U], k)
		sub.in[k.V] = append(sub.in[k.V], k)
	}

	return sub
}
