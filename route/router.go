package route

import (
	"math"

	"github.com/gotidy/ptr"
	"github.com/paulmach/orb"

	"github.com/tgergo1/superblocker/constraint"
	"github.com/tgergo1/superblocker/geo"
	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
)

// Blocked reasons of the routing contract.
const (
	reasonNoOriginRoad = "could not find road near origin"
	reasonNoDestRoad   = "could not find road near destination"
	reasonNoPath       = "no path found"
	reasonNoPathWithin = "no path found within superblock"
	reasonNoExitPath   = "no path from origin to arterial network"
	reasonNoArterial   = "no arterial route between origin and destination areas"
	reasonNoEntryPath  = "no path from arterial to destination"
)

// superblockShape is the spatial view of one superblock.
type superblockShape struct {
	id      string
	polygon orb.Polygon
	entries []network.NodeID
}

// Router answers route requests against one cached partition.
type Router struct {
	g         *network.Graph // modified clone, owned by the router
	partition *plan.Partition
	shapes    []superblockShape
	edgeSB    map[network.EdgeKey]string
	nodes     []network.Node
}

// NewRouter clones the street graph, replays every superblock's
// modifications, and indexes interior edges by containing superblock.
// Complexity: O(V + E·S) for S superblocks.
func NewRouter(g *network.Graph, p *plan.Partition) *Router {
	r := &Router{
		g:         g.Clone(),
		partition: p,
		edgeSB:    make(map[network.EdgeKey]string),
	}

	for i := range p.Superblocks {
		sb := &p.Superblocks[i]
		shape := superblockShape{id: sb.ID}
		if poly, ok := plan.GeometryPolygon(sb.Geometry); ok {
			shape.polygon = poly
		}
		for _, ep := range sb.EntryPoints {
			shape.entries = append(shape.entries, network.NodeID(ep.NodeID))
		}
		r.shapes = append(r.shapes, shape)

		constraint.Apply(r.g, sb.Modifications)
	}

	// Interior tagging: non-arterial-class edges whose centroid falls in a
	// superblock polygon belong to it for restriction and labeling.
	for _, e := range r.g.Edges() {
		if e.Highway.IsArterialClass() {
			continue
		}
		centroid := e.Centroid()
		for i := range r.shapes {
			if len(r.shapes[i].polygon) == 0 {
				continue
			}
			if geo.PolygonContains(r.shapes[i].polygon, centroid) {
				r.edgeSB[e.EdgeKey] = r.shapes[i].id

				break
			}
		}
	}
	r.nodes = r.g.Nodes()

	return r
}

// Route computes a route for the request.
func (r *Router) Route(req plan.RouteRequest) plan.RouteResult {
	origin, ok := r.nearestNode(req.Origin)
	if !ok {
		return blocked(reasonNoOriginRoad)
	}
	dest, ok := r.nearestNode(req.Destination)
	if !ok {
		return blocked(reasonNoDestRoad)
	}
	if origin == dest {
		return plan.RouteResult{
			Success:              true,
			ArterialPercent:      100,
			SuperblocksTraversed: []string{},
		}
	}

	originSB := r.containingSuperblock(req.Origin)
	destSB := r.containingSuperblock(req.Destination)

	if !req.RespectSuperblocks {
		path := r.astar(origin, dest, searchParams{allowInterior: true})
		if path == nil {
			return blocked(reasonNoPath)
		}

		return r.finish(path, []string{})
	}

	if originSB != nil && destSB != nil && originSB.id == destSB.id {
		path := r.astar(origin, dest, searchParams{allowInterior: true})
		if path == nil {
			return blocked(reasonNoPathWithin)
		}

		return r.finish(path, []string{originSB.id})
	}

	return r.threeLeg(origin, dest, originSB, destSB)
}

// threeLeg is the exit / arterial / enter plan across superblocks.
func (r *Router) threeLeg(origin, dest network.NodeID, originSB, destSB *superblockShape) plan.RouteResult {
	traversed := []string{}

	// Leg (a): out of the origin superblock to its nearest entry.
	exitNode := origin
	exitPath := []network.NodeID{origin}
	if originSB != nil {
		var ok bool
		exitNode, ok = r.nearestEntry(origin)
		if !ok {
			return blocked(reasonNoExitPath)
		}
		exitPath = r.astar(origin, exitNode, searchParams{
			allowInterior: true,
			restrictSB:    originSB.id,
		})
		if exitPath == nil {
			return blocked(reasonNoExitPath)
		}
		traversed = append(traversed, originSB.id)
	}

	// Leg (c) target: the destination superblock's entry.
	entryNode := dest
	if destSB != nil {
		var ok bool
		entryNode, ok = r.nearestEntry(dest)
		if !ok {
			return blocked(reasonNoEntryPath)
		}
		if !contains(traversed, destSB.id) {
			traversed = append(traversed, destSB.id)
		}
	}

	// Leg (b): arterial backbone between the two entries.
	arterialPath := []network.NodeID{exitNode}
	if exitNode != entryNode {
		arterialPath = r.astar(exitNode, entryNode, searchParams{allowInterior: false})
		if arterialPath == nil {
			arterialPath = r.astar(exitNode, entryNode, searchParams{allowInterior: true})
		}
		if arterialPath == nil {
			return blocked(reasonNoArterial)
		}
	}

	// Leg (d): down into the destination superblock.
	entryPath := []network.NodeID{entryNode}
	if destSB != nil && entryNode != dest {
		entryPath = r.astar(entryNode, dest, searchParams{
			allowInterior: true,
			restrictSB:    destSB.id,
		})
		if entryPath == nil {
			return blocked(reasonNoEntryPath)
		}
	}

	full := append(append(append([]network.NodeID{}, exitPath...), arterialPath...), entryPath...)
	full = dedupe(full)

	return r.finish(full, traversed)
}

// nearestNode snaps coordinates to the closest node by squared lon/lat
// distance.
func (r *Router) nearestNode(c plan.Coordinates) (network.NodeID, bool) {
	best := math.Inf(1)
	var id network.NodeID
	found := false
	for _, n := range r.nodes {
		dx := n.Lon - c.Lon
		dy := n.Lat - c.Lat
		d := dx*dx + dy*dy
		if d < best {
			best = d
			id = n.ID
			found = true
		}
	}

	return id, found
}

// nearestEntry finds the closest superblock entry node to the given node.
func (r *Router) nearestEntry(from network.NodeID) (network.NodeID, bool) {
	origin, ok := r.g.Node(from)
	if !ok {
		return 0, false
	}
	best := math.Inf(1)
	var id network.NodeID
	found := false
	for i := range r.shapes {
		for _, entry := range r.shapes[i].entries {
			n, ok := r.g.Node(entry)
			if !ok {
				continue
			}
			dx := n.Lon - origin.Lon
			dy := n.Lat - origin.Lat
			d := dx*dx + dy*dy
			if d < best {
				best = d
				id = entry
				found = true
			}
		}
	}

	return id, found
}

// containingSuperblock locates the superblock whose polygon holds the point.
func (r *Router) containingSuperblock(c plan.Coordinates) *superblockShape {
	p := orb.Point{c.Lon, c.Lat}
	for i := range r.shapes {
		if len(r.shapes[i].polygon) == 0 {
			continue
		}
		if geo.PolygonContains(r.shapes[i].polygon, p) {
			return &r.shapes[i]
		}
	}

	return nil
}

func blocked(reason string) plan.RouteResult {
	return plan.RouteResult{Success: false, BlockedReason: ptr.String(reason)}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

func dedupe(path []network.NodeID) []network.NodeID {
	if len(path) == 0 {
		return path
	}
	out := path[:1]
	for _, n := range path[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}

	return out
}
