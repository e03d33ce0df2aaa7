package cells

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/tgergo1/superblocker/arterial"
	"github.com/tgergo1/superblocker/geo"
	"github.com/tgergo1/superblocker/network"
)

// Classifier snapshots the street graph once (edge list + rectangle tree)
// so that repeated per-polygon classification during building and resizing
// stays cheap.
type Classifier struct {
	g     *network.Graph
	sel   *arterial.Selection
	edges []*network.Edge
	index *geo.RectIndex
}

// NewClassifier builds the spatial snapshot. Complexity: O(E log E).
func NewClassifier(g *network.Graph, sel *arterial.Selection) (*Classifier, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if sel == nil {
		return nil, ErrNilSelection
	}
	edges := g.Edges()
	bounds := make([]orb.Bound, len(edges))
	for i, e := range edges {
		bounds[i] = e.Geometry.Bound()
	}

	return &Classifier{g: g, sel: sel, edges: edges, index: geo.NewRectIndexBounds(bounds)}, nil
}

// Classify populates a Cell for the polygon: boundary edges are arterials
// whose geometry touches the ring, interior edges are non-arterials whose
// centroid lies strictly inside, and entry nodes join the two sets (plus
// interior junctions within EntryBufferDegrees of the ring).
func (c *Classifier) Classify(poly orb.Polygon) Cell {
	cell := Cell{
		Polygon:      poly,
		AreaHectares: geo.AreaHectares(poly),
	}
	if len(poly) == 0 {
		return cell
	}
	ring := poly[0]

	cand := c.index.Query(poly.Bound(), nil)
	for _, i := range cand {
		e := c.edges[i]
		if c.sel.Contains(e.EdgeKey) {
			if geo.LineIntersectsRing(ring, e.Geometry) {
				cell.BoundaryEdges = append(cell.BoundaryEdges, e.EdgeKey)
			}

			continue
		}
		if geo.PolygonContains(poly, e.Centroid()) {
			cell.InteriorEdges = append(cell.InteriorEdges, e.EdgeKey)
		}
	}
	sortKeys(cell.BoundaryEdges)
	sortKeys(cell.InteriorEdges)
	cell.EntryNodes = c.entryNodes(&cell)

	return cell
}

// entryNodes intersects boundary and interior endpoints and adds interior
// junctions hugging the ring.
func (c *Classifier) entryNodes(cell *Cell) []network.NodeID {
	boundary := make(map[network.NodeID]struct{})
	for _, k := range cell.BoundaryEdges {
		boundary[k.U] = struct{}{}
		boundary[k.V] = struct{}{}
	}
	interior := make(map[network.NodeID]struct{})
	for _, k := range cell.InteriorEdges {
		interior[k.U] = struct{}{}
		interior[k.V] = struct{}{}
	}

	entries := make(map[network.NodeID]struct{})
	for id := range interior {
		if _, onBoundary := boundary[id]; onBoundary {
			entries[id] = struct{}{}

			continue
		}
		n, ok := c.g.Node(id)
		if ok && geo.DistanceToRing(cell.Polygon[0], n.Point()) <= EntryBufferDegrees {
			entries[id] = struct{}{}
		}
	}

	out := make([]network.NodeID, 0, len(entries))
	for id := range entries {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// MinOSMID returns the smallest OSM id across the cell's boundary edges,
// the deterministic tie-break key of the sizer passes.
func (c *Classifier) MinOSMID(cell *Cell) int64 {
	best := int64(0)
	for _, k := range cell.BoundaryEdges {
		e, ok := c.g.Edge(k)
		if !ok {
			continue
		}
		for _, id := range e.OSMIDs {
			if best == 0 || id < best {
				best = id
			}
		}
	}

	return best
}

func sortKeys(keys []network.EdgeKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
