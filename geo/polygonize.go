package geo

import (
	"errors"
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// ErrNoFaces indicates the line bundle enclosed no area at all.
var ErrNoFaces = errors.New("geo: polygonize produced no faces")

// quantScale snaps coordinates to a ~1e-9 degree grid before topology is
// derived, merging nearly-identical endpoints from different sources.
const quantScale = 1e9

// epsArea discards faces thinner than numerical noise.
const epsArea = 1e-18

type vertexKey [2]int64

func quantize(p orb.Point) vertexKey {
	return vertexKey{
		int64(math.Round(p[0] * quantScale)),
		int64(math.Round(p[1] * quantScale)),
	}
}

func (k vertexKey) point() orb.Point {
	return orb.Point{float64(k[0]) / quantScale, float64(k[1]) / quantScale}
}

// Polygonize nodes the linestring bundle into a planar arrangement and
// returns every minimal enclosed face as a polygon. Dangling branches are
// pruned before face extraction, and degenerate (empty or sliver) faces are
// discarded, which subsumes the classic repair-with-zero-buffer step.
//
// Steps:
//  1. Explode the bundle into elementary segments on the quantization grid.
//  2. Node: split every segment at its intersections with the others,
//     using a rectangle tree to keep the pairing near-linear.
//  3. Deduplicate undirected subsegments and build vertex adjacency.
//  4. Prune dangles (iterative degree-1 removal).
//  5. Walk half-edges choosing, at each vertex, the first outgoing
//     direction clockwise from the reversed incoming direction.
//     Faces traced counterclockwise (positive shoelace area) are the
//     bounded minimal faces; the clockwise trace is the unbounded face.
//
// Complexity: O(S log S + X) with S segments and X intersections, plus the
// face walk which is linear in the arrangement size.
func Polygonize(lines []orb.LineString) ([]orb.Polygon, error) {
	segs := explode(lines)
	if len(segs) == 0 {
		return nil, ErrNoFaces
	}
	segs = nodeSegments(segs)

	// 3) Undirected dedup and adjacency.
	type undirected struct{ a, b vertexKey }
	norm := func(a, b vertexKey) undirected {
		if b[0] < a[0] || (b[0] == a[0] && b[1] < a[1]) {
			a, b = b, a
		}

		return undirected{a, b}
	}
	edgeSet := make(map[undirected]struct{}, len(segs))
	adj := make(map[vertexKey][]vertexKey)
	for _, s := range segs {
		key := norm(s.a, s.b)
		if _, dup := edgeSet[key]; dup {
			continue
		}
		edgeSet[key] = struct{}{}
		adj[s.a] = append(adj[s.a], s.b)
		adj[s.b] = append(adj[s.b], s.a)
	}

	// 4) Prune dangles.
	queue := make([]vertexKey, 0)
	for v, nbrs := range adj {
		if len(nbrs) <= 1 {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if len(adj[v]) > 1 {
			continue
		}
		for _, w := range adj[v] {
			adj[w] = removeVertex(adj[w], v)
			if len(adj[w]) == 1 {
				queue = append(queue, w)
			}
		}
		delete(adj, v)
	}

	// 5) Angle-sorted half-edge walk.
	polys := walkFaces(adj)
	if len(polys) == 0 {
		return nil, ErrNoFaces
	}

	return polys, nil
}

type qseg struct{ a, b vertexKey }

// explode flattens linestrings into non-degenerate elementary segments.
func explode(lines []orb.LineString) []qseg {
	var segs []qseg
	for _, ls := range lines {
		for i := 0; i+1 < len(ls); i++ {
			a, b := quantize(ls[i]), quantize(ls[i+1])
			if a == b {
				continue
			}
			segs = append(segs, qseg{a, b})
		}
	}

	return segs
}

// nodeSegments splits every segment at its intersections with the rest.
func nodeSegments(segs []qseg) []qseg {
	bounds := make([]orb.Bound, len(segs))
	for i, s := range segs {
		ls := orb.LineString{s.a.point(), s.b.point()}
		bounds[i] = ls.Bound()
	}
	idx := NewRectIndexBounds(bounds)

	var out []qseg
	var cand []int
	for i, s := range segs {
		pa, pb := s.a.point(), s.b.point()
		cuts := []float64{0, 1}
		cand = idx.Query(bounds[i], cand[:0])
		for _, j := range cand {
			if j == i {
				continue
			}
			o := segs[j]
			for _, t := range segmentCuts(pa, pb, o.a.point(), o.b.point()) {
				if t > 0 && t < 1 {
					cuts = append(cuts, t)
				}
			}
		}
		sort.Float64s(cuts)
		prev := quantize(pa)
		for _, t := range cuts[1:] {
			p := orb.Point{pa[0] + t*(pb[0]-pa[0]), pa[1] + t*(pb[1]-pa[1])}
			q := quantize(p)
			if q != prev {
				out = append(out, qseg{prev, q})
				prev = q
			}
		}
	}

	return out
}

// segmentCuts returns the parameters along (a1,a2) where it meets (b1,b2):
// a proper crossing yields one parameter, a collinear overlap contributes
// the projections of the other segment's endpoints.
func segmentCuts(a1, a2, b1, b2 orb.Point) []float64 {
	d1 := orb.Point{a2[0] - a1[0], a2[1] - a1[1]}
	d2 := orb.Point{b2[0] - b1[0], b2[1] - b1[1]}
	denom := d1[0]*d2[1] - d1[1]*d2[0]
	diff := orb.Point{b1[0] - a1[0], b1[1] - a1[1]}

	const eps = 1e-15
	if math.Abs(denom) > eps {
		t := (diff[0]*d2[1] - diff[1]*d2[0]) / denom
		u := (diff[0]*d1[1] - diff[1]*d1[0]) / denom
		if t >= -eps && t <= 1+eps && u >= -eps && u <= 1+eps {
			return []float64{t}
		}

		return nil
	}

	// Parallel. Check collinearity via cross of diff with d1.
	if math.Abs(diff[0]*d1[1]-diff[1]*d1[0]) > eps {
		return nil
	}
	lenSq := d1[0]*d1[0] + d1[1]*d1[1]
	if lenSq == 0 {
		return nil
	}
	proj := func(p orb.Point) float64 {
		return ((p[0]-a1[0])*d1[0] + (p[1]-a1[1])*d1[1]) / lenSq
	}

	return []float64{proj(b1), proj(b2)}
}

func removeVertex(nbrs []vertexKey, v vertexKey) []vertexKey {
	for i, w := range nbrs {
		if w == v {
			return append(nbrs[:i], nbrs[i+1:]...)
		}
	}

	return nbrs
}

type halfEdge struct{ from, to vertexKey }

// walkFaces extracts counterclockwise minimal faces from the arrangement.
func walkFaces(adj map[vertexKey][]vertexKey) []orb.Polygon {
	// Sort each adjacency ring by outgoing angle for the turn rule, and sort
	// vertices so iteration order is deterministic.
	vertices := make([]vertexKey, 0, len(adj))
	for v := range adj {
		vertices = append(vertices, v)
	}
	sort.Slice(vertices, func(i, j int) bool {
		if vertices[i][0] != vertices[j][0] {
			return vertices[i][0] < vertices[j][0]
		}

		return vertices[i][1] < vertices[j][1]
	})

	angles := make(map[halfEdge]float64)
	for _, v := range vertices {
		vp := v.point()
		nbrs := adj[v]
		for _, w := range nbrs {
			wp := w.point()
			angles[halfEdge{v, w}] = math.Atan2(wp[1]-vp[1], wp[0]-vp[0])
		}
		sort.Slice(nbrs, func(i, j int) bool {
			return angles[halfEdge{v, nbrs[i]}] < angles[halfEdge{v, nbrs[j]}]
		})
	}

	// next(u→v) = v→w where w is the neighbor of v whose angle is the last
	// one strictly before angle(v→u), cyclically. This traces bounded faces
	// counterclockwise.
	next := func(e halfEdge) halfEdge {
		back := angles[halfEdge{e.to, e.from}]
		nbrs := adj[e.to]
		choice := nbrs[len(nbrs)-1] // wrap around the ring
		for i := len(nbrs) - 1; i >= 0; i-- {
			if angles[halfEdge{e.to, nbrs[i]}] < back {
				choice = nbrs[i]

				break
			}
		}

		return halfEdge{e.to, choice}
	}

	visited := make(map[halfEdge]bool, 2*len(angles))
	var polys []orb.Polygon
	for _, v := range vertices {
		for _, w := range adj[v] {
			start := halfEdge{v, w}
			if visited[start] {
				continue
			}
			var ring orb.Ring
			e := start
			for {
				visited[e] = true
				ring = append(ring, e.from.point())
				e = next(e)
				if e == start {
					break
				}
			}
			ring = append(ring, ring[0])
			if signedArea(ring) > epsArea {
				polys = append(polys, orb.Polygon{ring})
			}
		}
	}

	return polys
}

// SegmentsIntersect reports whether two closed segments share any point.
func SegmentsIntersect(a1, a2, b1, b2 orb.Point) bool {
	const tol = 1e-12
	cuts := segmentCuts(a1, a2, b1, b2)
	for _, t := range cuts {
		if t >= -tol && t <= 1+tol {
			return true
		}
	}
	// Collinear with both projections outside [0,1]: the other segment can
	// still cover this one entirely.
	if len(cuts) == 2 {
		if (cuts[0] < 0 && cuts[1] > 1) || (cuts[1] < 0 && cuts[0] > 1) {
			return true
		}
	}

	return false
}

// LineIntersectsRing reports whether the polyline touches or crosses the ring.
func LineIntersectsRing(ring orb.Ring, ls orb.LineString) bool {
	for i := 0; i+1 < len(ls); i++ {
		for j := 0; j+1 < len(ring); j++ {
			if SegmentsIntersect(ls[i], ls[i+1], ring[j], ring[j+1]) {
				return true
			}
		}
	}

	return false
}
