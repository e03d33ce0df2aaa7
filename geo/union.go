package geo

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// ringSegments returns the quantized undirected segments of a ring.
func ringSegments(ring orb.Ring) []qseg {
	var segs []qseg
	for i := 0; i+1 < len(ring); i++ {
		a, b := quantize(ring[i]), quantize(ring[i+1])
		if a == b {
			continue
		}
		if b[0] < a[0] || (b[0] == a[0] && b[1] < a[1]) {
			a, b = b, a
		}
		segs = append(segs, qseg{a, b})
	}

	return segs
}

// PolygonsShareSegment reports whether two polygons have a common boundary
// segment on the quantization grid.
func PolygonsShareSegment(a, b orb.Polygon) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	segs := make(map[qseg]struct{})
	for _, s := range ringSegments(a[0]) {
		segs[s] = struct{}{}
	}
	for _, s := range ringSegments(b[0]) {
		if _, ok := segs[s]; ok {
			return true
		}
	}

	return false
}

// PolygonsAdjacent reports whether two polygons share a boundary segment or
// touch at a common vertex on the quantization grid.
func PolygonsAdjacent(a, b orb.Polygon) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	segs := make(map[qseg]struct{})
	verts := make(map[vertexKey]struct{})
	for _, s := range ringSegments(a[0]) {
		segs[s] = struct{}{}
		verts[s.a] = struct{}{}
		verts[s.b] = struct{}{}
	}
	for _, s := range ringSegments(b[0]) {
		if _, ok := segs[s]; ok {
			return true
		}
		if _, ok := verts[s.a]; ok {
			return true
		}
		if _, ok := verts[s.b]; ok {
			return true
		}
	}

	return false
}

// UnionAdjacent dissolves the shared boundary between two cells that came
// from the same arrangement: segments present in both exterior rings cancel,
// the remainder is chained back into closed rings, and the largest ring wins
// when the result is multi-part (polygons that only touch at a point).
//
// Returns ok=false when no closed ring can be formed.
func UnionAdjacent(a, b orb.Polygon) (orb.Polygon, bool) {
	if len(a) == 0 || len(b) == 0 {
		return nil, false
	}
	count := make(map[qseg]int)
	for _, s := range ringSegments(a[0]) {
		count[s]++
	}
	for _, s := range ringSegments(b[0]) {
		count[s]++
	}

	// Adjacency over surviving segments.
	adj := make(map[vertexKey][]vertexKey)
	for s, c := range count {
		if c != 1 {
			continue
		}
		adj[s.a] = append(adj[s.a], s.b)
		adj[s.b] = append(adj[s.b], s.a)
	}
	if len(adj) == 0 {
		return nil, false
	}
	for v := range adj {
		nbrs := adj[v]
		sort.Slice(nbrs, func(i, j int) bool {
			if nbrs[i][0] != nbrs[j][0] {
				return nbrs[i][0] < nbrs[j][0]
			}

			return nbrs[i][1] < nbrs[j][1]
		})
	}

	// Chain segments into rings, consuming each undirected edge once.
	used := make(map[qseg]bool)
	norm := func(x, y vertexKey) qseg {
		if y[0] < x[0] || (y[0] == x[0] && y[1] < x[1]) {
			x, y = y, x
		}

		return qseg{x, y}
	}

	starts := make([]vertexKey, 0, len(adj))
	for v := range adj {
		starts = append(starts, v)
	}
	sort.Slice(starts, func(i, j int) bool {
		if starts[i][0] != starts[j][0] {
			return starts[i][0] < starts[j][0]
		}

		return starts[i][1] < starts[j][1]
	})

	var best orb.Ring
	bestArea := 0.0
	for _, start := range starts {
		var ring orb.Ring
		cur := start
		for {
			advanced := false
			for _, nb := range adj[cur] {
				key := norm(cur, nb)
				if used[key] {
					continue
				}
				used[key] = true
				ring = append(ring, cur.point())
				cur = nb
				advanced = true

				break
			}
			if !advanced {
				break
			}
			if cur == start {
				ring = append(ring, start.point())

				break
			}
		}
		if len(ring) >= 4 && ring[0] == ring[len(ring)-1] {
			area := math.Abs(signedArea(ring))
			if area > bestArea {
				bestArea = area
				best = ring
			}
		}
	}
	if best == nil {
		return nil, false
	}
	if signedArea(best) < 0 {
		best = reverseRing(best)
	}

	return orb.Polygon{best}, true
}

func reverseRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}

	return out
}
