package cells

import (
	"context"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/tgergo1/superblocker/geo"
	"github.com/tgergo1/superblocker/network"
)

// SizerOptions bounds the target cell-size band.
//
// TargetHectares – the size the merge pass steers toward.
// MinHectares    – cells below this try to merge with a neighbor.
// MaxHectares    – cells above this try to split along an interior street.
// MaxIterations  – cap on merge+split rounds (default 10).
// Ctx            – cancellation, checked once per round.
type SizerOptions struct {
	TargetHectares float64
	MinHectares    float64
	MaxHectares    float64
	MaxIterations  int
	Ctx            context.Context
}

// DefaultSizerOptions returns the Barcelona-guideline band.
func DefaultSizerOptions() SizerOptions {
	return SizerOptions{
		TargetHectares: 12,
		MinHectares:    6,
		MaxHectares:    20,
		MaxIterations:  10,
		Ctx:            context.Background(),
	}
}

// splitHierarchyCap: only tertiary-or-better interior streets may become
// split chords.
const splitHierarchyCap = 5

// Resize iterates merge and split passes until a full round changes nothing
// or MaxIterations rounds have run. The relative order of untouched cells
// is preserved; a merged cell takes the position of its smaller-index
// partner and split halves replace their parent in place.
func Resize(cellsIn []Cell, cls *Classifier, opts SizerOptions) ([]Cell, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 10
	}
	if opts.Ctx == nil {
		opts.Ctx = context.Background()
	}

	current := cellsIn
	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := opts.Ctx.Err(); err != nil {
			return nil, err
		}
		next, merged := mergePass(current, cls, opts)
		next, split := splitPass(next, cls, opts)
		current = next
		if !merged && !split {
			break
		}
	}

	return current, nil
}

// mergePass folds every under-minimum cell into the neighbor minimizing
// |combined − target| subject to combined ≤ max. Ties go to the neighbor
// with the smaller minimal boundary OSM id.
func mergePass(in []Cell, cls *Classifier, opts SizerOptions) ([]Cell, bool) {
	adjacency := buildAdjacency(in)
	skip := make(map[int]bool)
	pos := make(map[int]int) // input index → output slot of cells emitted unchanged
	out := make([]Cell, 0, len(in))
	changed := false

	for i := range in {
		if skip[i] {
			continue
		}
		cell := in[i]
		pos[i] = len(out)
		if cell.AreaHectares >= opts.MinHectares {
			out = append(out, cell)

			continue
		}

		// Neighbors sharing a boundary segment beat point-touching ones at
		// equal score: a point-touch union degenerates to the larger part.
		best := -1
		bestScore := math.Inf(1)
		bestShares := false
		bestOSM := int64(math.MaxInt64)
		for _, j := range adjacency[i] {
			if skip[j] || j == i {
				continue
			}
			combined := cell.AreaHectares + in[j].AreaHectares
			if combined > opts.MaxHectares {
				continue
			}
			score := math.Abs(combined - opts.TargetHectares)
			shares := geo.PolygonsShareSegment(cell.Polygon, in[j].Polygon)
			osm := cls.MinOSMID(&in[j])
			better := score < bestScore ||
				(score == bestScore && shares && !bestShares) ||
				(score == bestScore && shares == bestShares && osm < bestOSM)
			if better {
				bestScore = score
				bestShares = shares
				bestOSM = osm
				best = j
			}
		}
		if best < 0 {
			out = append(out, cell)

			continue
		}

		mergedPoly, ok := geo.UnionAdjacent(cell.Polygon, in[best].Polygon)
		if !ok {
			out = append(out, cell)

			continue
		}
		merged := cls.Classify(mergedPoly)
		if p, emitted := pos[best]; emitted {
			out[p] = merged // partner already emitted: replace it in place
		} else {
			out = append(out, merged)
		}
		skip[i] = true
		skip[best] = true
		changed = true
	}

	return out, changed
}

// splitPass cuts every over-maximum cell along the interior street whose
// extended chord yields the most balanced pair of halves, both at least the
// minimum area. Candidate edges are walked in (u, v, key) order after an
// OSM-id sort, so equal balances resolve to the ascending OSM id.
func splitPass(in []Cell, cls *Classifier, opts SizerOptions) ([]Cell, bool) {
	out := make([]Cell, 0, len(in))
	changed := false

	for i := range in {
		cell := in[i]
		if cell.AreaHectares <= opts.MaxHectares {
			out = append(out, cell)

			continue
		}
		parts, ok := splitCell(&cell, cls, opts)
		if !ok {
			out = append(out, cell)

			continue
		}
		out = append(out, parts[0], parts[1])
		changed = true
	}

	return out, changed
}

// splitCandidate pairs an interior edge with its tie-break OSM id.
type splitCandidate struct {
	edge  *network.Edge
	osmID int64
}

func splitCell(cell *Cell, cls *Classifier, opts SizerOptions) ([2]Cell, bool) {
	candidates := make([]splitCandidate, 0, len(cell.InteriorEdges))
	for _, k := range cell.InteriorEdges {
		e, ok := cls.g.Edge(k)
		if !ok || e.Highway.Hierarchy() > splitHierarchyCap {
			continue
		}
		osm := int64(math.MaxInt64)
		if len(e.OSMIDs) > 0 {
			osm = e.OSMIDs[0]
		}
		candidates = append(candidates, splitCandidate{edge: e, osmID: osm})
	}
	sortCandidates(candidates)

	var best [2]Cell
	bestBalance := math.Inf(1)
	found := false
	for _, cand := range candidates {
		ext, ok := geo.ExtendAcross(cand.edge.Geometry, cell.Polygon)
		if !ok {
			continue
		}
		parts, ok := geo.SplitPolygon(cell.Polygon, ext)
		if !ok {
			continue
		}
		a := cls.Classify(parts[0])
		b := cls.Classify(parts[1])
		if a.AreaHectares < opts.MinHectares || b.AreaHectares < opts.MinHectares {
			continue
		}
		balance := math.Abs(a.AreaHectares - b.AreaHectares)
		if balance < bestBalance {
			bestBalance = balance
			best = [2]Cell{a, b}
			found = true
		}
	}

	return best, found
}

// sortCandidates orders split seeds by OSM id ascending, then edge key for
// edges sharing a way id.
func sortCandidates(cands []splitCandidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].osmID != cands[j].osmID {
			return cands[i].osmID < cands[j].osmID
		}

		return cands[i].edge.EdgeKey.Less(cands[j].edge.EdgeKey)
	})
}

// buildAdjacency relates cells sharing a boundary segment or touching,
// prefiltered with a rectangle tree over the cell bounds.
func buildAdjacency(in []Cell) map[int][]int {
	bounds := make([]orb.Bound, len(in))
	for i := range in {
		bounds[i] = in[i].Polygon.Bound()
	}
	idx := geo.NewRectIndexBounds(bounds)

	adjacency := make(map[int][]int, len(in))
	var cand []int
	for i := range in {
		cand = idx.Query(bounds[i], cand[:0])
		for _, j := range cand {
			if j <= i {
				continue
			}
			if geo.PolygonsAdjacent(in[i].Polygon, in[j].Polygon) {
				adjacency[i] = append(adjacency[i], j)
				adjacency[j] = append(adjacency[j], i)
			}
		}
	}

	return adjacency
}
