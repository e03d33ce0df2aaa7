package constraint

import (
	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
)

// crossSectorPenalty dominates the reachability reward so that any
// direction leaking into another sector loses to one that does not.
const crossSectorPenalty = 1000.0

// directionEvaluator scores candidate one-way directions against the
// interior graph. Scores are cached per ordered pair: every parallel edge
// of a pair resolves to the same preserved direction.
type directionEvaluator struct {
	g       *network.Graph
	sectors *SectorAssignment
	cache   map[[2]network.NodeID]plan.Direction
}

func newDirectionEvaluator(g *network.Graph, sectors *SectorAssignment) *directionEvaluator {
	return &directionEvaluator{
		g:       g,
		sectors: sectors,
		cache:   make(map[[2]network.NodeID]plan.Direction),
	}
}

// best picks the preserved direction for an edge u→v: for each candidate
// the opposite direction's parallel edges are suppressed, reachability from
// every entry is measured, and
//
//	score = Σ_sectors Σ_entries |descendants(entry)|
//	        − 1000 · (other-sector entries still reachable)
//
// decides. Ties keep u_to_v.
func (de *directionEvaluator) best(u, v network.NodeID) plan.Direction {
	key := [2]network.NodeID{u, v}
	if d, ok := de.cache[key]; ok {
		return d
	}

	scoreUV := de.score(v, u) // u_to_v suppresses v→u
	scoreVU := de.score(u, v) // v_to_u suppresses u→v

	d := plan.UToV
	if scoreVU > scoreUV {
		d = plan.VToU
	}
	de.cache[key] = d

	return d
}

// score evaluates the graph with every edge from blockedU to blockedV
// suppressed.
func (de *directionEvaluator) score(blockedU, blockedV network.NodeID) float64 {
	score := 0.0
	for sector := 0; sector < de.sectors.NumSectors; sector++ {
		for _, entry := range de.sectors.BySector[sector] {
			if !de.g.HasNode(entry) {
				continue
			}
			reach := de.descendants(entry, blockedU, blockedV)
			score += float64(len(reach))

			for other, otherSector := range de.sectors.NodeSector {
				if otherSector == sector {
					continue
				}
				if _, hit := reach[other]; hit {
					score -= crossSectorPenalty
				}
			}
		}
	}

	return score
}

// descendants walks forward from start, skipping blocked and suppressed
// edges; the start node itself is not counted.
func (de *directionEvaluator) descendants(start, blockedU, blockedV network.NodeID) map[network.NodeID]struct{} {
	reach := make(map[network.NodeID]struct{})
	queue := []network.NodeID{start}
	visited := map[network.NodeID]struct{}{start: {}}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, e := range de.g.OutEdges(u) {
			if e.VehicleBlocked {
				continue
			}
			if e.U == blockedU && e.V == blockedV {
				continue
			}
			if _, seen := visited[e.V]; seen {
				continue
			}
			visited[e.V] = struct{}{}
			reach[e.V] = struct{}{}
			queue = append(queue, e.V)
		}
	}

	return reach
}
