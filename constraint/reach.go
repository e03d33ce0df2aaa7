package constraint

import (
	"math"
	"sort"

	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
)

// unreachableReason is the canonical explanation string on reports.
const unreachableReason = "no path from any entry point after modifications"

// ReportUnreachable applies the modification plan to a scratch copy of the
// interior graph and lists every non-entry node without a forward path from
// any entry. Each report carries the node coordinates and the sector of the
// nearest entry (smallest squared lon/lat distance). Reachability is
// deliberately directed — forward descendants from entries — even though
// modal filters block both directions.
func ReportUnreachable(
	interior *network.Graph,
	entries []network.NodeID,
	mods []plan.Modification,
	sectors *SectorAssignment,
) []plan.UnreachableAddress {
	if len(entries) == 0 {
		return nil
	}
	scratch := interior.Clone()
	Apply(scratch, mods)

	reachable := make(map[network.NodeID]struct{})
	entrySet := make(map[network.NodeID]struct{}, len(entries))
	for _, entry := range entries {
		entrySet[entry] = struct{}{}
		if !scratch.HasNode(entry) {
			continue
		}
		if _, seen := reachable[entry]; seen {
			continue
		}
		reachable[entry] = struct{}{}
		queue := []network.NodeID{entry}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, e := range scratch.OutEdges(u) {
				if e.VehicleBlocked {
					continue
				}
				if _, seen := reachable[e.V]; seen {
					continue
				}
				reachable[e.V] = struct{}{}
				queue = append(queue, e.V)
			}
		}
	}

	var out []plan.UnreachableAddress
	for _, id := range scratch.NodeIDs() {
		if _, ok := reachable[id]; ok {
			continue
		}
		if _, isEntry := entrySet[id]; isEntry {
			continue
		}
		n, ok := scratch.Node(id)
		if !ok {
			continue
		}
		out = append(out, plan.UnreachableAddress{
			NodeID:             int64(id),
			Coordinates:        plan.Coordinates{Lat: n.Lat, Lon: n.Lon},
			NearestEntrySector: nearestEntrySector(interior, n, entries, sectors),
			Reason:             unreachableReason,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })

	return out
}

// nearestEntrySector finds the sector of the entry closest to n in squared
// lon/lat distance.
func nearestEntrySector(g *network.Graph, n network.Node, entries []network.NodeID, sectors *SectorAssignment) int {
	best := math.Inf(1)
	sector := 0
	for _, entry := range entries {
		en, ok := g.Node(entry)
		if !ok {
			continue
		}
		dx := en.Lon - n.Lon
		dy := en.Lat - n.Lat
		d := dx*dx + dy*dy
		if d < best {
			best = d
			if sectors != nil {
				sector = sectors.NodeSector[entry]
			}
		}
	}

	return sector
}
