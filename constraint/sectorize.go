package constraint

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/tgergo1/superblocker/geo"
	"github.com/tgergo1/superblocker/network"
)

// AssignSectors divides the full circle around the cell centroid into
// NumSectors equal slices — rotated half a slice so that sector 0 straddles
// the positive-x ray — and assigns every entry node to the slice containing
// its bearing from the centroid. Entries missing from the graph are skipped.
func AssignSectors(poly orb.Polygon, entries []network.NodeID, g *network.Graph, numSectors int) SectorAssignment {
	sa := SectorAssignment{
		NumSectors: numSectors,
		BySector:   make(map[int][]network.NodeID, numSectors),
		NodeSector: make(map[network.NodeID]int, len(entries)),
	}
	centroid := geo.Centroid(poly)
	size := 2 * math.Pi / float64(numSectors)
	offset := -size / 2

	for _, id := range entries {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		theta := math.Atan2(n.Lat-centroid.Lat(), n.Lon-centroid.Lon())

		// Shift so sector boundaries start at zero, wrap into [0, 2π).
		shifted := math.Mod(theta-offset, 2*math.Pi)
		if shifted < 0 {
			shifted += 2 * math.Pi
		}
		sector := int(shifted/size) % numSectors

		sa.NodeSector[id] = sector
		sa.BySector[sector] = append(sa.BySector[sector], id)
	}
	for s := range sa.BySector {
		ids := sa.BySector[s]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	return sa
}
