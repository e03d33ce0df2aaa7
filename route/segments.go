package route

import (
	"github.com/gotidy/ptr"

	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
)

// Travel speed assumptions for the time estimate, km/h.
const (
	speedArterial    = 40.0
	speedResidential = 25.0
	speedInterior    = 20.0
)

// finish converts a node path into the final RouteResult: segments merged
// on (road class, arterial flag, superblock), distance, time, and the
// arterial share.
func (r *Router) finish(path []network.NodeID, traversed []string) plan.RouteResult {
	segments := r.pathToSegments(path)

	totalM := 0.0
	arterialM := 0.0
	timeH := 0.0
	for _, s := range segments {
		totalM += s.LengthM
		if s.IsArterial {
			arterialM += s.LengthM
		}
		speed := speedInterior
		switch {
		case s.IsArterial:
			speed = speedArterial
		case s.RoadType == string(network.Residential):
			speed = speedResidential
		}
		timeH += s.LengthM / 1000 / speed
	}

	arterialPercent := 100.0
	if totalM > 0 {
		arterialPercent = arterialM / totalM * 100
	}

	return plan.RouteResult{
		Success:              true,
		Segments:             segments,
		TotalDistanceKM:      totalM / 1000,
		EstimatedTimeMin:     timeH * 60,
		ArterialPercent:      arterialPercent,
		SuperblocksTraversed: traversed,
	}
}

// pathToSegments walks consecutive node pairs, looks up the traversed edge,
// and merges runs agreeing on (road class, arterial flag, superblock id).
func (r *Router) pathToSegments(path []network.NodeID) []plan.RouteSegment {
	if len(path) < 2 {
		return nil
	}

	var segments []plan.RouteSegment
	var cur *plan.RouteSegment
	for i := 0; i+1 < len(path); i++ {
		e := r.traversedEdge(path[i], path[i+1])
		if e == nil {
			continue
		}
		nu, _ := r.g.Node(path[i])
		nv, _ := r.g.Node(path[i+1])

		roadType := string(e.Highway)
		isArterial := e.Highway.IsArterialClass()
		sbID, tagged := r.edgeSB[e.EdgeKey]

		same := cur != nil &&
			cur.RoadType == roadType &&
			cur.IsArterial == isArterial &&
			sbTagEqual(cur.SuperblockID, sbID, tagged)
		if !same {
			if cur != nil {
				segments = append(segments, *cur)
			}
			cur = &plan.RouteSegment{
				Coordinates: []plan.Coordinates{{Lat: nu.Lat, Lon: nu.Lon}},
				RoadType:    roadType,
				IsArterial:  isArterial,
			}
			if tagged {
				cur.SuperblockID = ptr.String(sbID)
			}
		}
		cur.Coordinates = append(cur.Coordinates, plan.Coordinates{Lat: nv.Lat, Lon: nv.Lon})
		cur.LengthM += e.LengthM
	}
	if cur != nil {
		segments = append(segments, *cur)
	}

	return segments
}

// traversedEdge picks the cheapest open edge along u→v, falling back to the
// reverse direction for geometry lookup on merged leg joints.
func (r *Router) traversedEdge(u, v network.NodeID) *network.Edge {
	var best *network.Edge
	for _, e := range r.g.EdgesBetween(u, v) {
		if e.VehicleBlocked {
			continue
		}
		if best == nil || e.LengthM < best.LengthM {
			best = e
		}
	}
	if best != nil {
		return best
	}
	for _, e := range r.g.EdgesBetween(v, u) {
		if e.VehicleBlocked {
			continue
		}
		if best == nil || e.LengthM < best.LengthM {
			best = e
		}
	}

	return best
}

func sbTagEqual(cur *string, sbID string, tagged bool) bool {
	if cur == nil {
		return !tagged
	}

	return tagged && *cur == sbID
}
