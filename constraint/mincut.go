package constraint

import (
	"math"
	"sort"

	"github.com/tgergo1/superblocker/centrality"
	"github.com/tgergo1/superblocker/network"
)

// Virtual terminals of the multi-source/multi-sink cut. Real street nodes
// are positive OSM identifiers, so the negative range is free.
const (
	superSource network.NodeID = -1
	superSink   network.NodeID = -2
)

// epsCap treats capacities at or below this as exhausted.
const epsCap = 1e-9

// capacityMap collapses the interior multigraph into undirected cut
// capacities: each parallel-edge class (either direction) keeps the
// minimum cut cost of its members, mirrored into both directions.
func capacityMap(g *network.Graph) map[network.NodeID]map[network.NodeID]float64 {
	caps := make(map[network.NodeID]map[network.NodeID]float64)
	set := func(u, v network.NodeID, c float64) {
		if caps[u] == nil {
			caps[u] = make(map[network.NodeID]float64)
		}
		if old, ok := caps[u][v]; !ok || c < old {
			caps[u][v] = c
		}
	}
	for _, e := range g.Edges() {
		if e.U == e.V {
			continue
		}
		c := cutCost(e.Highway)
		set(e.U, e.V, c)
		set(e.V, e.U, c)
	}

	return caps
}

// minimumCut separates the two entry groups on the capacity map: a virtual
// source feeds every entry of groupA with infinite capacity, every entry of
// groupB drains into a virtual sink, Dinic computes the max flow, and the
// frontier of the residual source side is returned as normalized undirected
// node pairs (virtual terminals excluded).
func minimumCut(
	base map[network.NodeID]map[network.NodeID]float64,
	groupA, groupB []network.NodeID,
) []centrality.Pair {
	// Residual copy with the virtual terminals attached.
	res := make(map[network.NodeID]map[network.NodeID]float64, len(base)+2)
	for u, nbrs := range base {
		inner := make(map[network.NodeID]float64, len(nbrs))
		for v, c := range nbrs {
			inner[v] = c
		}
		res[u] = inner
	}
	attach := func(u, v network.NodeID) {
		if res[u] == nil {
			res[u] = make(map[network.NodeID]float64)
		}
		res[u][v] = math.Inf(1)
		if res[v] == nil {
			res[v] = make(map[network.NodeID]float64)
		}
		if _, ok := res[v][u]; !ok {
			res[v][u] = 0
		}
	}
	usable := func(ids []network.NodeID) []network.NodeID {
		var out []network.NodeID
		for _, id := range ids {
			if _, ok := base[id]; ok {
				out = append(out, id)
			}
		}

		return out
	}
	a, b := usable(groupA), usable(groupB)
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	for _, id := range a {
		attach(superSource, id)
	}
	for _, id := range b {
		attach(id, superSink)
	}

	dinic(res, superSource, superSink)

	// Source side of the residual, then the frontier against the original
	// capacities.
	side := residualReach(res, superSource)
	seen := make(map[centrality.Pair]struct{})
	var frontier []centrality.Pair
	for u := range side {
		if u == superSource {
			continue
		}
		for v, c := range base[u] {
			if c <= 0 {
				continue
			}
			if _, in := side[v]; in {
				continue
			}
			p := centrality.MakePair(u, v)
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			frontier = append(frontier, p)
		}
	}
	sort.Slice(frontier, func(i, j int) bool {
		if frontier[i].A != frontier[j].A {
			return frontier[i].A < frontier[j].A
		}

		return frontier[i].B < frontier[j].B
	})

	return frontier
}

// dinic runs level-graph/blocking-flow max-flow in place on the residual
// capacity map.
func dinic(res map[network.NodeID]map[network.NodeID]float64, source, sink network.NodeID) float64 {
	total := 0.0
	for {
		// BFS level graph.
		level := map[network.NodeID]int{source: 0}
		queue := []network.NodeID{source}
		for i := 0; i < len(queue); i++ {
			u := queue[i]
			for v, c := range res[u] {
				if c > epsCap {
					if _, seen := level[v]; !seen {
						level[v] = level[u] + 1
						queue = append(queue, v)
					}
				}
			}
		}
		if _, ok := level[sink]; !ok {
			break
		}

		// Blocking flow via iterative unit pushes along level-respecting paths.
		for {
			pushed := dinicPush(res, level, source, sink, math.Inf(1))
			if pushed <= epsCap {
				break
			}
			total += pushed
		}
	}

	return total
}

// dinicPush sends one augmenting path of flow down the level graph.
func dinicPush(
	res map[network.NodeID]map[network.NodeID]float64,
	level map[network.NodeID]int,
	u, sink network.NodeID,
	available float64,
) float64 {
	if u == sink {
		return available
	}
	for v, c := range res[u] {
		if c <= epsCap || level[v] != level[u]+1 {
			continue
		}
		send := available
		if c < send {
			send = c
		}
		pushed := dinicPush(res, level, v, sink, send)
		if pushed > epsCap {
			res[u][v] -= pushed
			res[v][u] += pushed

			return pushed
		}
	}
	// Dead end: take u out of the level graph so later pushes skip it.
	level[u] = -1

	return 0
}

// residualReach returns the nodes reachable from start over positive
// residual capacity.
func residualReach(
	res map[network.NodeID]map[network.NodeID]float64,
	start network.NodeID,
) map[network.NodeID]struct{} {
	side := map[network.NodeID]struct{}{start: {}}
	queue := []network.NodeID{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for v, c := range res[u] {
			if c <= epsCap {
				continue
			}
			if _, seen := side[v]; seen {
				continue
			}
			side[v] = struct{}{}
			queue = append(queue, v)
		}
	}

	return side
}
