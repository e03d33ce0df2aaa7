package constraint

import (
	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
)

// Apply replays a modification list onto the graph, the single place the
// modification semantics live:
//
//   - modal filter: every parallel edge between u and v, both directions,
//     gets VehicleBlocked (kept for pedestrian visualization, excluded from
//     vehicle reachability and routing);
//   - one-way with direction u_to_v: every v→u edge is removed, every u→v
//     edge stays (symmetrically for v_to_u);
//   - full closure: both directions removed.
//
// Re-applying the same list is a no-op, and the outcome is independent of
// list order.
func Apply(g *network.Graph, mods []plan.Modification) {
	for i := range mods {
		mod := &mods[i]
		u := network.NodeID(mod.U)
		v := network.NodeID(mod.V)
		switch mod.Kind {
		case plan.ModalFilter:
			blockBetween(g, u, v)
			blockBetween(g, v, u)
		case plan.OneWay:
			if mod.Direction == plan.UToV {
				removeBetween(g, v, u)
			} else {
				removeBetween(g, u, v)
			}
		case plan.FullClosure:
			removeBetween(g, u, v)
			removeBetween(g, v, u)
		}
	}
}

func blockBetween(g *network.Graph, u, v network.NodeID) {
	for _, e := range g.EdgesBetween(u, v) {
		e.VehicleBlocked = true
	}
}

func removeBetween(g *network.Graph, u, v network.NodeID) {
	for _, e := range g.EdgesBetween(u, v) {
		_ = g.RemoveEdge(e.EdgeKey) // key came from the catalog above
	}
}
