package route

import (
	"container/heap"
	"math"

	"github.com/tgergo1/superblocker/network"
)

// Cost factors of the routing policy.
const (
	factorArterial     = 1.0
	factorInterior     = 1.5
	factorInteriorSoft = 10.0 // interior disallowed: heavily penalized, not skipped
)

// heuristicMetersPerDeg converts the degree-space heuristic into meters,
// with the east-west axis shrunk by cos(lat).
const heuristicMetersPerDeg = 111000.0

// searchParams tunes one A* run.
type searchParams struct {
	allowInterior bool
	restrictSB    string // non-empty: tagged edges outside this superblock are off-limits
}

// openItem is a lazy-decrease-key entry of the A* frontier.
type openItem struct {
	node network.NodeID
	f    float64
}

type openHeap []openItem

func (h openHeap) Len() int            { return len(h) }
func (h openHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h openHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *openHeap) Push(x interface{}) { *h = append(*h, x.(openItem)) }
func (h *openHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

// astar searches the modified graph from start to goal. Edge cost is
// length · factor, with arterials always at 1.0 and everything else at 1.5
// (interior allowed) or 10.0 (interior disallowed). Modal-filtered edges
// never traverse; superblock-tagged edges outside restrictSB are skipped
// when a restriction is set. Returns the node path or nil.
func (r *Router) astar(start, goal network.NodeID, p searchParams) []network.NodeID {
	if !r.g.HasNode(start) || !r.g.HasNode(goal) {
		return nil
	}
	goalNode, _ := r.g.Node(goal)
	cosLat := math.Cos(goalNode.Lat * math.Pi / 180)

	h := func(id network.NodeID) float64 {
		n, ok := r.g.Node(id)
		if !ok {
			return 0
		}
		dx := (n.Lon - goalNode.Lon) * heuristicMetersPerDeg * cosLat
		dy := (n.Lat - goalNode.Lat) * heuristicMetersPerDeg

		return math.Hypot(dx, dy)
	}

	gScore := map[network.NodeID]float64{start: 0}
	cameFrom := make(map[network.NodeID]network.NodeID)
	closed := make(map[network.NodeID]bool)

	open := &openHeap{{node: start, f: h(start)}}
	for open.Len() > 0 {
		cur := heap.Pop(open).(openItem)
		if closed[cur.node] {
			continue // stale frontier entry
		}
		if cur.node == goal {
			return reconstruct(cameFrom, goal)
		}
		closed[cur.node] = true

		for _, e := range r.g.OutEdges(cur.node) {
			if e.VehicleBlocked {
				continue
			}
			if p.restrictSB != "" {
				if sb, tagged := r.edgeSB[e.EdgeKey]; tagged && sb != p.restrictSB {
					continue
				}
			}

			factor := factorArterial
			if !e.Highway.IsArterialClass() {
				if p.allowInterior {
					factor = factorInterior
				} else {
					factor = factorInteriorSoft
				}
			}
			tentative := gScore[cur.node] + e.LengthM*factor

			if old, seen := gScore[e.V]; !seen || tentative < old {
				gScore[e.V] = tentative
				cameFrom[e.V] = cur.node
				heap.Push(open, openItem{node: e.V, f: tentative + h(e.V)})
			}
		}
	}

	return nil
}

func reconstruct(cameFrom map[network.NodeID]network.NodeID, goal network.NodeID) []network.NodeID {
	path := []network.NodeID{goal}
	for {
		prev, ok := cameFrom[path[len(path)-1]]
		if !ok {
			break
		}
		path = append(path, prev)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}
