package centrality

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/tgergo1/superblocker/network"
)

// undirected is the simple-graph view Brandes runs on: adjacency with the
// minimum segment length per unordered pair.
type undirected struct {
	ids  []network.NodeID
	adj  map[network.NodeID][]network.NodeID
	dist map[Pair]float64
}

// simplify collapses the directed multigraph: each parallel-edge group
// (either direction) becomes one undirected edge carrying the minimum length.
func simplify(g *network.Graph) *undirected {
	u := &undirected{
		adj:  make(map[network.NodeID][]network.NodeID),
		dist: make(map[Pair]float64),
	}
	for _, e := range g.Edges() {
		if e.U == e.V {
			continue // self-loops carry no betweenness
		}
		p := MakePair(e.U, e.V)
		w := e.LengthM
		if w <= 0 {
			w = 1 // zero-length data guards the Dijkstra invariant
		}
		if old, ok := u.dist[p]; !ok {
			u.dist[p] = w
			u.adj[p.A] = append(u.adj[p.A], p.B)
			u.adj[p.B] = append(u.adj[p.B], p.A)
		} else if w < old {
			u.dist[p] = w
		}
	}
	u.ids = g.NodeIDs()
	for _, nbrs := range u.adj {
		sort.Slice(nbrs, func(i, j int) bool { return nbrs[i] < nbrs[j] })
	}

	return u
}

// EdgeBetweenness computes weighted edge betweenness over the undirected
// simplification of g and returns the per-pair values averaged over the
// source set (all nodes, or the sampled subset for large graphs).
//
// Steps:
//  1. Normalize options, start the heartbeat ticker if configured.
//  2. Simplify the multigraph (O(E)).
//  3. Select sources: every node, or the seeded uniform sample.
//  4. For each source, run Dijkstra with predecessor tracking and
//     accumulate Brandes dependencies onto the traversed pairs.
//  5. Average by the number of sources actually used.
func EdgeBetweenness(g *network.Graph, opts Options) (map[Pair]float64, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	if opts.Heartbeat != nil && opts.HeartbeatInterval > 0 {
		stop := make(chan struct{})
		defer close(stop)
		go func(started time.Time) {
			ticker := time.NewTicker(opts.HeartbeatInterval)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					opts.Heartbeat(time.Since(started))
				}
			}
		}(time.Now())
	}

	u := simplify(g)
	score := make(map[Pair]float64, len(u.dist))

	sources := selectSources(u.ids, opts)
	for _, s := range sources {
		if err := opts.Ctx.Err(); err != nil {
			return nil, err
		}
		accumulate(u, s, score)
	}
	if len(sources) > 0 {
		inv := 1 / float64(len(sources))
		for p := range score {
			score[p] *= inv
		}
	}

	return score, nil
}

// selectSources returns every node, or the seeded sample for large graphs:
// k = clamp(⌈fraction·N⌉, min, max, ≤N), drawn uniformly without replacement.
func selectSources(ids []network.NodeID, opts Options) []network.NodeID {
	n := len(ids)
	if n < opts.SampleThreshold {
		return ids
	}
	k := int(math.Ceil(opts.SampleFraction * float64(n)))
	if k < opts.SampleMin {
		k = opts.SampleMin
	}
	if k > opts.SampleMax {
		k = opts.SampleMax
	}
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	perm := rng.Perm(n)
	picked := make([]network.NodeID, k)
	for i := 0; i < k; i++ {
		picked[i] = ids[perm[i]]
	}
	sort.Slice(picked, func(i, j int) bool { return picked[i] < picked[j] })

	return picked
}

// pqItem is a lazy-decrease-key heap entry: duplicates are pushed and
// stale pops skipped.
type pqItem struct {
	node network.NodeID
	dist float64
}

type pqueue []pqItem

func (q pqueue) Len() int            { return len(q) }
func (q pqueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q pqueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pqueue) Push(x interface{}) { *q = append(*q, x.(pqItem)) }
func (q *pqueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]

	return item
}

// accumulate runs one Brandes iteration from source s: a Dijkstra pass
// recording shortest-path counts and predecessors, then the reverse
// dependency sweep crediting each traversed undirected pair.
func accumulate(u *undirected, s network.NodeID, score map[Pair]float64) {
	dist := map[network.NodeID]float64{s: 0}
	sigma := map[network.NodeID]float64{s: 1}
	pred := make(map[network.NodeID][]network.NodeID)
	settled := make(map[network.NodeID]bool)
	var order []network.NodeID

	q := &pqueue{{node: s, dist: 0}}
	for q.Len() > 0 {
		cur := heap.Pop(q).(pqItem)
		if settled[cur.node] {
			continue // stale lazy-decrease-key entry
		}
		settled[cur.node] = true
		order = append(order, cur.node)

		for _, nb := range u.adj[cur.node] {
			w := u.dist[MakePair(cur.node, nb)]
			cand := cur.dist + w
			old, seen := dist[nb]
			switch {
			case !seen || cand < old-1e-12:
				dist[nb] = cand
				sigma[nb] = sigma[cur.node]
				pred[nb] = []network.NodeID{cur.node}
				heap.Push(q, pqItem{node: nb, dist: cand})
			case math.Abs(cand-old) <= 1e-12 && !settled[nb]:
				sigma[nb] += sigma[cur.node]
				pred[nb] = append(pred[nb], cur.node)
			}
		}
	}

	delta := make(map[network.NodeID]float64, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		w := order[i]
		for _, v := range pred[w] {
			c := sigma[v] / sigma[w] * (1 + delta[w])
			score[MakePair(v, w)] += c
			delta[v] += c
		}
	}
}

// Apply writes the undirected betweenness values back onto every parallel
// edge of the multigraph (both directions) via the Centrality attribute.
// Pairs without a value reset to zero.
func Apply(g *network.Graph, score map[Pair]float64) {
	for _, e := range g.Edges() {
		e.Centrality = score[MakePair(e.U, e.V)]
	}
}
