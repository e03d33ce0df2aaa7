package constraint

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/tgergo1/superblocker/centrality"
	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
)

// Result is the outcome of enforcing one cell.
type Result struct {
	Sectors       SectorAssignment
	Modifications []plan.Modification

	// Residual lists cross-sector violations that survive the plan; empty
	// means the cell validated.
	Residual []Violation
}

// Validated reports whether no residual cross-sector path remains.
func (r *Result) Validated() bool { return len(r.Residual) == 0 }

// Enforce computes the modification plan for a cell's interior multigraph.
//
// Steps:
//  1. Assign entry nodes to angular sectors around the cell centroid.
//  2. Detect violations: undirected connectivity between entries of
//     different sectors. No violations → empty plan, validated.
//  3. For every violating unordered sector pair, compute the minimum
//     capacity cut on the collapsed undirected interior graph and merge the
//     frontiers into the global cut set.
//  4. Classify each cut edge: tertiary-or-better streets become one-way
//     conversions (direction by the reachability evaluator), the rest
//     modal filters at the edge midpoint.
//  5. Replay the plan on a scratch copy and report surviving violations as
//     residual.
//
// Modifications come back sorted by (u, v, key).
func Enforce(interior *network.Graph, poly orb.Polygon, entries []network.NodeID, opts Options) (*Result, error) {
	if interior == nil {
		return nil, ErrNilGraph
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	res := &Result{Sectors: AssignSectors(poly, entries, interior, opts.NumSectors)}
	if len(res.Sectors.NodeSector) < 2 {
		return res, nil
	}

	violations := FindViolations(interior, &res.Sectors)
	if len(violations) == 0 {
		return res, nil
	}

	// 3) One cut per violating sector pair.
	caps := capacityMap(interior)
	type sectorPair struct{ a, b int }
	processed := make(map[sectorPair]bool)
	cutSet := make(map[centrality.Pair]struct{})
	var cutOrder []centrality.Pair
	for _, v := range violations {
		if err := opts.Ctx.Err(); err != nil {
			return nil, err
		}
		pair := sectorPair{a: v.FromSector, b: v.ToSector}
		if pair.b < pair.a {
			pair.a, pair.b = pair.b, pair.a
		}
		if processed[pair] {
			continue
		}
		processed[pair] = true

		frontier := minimumCut(caps, res.Sectors.BySector[pair.a], res.Sectors.BySector[pair.b])
		for _, p := range frontier {
			if _, dup := cutSet[p]; dup {
				continue
			}
			cutSet[p] = struct{}{}
			cutOrder = append(cutOrder, p)
		}
	}

	// 4) Classification. Apply acts on whole parallel-edge classes, so
	// emission dedupes: one modal filter per unordered pair, one one-way per
	// ordered pair — a redundant duplicate would make the plan non-minimal.
	evaluator := newDirectionEvaluator(interior, &res.Sectors)
	filtered := make(map[centrality.Pair]bool)
	converted := make(map[[2]network.NodeID]bool)
	emit := func(e *network.Edge) {
		mod := classify(interior, e, evaluator)
		switch mod.Kind {
		case plan.ModalFilter:
			pair := centrality.MakePair(e.U, e.V)
			if filtered[pair] {
				return
			}
			filtered[pair] = true
		case plan.OneWay:
			ordered := [2]network.NodeID{e.U, e.V}
			if converted[ordered] {
				return
			}
			converted[ordered] = true
		}
		res.Modifications = append(res.Modifications, mod)
	}
	for _, p := range cutOrder {
		u, v := p.A, p.B
		for _, e := range interior.EdgesBetween(u, v) {
			emit(e)
		}
		for _, e := range interior.EdgesBetween(v, u) {
			emit(e)
		}
	}
	sort.Slice(res.Modifications, func(i, j int) bool {
		a, b := res.Modifications[i], res.Modifications[j]
		if a.U != b.U {
			return a.U < b.U
		}
		if a.V != b.V {
			return a.V < b.V
		}

		return a.Key < b.Key
	})

	// 5) Post-validation on a scratch copy.
	scratch := interior.Clone()
	Apply(scratch, res.Modifications)
	res.Residual = FindViolations(scratch, &res.Sectors)

	return res, nil
}

// FindViolations reports entry pairs from different sectors joined by an
// undirected path over non-blocked edges, via connected components.
func FindViolations(g *network.Graph, sectors *SectorAssignment) []Violation {
	comp := components(g)

	entries := sectors.Entries()
	var out []Violation
	for i := 0; i < len(entries); i++ {
		ci, ok := comp[entries[i]]
		if !ok {
			continue
		}
		for j := i + 1; j < len(entries); j++ {
			cj, ok := comp[entries[j]]
			if !ok || ci != cj {
				continue
			}
			si, sj := sectors.NodeSector[entries[i]], sectors.NodeSector[entries[j]]
			if si == sj {
				continue
			}
			out = append(out, Violation{
				From: entries[i], To: entries[j],
				FromSector: si, ToSector: sj,
			})
		}
	}

	return out
}

// components labels the undirected connected components over vehicle-open
// edges.
func components(g *network.Graph) map[network.NodeID]int {
	comp := make(map[network.NodeID]int, g.NodeCount())
	label := 0
	for _, start := range g.NodeIDs() {
		if _, seen := comp[start]; seen {
			continue
		}
		comp[start] = label
		queue := []network.NodeID{start}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, e := range g.OutEdges(u) {
				if !e.VehicleBlocked {
					if _, seen := comp[e.V]; !seen {
						comp[e.V] = label
						queue = append(queue, e.V)
					}
				}
			}
			for _, e := range g.InEdges(u) {
				if !e.VehicleBlocked {
					if _, seen := comp[e.U]; !seen {
						comp[e.U] = label
						queue = append(queue, e.U)
					}
				}
			}
		}
		label++
	}

	return comp
}

// oneWayHierarchyCap: streets ranked tertiary-or-better keep capacity as
// one-ways; anything smaller gets filtered outright.
const oneWayHierarchyCap = 5

// classify turns one cut multigraph edge into its modification.
func classify(g *network.Graph, e *network.Edge, eval *directionEvaluator) plan.Modification {
	mod := plan.Modification{
		U:    int64(e.U),
		V:    int64(e.V),
		Key:  e.Key,
		Name: e.Name,
	}
	if len(e.OSMIDs) > 0 {
		mod.OSMID = e.OSMIDs[0]
	}
	if e.Highway.Hierarchy() <= oneWayHierarchyCap {
		mod.Kind = plan.OneWay
		mod.Direction = eval.best(e.U, e.V)
		mod.Rationale = "one-way conversion (" + string(mod.Direction) + ") to block cross-sector paths"

		return mod
	}

	mod.Kind = plan.ModalFilter
	nu, _ := g.Node(e.U)
	nv, _ := g.Node(e.V)
	mod.FilterLocation = &plan.Coordinates{
		Lat: (nu.Lat + nv.Lat) / 2,
		Lon: (nu.Lon + nv.Lon) / 2,
	}
	mod.Rationale = "modal filter to prevent cross-sector through traffic"

	return mod
}
