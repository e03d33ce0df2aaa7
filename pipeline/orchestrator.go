package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/tgergo1/superblocker/arterial"
	"github.com/tgergo1/superblocker/cells"
	"github.com/tgergo1/superblocker/centrality"
	"github.com/tgergo1/superblocker/constraint"
	"github.com/tgergo1/superblocker/geo"
	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
)

// ErrNilGraph indicates the orchestrator received no street graph.
var ErrNilGraph = errors.New("pipeline: graph is nil")

// Options configures one partitioning run.
//
// TargetHectares/MinHectares/MaxHectares – the sizer band; the target
// usually arrives from an external size recommendation.
// NumSectors           – angular sectors per superblock (3..8).
// EnforceConstraints   – when false, cells are sectorized but no cuts are
// computed; validity is still reported honestly.
// CentralityPercentile – arterial promotion quantile.
// Workers              – per-cell enforcement parallelism (capped at 4).
// Ctx                  – cancellation, checked at stage boundaries.
// Progress             – optional stage event sink.
// Logger               – ambient structured logger (Nop by default).
type Options struct {
	TargetHectares       float64
	MinHectares          float64
	MaxHectares          float64
	NumSectors           int
	EnforceConstraints   bool
	CentralityPercentile float64
	Workers              int
	Ctx                  context.Context
	Progress             func(plan.Progress)
	Logger               zerolog.Logger
}

// DefaultOptions returns the Barcelona-guideline configuration.
func DefaultOptions() Options {
	return Options{
		TargetHectares:       12,
		MinHectares:          6,
		MaxHectares:          20,
		NumSectors:           4,
		EnforceConstraints:   true,
		CentralityPercentile: arterial.DefaultPercentile,
		Workers:              MaxWorkers,
		Ctx:                  context.Background(),
		Logger:               zerolog.Nop(),
	}
}

func (o *Options) normalize() {
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.NumSectors == 0 {
		o.NumSectors = 4
	}
	if o.TargetHectares <= 0 {
		o.TargetHectares = 12
	}
	if o.MinHectares <= 0 {
		o.MinHectares = 6
	}
	if o.MaxHectares <= 0 {
		o.MaxHectares = 20
	}
	if o.CentralityPercentile <= 0 || o.CentralityPercentile >= 1 {
		o.CentralityPercentile = arterial.DefaultPercentile
	}
}

// Run partitions the street graph into superblocks.
//
// Stages (progress percent): network 0–20, arterials 25–40 (centrality
// heartbeats surface here), cells 45–70 (build + size optimization),
// constraints 75–95 (worker pool over cells), complete 100.
//
// An empty network and a degenerate polygonization both return an empty
// partition rather than an error, per the recovery policy; everything else
// bubbles up.
func Run(g *network.Graph, bbox plan.BoundingBox, opts Options) (*plan.Partition, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	opts.normalize()
	report := func(stage string, percent int, msg string) {
		if opts.Progress != nil {
			opts.Progress(plan.Progress{
				Type: plan.ProgressTypeProgress, Stage: stage,
				Percent: percent, Message: msg,
			})
		}
	}

	// 1) Network stage.
	report("network", 0, "Preparing street network...")
	if g.EdgeCount() == 0 {
		opts.Logger.Warn().Msg("street network is empty")
		report("complete", 100, "Street network is empty")

		return emptyPartition(bbox), nil
	}
	report("network", 20, fmt.Sprintf("Network prepared: %d nodes, %d edges", g.NodeCount(), g.EdgeCount()))
	if err := opts.Ctx.Err(); err != nil {
		return nil, err
	}

	// 2) Centrality with heartbeat surfaced as an arterial-stage event.
	copts := centrality.DefaultOptions()
	copts.Ctx = opts.Ctx
	copts.Heartbeat = func(elapsed time.Duration) {
		report("arterials", 25, fmt.Sprintf("Computing betweenness centrality... (%ds elapsed)", int(elapsed.Seconds())))
	}
	report("arterials", 25, "Computing betweenness centrality...")
	score, err := centrality.EdgeBetweenness(g, copts)
	if err != nil {
		return nil, err
	}
	centrality.Apply(g, score)

	// 3) Arterial identification.
	sel, err := arterial.Select(g, opts.CentralityPercentile)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info().Int("arterial_edges", len(sel.Edges)).Msg("arterial network identified")
	report("arterials", 40, fmt.Sprintf("Found %d arterial edges", len(sel.Edges)))
	if err = opts.Ctx.Err(); err != nil {
		return nil, err
	}

	// 4) Cells: polygonize, then optimize sizes.
	report("cells", 45, "Creating superblock cells...")
	built, cls, err := cells.Build(g, sel, bbox)
	if err != nil {
		if errors.Is(err, plan.ErrDegenerate) {
			opts.Logger.Warn().Err(err).Msg("degenerate partition")
			report("complete", 100, "No superblock cells could be formed")

			return emptyPartitionWithArterials(bbox, sel), nil
		}

		return nil, err
	}
	report("cells", 55, fmt.Sprintf("Created %d initial cells", len(built)))

	report("cells", 60, "Optimizing cell sizes...")
	sized, err := cells.Resize(built, cls, cells.SizerOptions{
		TargetHectares: opts.TargetHectares,
		MinHectares:    opts.MinHectares,
		MaxHectares:    opts.MaxHectares,
		Ctx:            opts.Ctx,
	})
	if err != nil {
		return nil, err
	}
	report("cells", 70, fmt.Sprintf("Optimized to %d cells", len(sized)))
	if err = opts.Ctx.Err(); err != nil {
		return nil, err
	}

	// 5) Per-cell constraint enforcement over the worker pool. Completion is
	// unordered; results land by cell index.
	report("constraints", 75, "Enforcing superblock constraints...")
	var done atomic.Int32
	total := len(sized)
	superblocks := runIndexed(opts.Ctx, total, opts.Workers, func(i int) plan.Superblock {
		sb := buildSuperblock(g, &sized[i], i, &opts)
		n := int(done.Add(1))
		if opts.Progress != nil {
			cur, tot := n, total
			opts.Progress(plan.Progress{
				Type: plan.ProgressTypeProgress, Stage: "constraints",
				Percent:           75 + 20*n/total,
				Message:           fmt.Sprintf("Processing superblock %d/%d", n, total),
				CurrentSuperblock: &cur, TotalSuperblocks: &tot,
			})
		}

		return sb
	})
	if err = opts.Ctx.Err(); err != nil {
		return nil, err
	}
	report("constraints", 95, fmt.Sprintf("Created %d superblocks", len(superblocks)))

	// 6) Statistics.
	partition := assemble(bbox, sel, superblocks)
	report("complete", 100, "Partitioning complete")

	return partition, nil
}

// buildSuperblock enforces one cell, degrading to a simple superblock on
// any failure or panic.
func buildSuperblock(g *network.Graph, cell *cells.Cell, index int, opts *Options) (sb plan.Superblock) {
	defer func() {
		if r := recover(); r != nil {
			opts.Logger.Warn().Int("cell", index).Interface("panic", r).
				Msg("constraint enforcement panicked; falling back to simple superblock")
			sb = simpleSuperblock(g, cell, index, opts.NumSectors)
		}
	}()

	interior := g.Subgraph(cell.InteriorEdges)
	if len(cell.EntryNodes) < 2 || interior.EdgeCount() == 0 {
		return simpleSuperblock(g, cell, index, opts.NumSectors)
	}

	sectors := constraint.AssignSectors(cell.Polygon, cell.EntryNodes, interior, opts.NumSectors)
	var (
		mods     []plan.Modification
		residual []constraint.Violation
	)
	if opts.EnforceConstraints {
		res, err := constraint.Enforce(interior, cell.Polygon, cell.EntryNodes, constraint.Options{
			NumSectors: opts.NumSectors,
			Ctx:        opts.Ctx,
		})
		if err != nil {
			opts.Logger.Warn().Int("cell", index).Err(err).
				Msg("constraint enforcement failed; falling back to simple superblock")

			return simpleSuperblock(g, cell, index, opts.NumSectors)
		}
		sectors = res.Sectors
		mods = res.Modifications
		residual = res.Residual
	} else {
		residual = constraint.FindViolations(interior, &sectors)
	}

	unreachable := constraint.ReportUnreachable(interior, sectors.Entries(), mods, &sectors)

	sb = plan.Superblock{
		ID:                    plan.NewSuperblockID(index),
		Geometry:              plan.PolygonGeometry(cell.Polygon),
		AreaHectares:          cell.AreaHectares,
		NumSectors:            opts.NumSectors,
		BoundaryRoads:         boundaryOSMIDs(g, cell),
		EntryPoints:           entryPoints(g, &sectors),
		Modifications:         mods,
		ConstraintValidated:   len(residual) == 0,
		AllAddressesReachable: len(unreachable) == 0,
		UnreachableAddresses:  unreachable,
		InteriorRoadsCount:    len(cell.InteriorEdges),
	}
	for _, m := range mods {
		switch m.Kind {
		case plan.ModalFilter:
			sb.ModalFilterCount++
		case plan.OneWay:
			sb.OneWayConversionCount++
		}
	}

	return sb
}

// simpleSuperblock is the no-modification fallback: with fewer than two
// entry sectors in play the constraint holds vacuously.
func simpleSuperblock(g *network.Graph, cell *cells.Cell, index, numSectors int) plan.Superblock {
	eps := make([]plan.EntryPoint, 0, len(cell.EntryNodes))
	for _, id := range cell.EntryNodes {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		eps = append(eps, plan.EntryPoint{
			NodeID:      int64(id),
			Coordinates: plan.Coordinates{Lat: n.Lat, Lon: n.Lon},
		})
	}

	return plan.Superblock{
		ID:                    plan.NewSuperblockID(index),
		Geometry:              plan.PolygonGeometry(cell.Polygon),
		AreaHectares:          cell.AreaHectares,
		NumSectors:            numSectors,
		BoundaryRoads:         boundaryOSMIDs(g, cell),
		EntryPoints:           eps,
		Modifications:         []plan.Modification{},
		ConstraintValidated:   true,
		AllAddressesReachable: true,
		UnreachableAddresses:  nil,
		InteriorRoadsCount:    len(cell.InteriorEdges),
	}
}

// entryPoints flattens the sector assignment into wire entries, ordered by
// node id.
func entryPoints(g *network.Graph, sectors *constraint.SectorAssignment) []plan.EntryPoint {
	ids := sectors.Entries()
	out := make([]plan.EntryPoint, 0, len(ids))
	for _, id := range ids {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		out = append(out, plan.EntryPoint{
			NodeID:      int64(id),
			Sector:      sectors.NodeSector[id],
			Coordinates: plan.Coordinates{Lat: n.Lat, Lon: n.Lon},
		})
	}

	return out
}

// boundaryOSMIDs collects the deduplicated OSM ids of the cell's boundary
// edges, ascending.
func boundaryOSMIDs(g *network.Graph, cell *cells.Cell) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, k := range cell.BoundaryEdges {
		e, ok := g.Edge(k)
		if !ok {
			continue
		}
		for _, id := range e.OSMIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func emptyPartition(bbox plan.BoundingBox) *plan.Partition {
	return &plan.Partition{
		Superblocks:     []plan.Superblock{},
		ArterialNetwork: []int64{},
		BBox:            bbox,
	}
}

func emptyPartitionWithArterials(bbox plan.BoundingBox, sel *arterial.Selection) *plan.Partition {
	p := emptyPartition(bbox)
	p.ArterialNetwork = sel.OSMIDs

	return p
}

// assemble computes the aggregate statistics of the finished partition.
func assemble(bbox plan.BoundingBox, sel *arterial.Selection, superblocks []plan.Superblock) *plan.Partition {
	p := &plan.Partition{
		Superblocks:      superblocks,
		ArterialNetwork:  sel.OSMIDs,
		BBox:             bbox,
		TotalSuperblocks: len(superblocks),
	}
	for i := range superblocks {
		sb := &superblocks[i]
		p.TotalAreaHectares += sb.AreaHectares
		p.TotalModalFilters += sb.ModalFilterCount
		p.TotalOneWayConversions += sb.OneWayConversionCount
		p.TotalUnreachableAddresses += len(sb.UnreachableAddresses)
	}

	bboxPoly := geo.BoundPolygon(orb.Bound{
		Min: orb.Point{bbox.West, bbox.South},
		Max: orb.Point{bbox.East, bbox.North},
	})
	if bboxArea := geo.AreaHectares(bboxPoly); bboxArea > 0 {
		p.CoveragePercent = p.TotalAreaHectares / bboxArea * 100
	}

	return p
}
