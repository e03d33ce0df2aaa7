// Package arterial selects the arterial edge set that will bound the
// superblock cells.
//
// An edge is arterial iff its road class is primary/secondary/tertiary (or a
// _link variant) OR its betweenness centrality reaches the configured
// percentile of the centrality distribution over all edges. The centrality
// criterion promotes residential rat-runs that already behave like arterials
// into the boundary network, the same dual test the candidate-detection
// pipeline used before partitioning absorbed it.
package arterial

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/tgergo1/superblocker/network"
)

// ErrNilGraph indicates a nil *network.Graph was passed to Select.
var ErrNilGraph = errors.New("arterial: graph is nil")

// DefaultPercentile is the centrality quantile above which an edge is
// promoted to arterial regardless of its road class.
const DefaultPercentile = 0.75

// Selection is the outcome of arterial identification.
type Selection struct {
	// Edges is the arterial edge-key set.
	Edges map[network.EdgeKey]struct{}

	// OSMIDs is the deduplicated union of the arterial edges' OSM way ids,
	// ascending.
	OSMIDs []int64

	// Threshold is the centrality cutoff that was applied (0 when the
	// distribution was empty).
	Threshold float64
}

// Contains reports whether k was selected.
func (s *Selection) Contains(k network.EdgeKey) bool {
	_, ok := s.Edges[k]

	return ok
}

// Select classifies every edge of g. The percentile must be in (0, 1); the
// edges' Centrality attribute is expected to be populated (zero values are
// fine — a zero centrality never promotes an edge, even when every value is
// zero).
func Select(g *network.Graph, percentile float64) (*Selection, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if percentile <= 0 || percentile >= 1 {
		percentile = DefaultPercentile
	}

	sel := &Selection{Edges: make(map[network.EdgeKey]struct{})}
	edges := g.Edges()

	// Centrality threshold over the full edge distribution.
	values := make([]float64, 0, len(edges))
	for _, e := range edges {
		values = append(values, e.Centrality)
	}
	sort.Float64s(values)
	if len(values) > 0 {
		sel.Threshold = stat.Quantile(percentile, stat.Empirical, values, nil)
	}

	idSet := make(map[int64]struct{})
	for _, e := range edges {
		byClass := e.Highway.IsArterialClass()
		byCentrality := len(values) > 0 && e.Centrality >= sel.Threshold && e.Centrality > 0
		if !byClass && !byCentrality {
			continue
		}
		sel.Edges[e.EdgeKey] = struct{}{}
		for _, id := range e.OSMIDs {
			idSet[id] = struct{}{}
		}
	}

	sel.OSMIDs = make([]int64, 0, len(idSet))
	for id := range idSet {
		sel.OSMIDs = append(sel.OSMIDs, id)
	}
	sort.Slice(sel.OSMIDs, func(i, j int) bool { return sel.OSMIDs[i] < sel.OSMIDs[j] })

	return sel, nil
}
