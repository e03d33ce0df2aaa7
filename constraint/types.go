package constraint

import (
	"context"
	"errors"
	"sort"

	"github.com/tgergo1/superblocker/network"
)

// Sentinel errors of the enforcement path.
var (
	// ErrNilGraph indicates a nil interior graph.
	ErrNilGraph = errors.New("constraint: interior graph is nil")

	// ErrBadSectorCount indicates NumSectors outside [3, 8].
	ErrBadSectorCount = errors.New("constraint: sector count must be in [3, 8]")
)

// Sector count bounds of the request contract.
const (
	MinSectors = 3
	MaxSectors = 8
)

// Options configures enforcement.
//
// NumSectors – angular sector count (3..8, default 4).
// Ctx        – cancellation, checked between sector-pair cuts.
type Options struct {
	NumSectors int
	Ctx        context.Context
}

// DefaultOptions returns four sectors (N/E/S/W-like) and a background
// context.
func DefaultOptions() Options {
	return Options{NumSectors: 4, Ctx: context.Background()}
}

func (o *Options) normalize() error {
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.NumSectors == 0 {
		o.NumSectors = 4
	}
	if o.NumSectors < MinSectors || o.NumSectors > MaxSectors {
		return ErrBadSectorCount
	}

	return nil
}

// SectorAssignment maps entry nodes to angular sectors.
type SectorAssignment struct {
	NumSectors int
	BySector   map[int][]network.NodeID
	NodeSector map[network.NodeID]int
}

// Entries returns the assigned entry nodes, ascending.
func (sa *SectorAssignment) Entries() []network.NodeID {
	out := make([]network.NodeID, 0, len(sa.NodeSector))
	for id := range sa.NodeSector {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Violation is a pair of connected entry nodes assigned to different sectors.
type Violation struct {
	From       network.NodeID
	To         network.NodeID
	FromSector int
	ToSector   int
}

// cutCost prices the removal of an edge class: major roads cost more, so
// the minimum cut prefers severing minor streets.
// cost = 10 − hierarchy + 1; the unknown-class default yields 5.
func cutCost(h network.Highway) float64 {
	return float64(10 - h.Hierarchy() + 1)
}
