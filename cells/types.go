package cells

import (
	"errors"

	"github.com/paulmach/orb"

	"github.com/tgergo1/superblocker/network"
)

// Sentinel errors for cell construction.
var (
	// ErrNilGraph indicates a nil street graph.
	ErrNilGraph = errors.New("cells: graph is nil")

	// ErrNilSelection indicates a nil arterial selection.
	ErrNilSelection = errors.New("cells: arterial selection is nil")

	// ErrNoCells indicates polygonization yielded no cell in the size band.
	ErrNoCells = errors.New("cells: no usable cells")
)

// Area band for raw polygonization faces: below the floor a face is noise
// between carriageways, above the ceiling it is the implicit outside face.
const (
	FaceMinHectares = 0.5
	FaceMaxHectares = 100.0
)

// EntryBufferDegrees is the tolerance for counting an interior junction
// sitting on the cell boundary as an entry.
const EntryBufferDegrees = 1e-4

// Cell is an intermediate superblock: a closed polygon plus the street
// classification inside it. Mutated only by the Sizer, frozen afterwards.
type Cell struct {
	Polygon      orb.Polygon
	AreaHectares float64

	BoundaryEdges []network.EdgeKey
	InteriorEdges []network.EdgeKey
	EntryNodes    []network.NodeID
}
