package cells

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/tgergo1/superblocker/arterial"
	"github.com/tgergo1/superblocker/geo"
	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
)

// Build polygonizes the arterial network inside the bounding box and
// classifies each resulting face into a Cell.
//
// Steps:
//  1. Collect arterial edge geometries plus the bbox rectangle ring, so
//     cells at the edge of the request area still close.
//  2. Polygonize the bundle into minimal faces.
//  3. Drop faces outside the [FaceMinHectares, FaceMaxHectares] band — the
//     upper cut removes the implicit everything-outside face when one
//     appears.
//  4. Classify boundary/interior edges and entry nodes per face.
//
// Cells come back in polygonize output order, the stable base ordering the
// sizer preserves for untouched cells. Returns plan.ErrDegenerate (wrapped)
// when nothing polygonizes or every face is rejected.
func Build(g *network.Graph, sel *arterial.Selection, bbox plan.BoundingBox) ([]Cell, *Classifier, error) {
	cls, err := NewClassifier(g, sel)
	if err != nil {
		return nil, nil, err
	}

	bundle := make([]orb.LineString, 0, len(sel.Edges)+1)
	for _, e := range g.Edges() {
		if sel.Contains(e.EdgeKey) {
			bundle = append(bundle, e.Geometry)
		}
	}
	bound := orb.Bound{
		Min: orb.Point{bbox.West, bbox.South},
		Max: orb.Point{bbox.East, bbox.North},
	}
	bundle = append(bundle, orb.LineString(geo.BoundRing(bound)))

	faces, err := geo.Polygonize(bundle)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", plan.ErrDegenerate, err)
	}

	cellsOut := make([]Cell, 0, len(faces))
	for _, face := range faces {
		cell := cls.Classify(face)
		if cell.AreaHectares < FaceMinHectares || cell.AreaHectares > FaceMaxHectares {
			continue
		}
		cellsOut = append(cellsOut, cell)
	}
	if len(cellsOut) == 0 {
		return nil, nil, fmt.Errorf("%w: all %d faces rejected", plan.ErrDegenerate, len(faces))
	}

	return cellsOut, cls, nil
}
