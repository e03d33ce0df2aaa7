// Package cells turns the arterial network into sized superblock cells.
//
// The builder polygonizes the arterial geometries together with the request
// bounding rectangle (so edge-of-area cells close), rejects faces outside
// the plausible cell band, and classifies the full street graph against
// each face: arterial edges intersecting the face boundary become boundary
// edges, non-arterial edges whose centroid falls strictly inside become
// interior edges, and entry nodes are the junctions where the two meet
// (plus interior junctions within a thin tolerance of the boundary).
//
// The sizer then iterates merge and split passes until cell areas land in
// the requested [min, max] band or the iteration cap is reached. Cells are
// value objects owned by the caller; the sizer is the only component that
// replaces them, and it preserves the relative order of untouched cells.
package cells
