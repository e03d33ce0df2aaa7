// Package geo implements the planar geometry kernel of the partitioner.
//
// Everything operates on orb types in WGS84 lon/lat order. The package keeps
// the two unit regimes strictly apart: areas are always measured by
// projecting into the UTM zone of the polygon's centroid (with a degree-grid
// fallback when the projection is unusable), while the routing heuristics
// elsewhere use the flat 111 000 m/deg approximation. Nothing in this
// package mixes the two.
//
// The heavy machinery is Polygonize: it nodes a bundle of linestrings into a
// planar arrangement, prunes dangles, and walks the half-edge structure to
// extract every minimal enclosed face. SplitPolygon and UnionAdjacent
// implement the two surgical operations the cell sizer needs: cutting a
// polygon with the extension of an interior street, and dissolving the
// shared boundary between two neighboring cells.
//
// Coordinates are snapped to a fixed quantization grid (≈1e-9 degrees)
// before topology is derived, so nearly-identical endpoints from different
// source geometries land on the same arrangement vertex.
package geo
