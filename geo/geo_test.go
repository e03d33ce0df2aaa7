package geo_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/tgergo1/superblocker/geo"
)

func square(minx, miny, maxx, maxy float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minx, miny}, {maxx, miny}, {maxx, maxy}, {minx, maxy}, {minx, miny},
	}}
}

// TestAreaHectaresUTM checks a 0.01°×0.01° square at the equator against the
// known ground size (~123 ha) within 2%.
func TestAreaHectaresUTM(t *testing.T) {
	poly := square(19.00, 0.00, 19.01, 0.01)
	ha := geo.AreaHectares(poly)
	require.InEpsilon(t, 123.1, ha, 0.02)
}

// TestAreaHectaresMidLatitude verifies the cos(lat) shrink of the east-west
// extent at 60°N: area should be roughly half of the equator value.
func TestAreaHectaresMidLatitude(t *testing.T) {
	poly := square(19.00, 60.00, 19.01, 60.01)
	ha := geo.AreaHectares(poly)
	require.InDelta(t, 61.8, ha, 3.0)
}

// TestAreaFallbackPolarBand exercises the bounding-rectangle fallback above
// the transverse Mercator band.
func TestAreaFallbackPolarBand(t *testing.T) {
	poly := square(10.0, 85.0, 10.1, 85.1)
	ha := geo.AreaHectares(poly)
	require.Greater(t, ha, 0.0)
}

// TestPolygonizeGrid polygonizes a tic-tac-toe arrangement into four unit
// faces.
func TestPolygonizeGrid(t *testing.T) {
	var lines []orb.LineString
	for i := 0; i <= 2; i++ {
		f := float64(i)
		lines = append(lines,
			orb.LineString{{0, f}, {2, f}},
			orb.LineString{{f, 0}, {f, 2}},
		)
	}

	polys, err := geo.Polygonize(lines)
	require.NoError(t, err)
	require.Len(t, polys, 4)
	for _, p := range polys {
		b := p.Bound()
		require.InDelta(t, 1.0, b.Max[0]-b.Min[0], 1e-9)
		require.InDelta(t, 1.0, b.Max[1]-b.Min[1], 1e-9)
	}
}

// TestPolygonizeCrossingChords splits segments at interior crossings that
// are not endpoints of either line.
func TestPolygonizeCrossingChords(t *testing.T) {
	lines := []orb.LineString{
		{{0, 0}, {2, 0}}, {{2, 0}, {2, 2}}, {{2, 2}, {0, 2}}, {{0, 2}, {0, 0}},
		{{1, -1}, {1, 3}}, // vertical chord overshooting the square
	}
	polys, err := geo.Polygonize(lines)
	require.NoError(t, err)
	require.Len(t, polys, 2)
}

// TestPolygonizeDangle prunes a dead-end spur before face extraction.
func TestPolygonizeDangle(t *testing.T) {
	lines := []orb.LineString{
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}},
		{{1, 0.5}, {2, 0.5}}, // dangle into nowhere
	}
	polys, err := geo.Polygonize(lines)
	require.NoError(t, err)
	require.Len(t, polys, 1)
	require.InDelta(t, 1.0, math.Abs(ringArea(polys[0][0])), 1e-9)
}

// TestPolygonizeNothing returns ErrNoFaces for an open polyline.
func TestPolygonizeNothing(t *testing.T) {
	_, err := geo.Polygonize([]orb.LineString{{{0, 0}, {1, 1}}})
	require.ErrorIs(t, err, geo.ErrNoFaces)
}

func ringArea(r orb.Ring) float64 {
	sum := 0.0
	for i := 0; i+1 < len(r); i++ {
		sum += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}

	return sum / 2
}

// TestSplitPolygon cuts a square with an extended interior chord.
func TestSplitPolygon(t *testing.T) {
	poly := square(0, 0, 2, 2)
	seed := orb.LineString{{1, 0.5}, {1, 1.5}}

	ext, ok := geo.ExtendAcross(seed, poly)
	require.True(t, ok)

	parts, ok := geo.SplitPolygon(poly, ext)
	require.True(t, ok)
	require.Len(t, parts, 2)
	require.InDelta(t, 2.0, math.Abs(ringArea(parts[0][0])), 1e-9)
	require.InDelta(t, 2.0, math.Abs(ringArea(parts[1][0])), 1e-9)
}

// TestSplitPolygonMiss rejects a chord that never enters the polygon.
func TestSplitPolygonMiss(t *testing.T) {
	poly := square(0, 0, 2, 2)
	_, ok := geo.SplitPolygon(poly, orb.LineString{{5, 0}, {5, 2}})
	require.False(t, ok)
}

// TestUnionAdjacent dissolves the shared edge of two unit squares.
func TestUnionAdjacent(t *testing.T) {
	a := square(0, 0, 1, 1)
	b := square(1, 0, 2, 1)

	require.True(t, geo.PolygonsAdjacent(a, b))

	merged, ok := geo.UnionAdjacent(a, b)
	require.True(t, ok)
	require.InDelta(t, 2.0, ringArea(merged[0]), 1e-9)
}

// TestUnionTouchingAtPoint keeps the largest part for point-touching cells.
func TestUnionTouchingAtPoint(t *testing.T) {
	a := square(0, 0, 2, 2)
	b := square(2, 2, 3, 3)

	require.True(t, geo.PolygonsAdjacent(a, b))

	merged, ok := geo.UnionAdjacent(a, b)
	require.True(t, ok)
	require.InDelta(t, 4.0, ringArea(merged[0]), 1e-9)
}

// TestNotAdjacent reports disjoint polygons as non-neighbors.
func TestNotAdjacent(t *testing.T) {
	require.False(t, geo.PolygonsAdjacent(square(0, 0, 1, 1), square(5, 5, 6, 6)))
}

// TestRectIndex compares tree queries against a brute-force scan.
func TestRectIndex(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bounds := make([]orb.Bound, 200)
	for i := range bounds {
		x, y := rng.Float64()*10, rng.Float64()*10
		bounds[i] = orb.Bound{
			Min: orb.Point{x, y},
			Max: orb.Point{x + rng.Float64(), y + rng.Float64()},
		}
	}
	idx := geo.NewRectIndexBounds(bounds)

	for probe := 0; probe < 25; probe++ {
		x, y := rng.Float64()*10, rng.Float64()*10
		q := orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x + 1, y + 1}}

		var want []int
		for i, b := range bounds {
			if b.Intersects(q) {
				want = append(want, i)
			}
		}
		got := idx.Query(q, nil)
		require.Equal(t, want, got)
	}
}

// TestSegmentsIntersect covers crossing, touching, collinear, and disjoint.
func TestSegmentsIntersect(t *testing.T) {
	require.True(t, geo.SegmentsIntersect(
		orb.Point{0, 0}, orb.Point{2, 2}, orb.Point{0, 2}, orb.Point{2, 0}))
	require.True(t, geo.SegmentsIntersect(
		orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{1, 0}, orb.Point{1, 1}))
	require.True(t, geo.SegmentsIntersect(
		orb.Point{0, 0}, orb.Point{2, 0}, orb.Point{1, 0}, orb.Point{3, 0}))
	require.False(t, geo.SegmentsIntersect(
		orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{0, 1}, orb.Point{1, 1}))
	require.False(t, geo.SegmentsIntersect(
		orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{2, 0}, orb.Point{3, 0}))
}

// TestDistanceToRing measures interior and exterior probes.
func TestDistanceToRing(t *testing.T) {
	ring := square(0, 0, 2, 2)[0]
	require.InDelta(t, 0.5, geo.DistanceToRing(ring, orb.Point{1, 0.5}), 1e-9)
	require.InDelta(t, 1.0, geo.DistanceToRing(ring, orb.Point{3, 1}), 1e-9)
	require.InDelta(t, 0.0, geo.DistanceToRing(ring, orb.Point{2, 1}), 1e-9)
}

// TestPolygonContains sanity-checks the containment predicate used by the
// cell builder and router.
func TestPolygonContains(t *testing.T) {
	poly := square(0, 0, 2, 2)
	require.True(t, geo.PolygonContains(poly, orb.Point{1, 1}))
	require.False(t, geo.PolygonContains(poly, orb.Point{3, 1}))

	// Boundary points are not "strictly inside".
	require.False(t, geo.PolygonContains(poly, orb.Point{2, 1}))
	require.False(t, geo.PolygonContains(poly, orb.Point{1, 0}))
	require.False(t, geo.PolygonContains(poly, orb.Point{0, 0}))
}
