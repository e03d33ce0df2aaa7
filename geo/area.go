package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// metersPerDegree is the flat-earth scale of the area fallback; the routing
// heuristic uses the same value through its own constant.
const metersPerDegree = 111000.0

// signedArea computes the shoelace area of a point loop. Positive for
// counterclockwise winding.
func signedArea(pts []orb.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < len(pts); i++ {
		p := pts[i]
		q := pts[(i+1)%len(pts)]
		sum += p[0]*q[1] - q[0]*p[1]
	}

	return sum / 2
}

// Centroid returns the area-weighted centroid of the polygon.
func Centroid(poly orb.Polygon) orb.Point {
	c, _ := planar.CentroidArea(poly)

	return c
}

// AreaHectares measures a WGS84 polygon in hectares.
//
// The polygon is projected into the UTM zone of its centroid
// (zone = floor((cx+180)/6)+1, hemisphere by centroid latitude sign) and the
// projected shoelace area is divided by 10 000. When the projection is
// unusable the width×height of the bounding rectangle approximates the area,
// scaled by 111 000 m/deg latitude and 111 000·cos(lat) m/deg longitude.
func AreaHectares(poly orb.Polygon) float64 {
	if len(poly) == 0 || len(poly[0]) < 3 {
		return 0
	}
	centroid := Centroid(poly)
	zone := utmZone(centroid.Lon())
	south := centroid.Lat() < 0

	total := 0.0
	ok := true
	for i, ring := range poly {
		projected, fine := projectRing(ring, zone, south)
		if !fine {
			ok = false

			break
		}
		area := math.Abs(signedArea(projected))
		if i == 0 {
			total += area
		} else {
			total -= area // holes
		}
	}
	if ok {
		return total / 10000
	}

	return fallbackAreaHectares(poly)
}

// fallbackAreaHectares approximates the polygon area by its bounding
// rectangle in degree space scaled to meters at the rectangle's mid latitude.
func fallbackAreaHectares(poly orb.Polygon) float64 {
	b := poly.Bound()
	midLat := (b.Min.Lat() + b.Max.Lat()) / 2
	width := (b.Max.Lon() - b.Min.Lon()) * metersPerDegree * math.Cos(midLat*math.Pi/180)
	height := (b.Max.Lat() - b.Min.Lat()) * metersPerDegree

	return math.Abs(width*height) / 10000
}

// BoundRing returns the closed counterclockwise ring of a bounding rectangle.
func BoundRing(b orb.Bound) orb.Ring {
	return orb.Ring{
		{b.Min.Lon(), b.Min.Lat()},
		{b.Max.Lon(), b.Min.Lat()},
		{b.Max.Lon(), b.Max.Lat()},
		{b.Min.Lon(), b.Max.Lat()},
		{b.Min.Lon(), b.Min.Lat()},
	}
}

// BoundPolygon returns the bounding rectangle as a polygon.
func BoundPolygon(b orb.Bound) orb.Polygon {
	return orb.Polygon{BoundRing(b)}
}

// onEdgeEps treats points this close to a ring segment as boundary points.
const onEdgeEps = 1e-12

// PolygonContains reports whether the point lies strictly inside the
// polygon: boundary points do not count, holes are excluded. Strictness
// matters to the cell builder — an edge running along a cell ring must not
// classify as interior.
func PolygonContains(poly orb.Polygon, p orb.Point) bool {
	if len(poly) == 0 {
		return false
	}
	if !ringContainsStrict(poly[0], p) {
		return false
	}
	for _, hole := range poly[1:] {
		if onRing(hole, p) || crossingsOdd(hole, p) {
			return false
		}
	}

	return true
}

func ringContainsStrict(ring orb.Ring, p orb.Point) bool {
	if onRing(ring, p) {
		return false
	}

	return crossingsOdd(ring, p)
}

func onRing(ring orb.Ring, p orb.Point) bool {
	for i := 0; i+1 < len(ring); i++ {
		if distanceToSegment(p, ring[i], ring[i+1]) <= onEdgeEps {
			return true
		}
	}

	return false
}

// crossingsOdd is the even-odd ray cast toward +x.
func crossingsOdd(ring orb.Ring, p orb.Point) bool {
	inside := false
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := ring[i], ring[j]
		if (vi[1] > p[1]) != (vj[1] > p[1]) {
			x := (vj[0]-vi[0])*(p[1]-vi[1])/(vj[1]-vi[1]) + vi[0]
			if p[0] < x {
				inside = !inside
			}
		}
	}

	return inside
}

// DistanceToRing returns the minimum degree-space distance from p to any
// segment of the ring.
func DistanceToRing(ring orb.Ring, p orb.Point) float64 {
	best := math.Inf(1)
	for i := 0; i+1 < len(ring); i++ {
		d := distanceToSegment(p, ring[i], ring[i+1])
		if d < best {
			best = d
		}
	}

	return best
}

// distanceToSegment is the point-to-segment Euclidean distance in the
// coordinate plane.
func distanceToSegment(p, a, b orb.Point) float64 {
	abx, aby := b[0]-a[0], b[1]-a[1]
	apx, apy := p[0]-a[0], p[1]-a[1]
	denom := abx*abx + aby*aby
	t := 0.0
	if denom > 0 {
		t = (apx*abx + apy*aby) / denom
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	cx, cy := a[0]+t*abx, a[1]+t*aby

	return math.Hypot(p[0]-cx, p[1]-cy)
}
