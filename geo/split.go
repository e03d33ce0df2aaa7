package geo

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// ExtendAcross extends the seed polyline's overall direction far enough to
// leave the polygon on both sides and returns the extended polyline. Returns
// ok=false for degenerate (zero-length) seeds.
func ExtendAcross(seed orb.LineString, poly orb.Polygon) (orb.LineString, bool) {
	if len(seed) < 2 {
		return nil, false
	}
	first, last := seed[0], seed[len(seed)-1]
	dx, dy := last[0]-first[0], last[1]-first[1]
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil, false
	}
	dx /= length
	dy /= length

	// The polygon's bounding-box diagonal bounds any chord length.
	b := poly.Bound()
	span := math.Hypot(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])

	ext := make(orb.LineString, 0, len(seed)+2)
	ext = append(ext, orb.Point{first[0] - dx*span, first[1] - dy*span})
	ext = append(ext, seed...)
	ext = append(ext, orb.Point{last[0] + dx*span, last[1] + dy*span})

	return ext, true
}

// SplitPolygon cuts the polygon with the given cut line by re-polygonizing
// the exterior ring together with the line. It succeeds only when the cut
// yields exactly two faces, returning them ordered by descending area.
func SplitPolygon(poly orb.Polygon, cut orb.LineString) ([]orb.Polygon, bool) {
	if len(poly) == 0 {
		return nil, false
	}
	bundle := []orb.LineString{orb.LineString(poly[0]), cut}
	faces, err := Polygonize(bundle)
	if err != nil || len(faces) != 2 {
		return nil, false
	}
	sort.Slice(faces, func(i, j int) bool {
		return math.Abs(signedArea(faces[i][0])) > math.Abs(signedArea(faces[j][0]))
	})

	return faces, true
}
