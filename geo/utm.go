package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// WGS84 ellipsoid and transverse Mercator constants.
const (
	wgs84A  = 6378137.0         // semi-major axis, meters
	wgs84F  = 1 / 298.257223563 // flattening
	utmK0   = 0.9996            // central meridian scale
	utmFE   = 500000.0          // false easting
	utmFNSo = 10000000.0        // false northing, southern hemisphere
)

// utmZone returns the UTM zone number for a longitude: floor((lon+180)/6)+1.
func utmZone(lon float64) int {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone < 1 {
		zone = 1
	}
	if zone > 60 {
		zone = 60
	}

	return zone
}

// utmProject converts a WGS84 point into UTM easting/northing for the given
// zone and hemisphere, using the standard series expansion of the transverse
// Mercator projection.
func utmProject(p orb.Point, zone int, south bool) (x, y float64) {
	e2 := wgs84F * (2 - wgs84F)
	ep2 := e2 / (1 - e2)

	lat := p.Lat() * math.Pi / 180
	lon := p.Lon() * math.Pi / 180
	lon0 := float64((zone-1)*6-180+3) * math.Pi / 180

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	tanLat := sinLat / cosLat

	n := wgs84A / math.Sqrt(1-e2*sinLat*sinLat)
	t := tanLat * tanLat
	c := ep2 * cosLat * cosLat
	a := cosLat * (lon - lon0)

	e4 := e2 * e2
	e6 := e4 * e2
	m := wgs84A * ((1-e2/4-3*e4/64-5*e6/256)*lat -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*lat) +
		(15*e4/256+45*e6/1024)*math.Sin(4*lat) -
		(35*e6/3072)*math.Sin(6*lat))

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	x = utmK0*n*(a+(1-t+c)*a3/6+(5-18*t+t*t+72*c-58*ep2)*a5/120) + utmFE
	y = utmK0 * (m + n*tanLat*(a2/2+(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*ep2)*a6/720))
	if south {
		y += utmFNSo
	}

	return x, y
}

// projectRing maps a ring into the UTM plane. It reports ok=false when any
// projected coordinate is not finite or the latitude is outside the band
// where the series expansion holds.
func projectRing(ring orb.Ring, zone int, south bool) ([]orb.Point, bool) {
	out := make([]orb.Point, len(ring))
	for i, p := range ring {
		if math.Abs(p.Lat()) >= 84 {
			return nil, false
		}
		x, y := utmProject(p, zone, south)
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, false
		}
		out[i] = orb.Point{x, y}
	}

	return out, true
}
