package plan

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"

	"github.com/tgergo1/superblocker/network"
)

// PolygonGeometry converts an orb polygon into its GeoJSON form.
func PolygonGeometry(poly orb.Polygon) *geojson.Geometry {
	rings := make([][][]float64, len(poly))
	for i, ring := range poly {
		coords := make([][]float64, len(ring))
		for j, p := range ring {
			coords[j] = []float64{p[0], p[1]}
		}
		rings[i] = coords
	}

	return geojson.NewPolygonGeometry(rings)
}

// GeometryPolygon converts a GeoJSON polygon geometry back into orb form.
// Returns ok=false for non-polygon geometries.
func GeometryPolygon(g *geojson.Geometry) (orb.Polygon, bool) {
	if g == nil || !g.IsPolygon() {
		return nil, false
	}
	poly := make(orb.Polygon, len(g.Polygon))
	for i, ring := range g.Polygon {
		r := make(orb.Ring, len(ring))
		for j, c := range ring {
			if len(c) < 2 {
				return nil, false
			}
			r[j] = orb.Point{c[0], c[1]}
		}
		poly[i] = r
	}

	return poly, true
}

// NetworkFeatureCollection renders the street network as one LineString
// feature per edge, carrying the attributes the frontend plots: osm id,
// road class, lanes, one-way flag, length, and centrality.
func NetworkFeatureCollection(g *network.Graph) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range g.Edges() {
		coords := make([][]float64, len(e.Geometry))
		for i, p := range e.Geometry {
			coords[i] = []float64{p[0], p[1]}
		}
		f := geojson.NewFeature(geojson.NewLineStringGeometry(coords))
		var osmID int64
		if len(e.OSMIDs) > 0 {
			osmID = e.OSMIDs[0]
		}
		f.SetProperty("osm_id", osmID)
		f.SetProperty("u", int64(e.U))
		f.SetProperty("v", int64(e.V))
		f.SetProperty("key", e.Key)
		f.SetProperty("road_type", string(e.Highway))
		f.SetProperty("lanes", e.Lanes)
		f.SetProperty("oneway", e.OneWay)
		f.SetProperty("length_m", e.LengthM)
		f.SetProperty("centrality", e.Centrality)
		if e.Name != "" {
			f.SetProperty("name", e.Name)
		}
		fc.AddFeature(f)
	}

	return fc
}
