package server

import (
	"context"
	"fmt"
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"

	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
)

// NetworkSource produces the street graph for a bounding box. The OSM
// fetcher behind the production deployment satisfies this; FileSource
// serves the same shape from disk.
type NetworkSource interface {
	StreetNetwork(ctx context.Context, bbox plan.BoundingBox) (*network.Graph, error)
}

// FileSource loads a street-network GeoJSON dump once and serves bbox
// cutouts from it. The dump format is the same FeatureCollection the
// /partition response emits: one LineString feature per directed edge with
// u, v, key, osm_id, road_type, lanes, oneway, length_m, and name
// properties.
type FileSource struct {
	fc *geojson.FeatureCollection
}

// NewFileSource parses the dump. Failures wrap plan.ErrUpstreamUnavailable
// so the handler maps them to 502 like any other upstream fault.
func NewFileSource(path string) (*FileSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plan.ErrUpstreamUnavailable, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", plan.ErrUpstreamUnavailable, path, err)
	}

	return &FileSource{fc: fc}, nil
}

// StreetNetwork materializes the graph restricted to features intersecting
// the bbox.
func (fs *FileSource) StreetNetwork(ctx context.Context, bbox plan.BoundingBox) (*network.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	window := orb.Bound{
		Min: orb.Point{bbox.West, bbox.South},
		Max: orb.Point{bbox.East, bbox.North},
	}

	g := network.NewGraph()
	for _, f := range fs.fc.Features {
		if f.Geometry == nil || !f.Geometry.IsLineString() {
			continue
		}
		line := make(orb.LineString, 0, len(f.Geometry.LineString))
		for _, c := range f.Geometry.LineString {
			if len(c) < 2 {
				continue
			}
			line = append(line, orb.Point{c[0], c[1]})
		}
		if len(line) < 2 || !line.Bound().Intersects(window) {
			continue
		}

		u := network.NodeID(intProp(f, "u"))
		v := network.NodeID(intProp(f, "v"))
		if u == 0 || v == 0 {
			continue
		}
		first, last := line[0], line[len(line)-1]
		if err := g.AddNode(network.Node{ID: u, Lon: first.Lon(), Lat: first.Lat()}); err != nil {
			return nil, fmt.Errorf("%w: %v", plan.ErrUpstreamUnavailable, err)
		}
		if err := g.AddNode(network.Node{ID: v, Lon: last.Lon(), Lat: last.Lat()}); err != nil {
			return nil, fmt.Errorf("%w: %v", plan.ErrUpstreamUnavailable, err)
		}

		edge := network.Edge{
			EdgeKey:  network.EdgeKey{U: u, V: v, Key: int(intProp(f, "key"))},
			Geometry: line,
			LengthM:  floatProp(f, "length_m"),
			Highway:  network.Highway(stringProp(f, "road_type")),
			Lanes:    int(intProp(f, "lanes")),
			OneWay:   boolProp(f, "oneway"),
			Name:     stringProp(f, "name"),
		}
		if id := intProp(f, "osm_id"); id > 0 {
			edge.OSMIDs = []int64{id}
		}
		if err := g.AddEdge(edge); err != nil {
			return nil, fmt.Errorf("%w: %v", plan.ErrUpstreamUnavailable, err)
		}
	}

	return g, nil
}

// Property coercion: GeoJSON round-trips numbers as float64 and may carry
// integers from other producers.
func intProp(f *geojson.Feature, key string) int64 {
	switch v := f.Properties[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

func floatProp(f *geojson.Feature, key string) float64 {
	switch v := f.Properties[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func stringProp(f *geojson.Feature, key string) string {
	if v, ok := f.Properties[key].(string); ok {
		return v
	}

	return ""
}

func boolProp(f *geojson.Feature, key string) bool {
	if v, ok := f.Properties[key].(bool); ok {
		return v
	}

	return false
}
