package server_test

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
	"github.com/tgergo1/superblocker/server"
)

// stubSource serves a fixed graph or error.
type stubSource struct {
	g   *network.Graph
	err error
}

func (s *stubSource) StreetNetwork(_ context.Context, _ plan.BoundingBox) (*network.Graph, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.g, nil
}

// grid3 builds the 3×3 residential lattice with 0.001° spacing.
func grid3(t *testing.T) *network.Graph {
	t.Helper()
	g := network.NewGraph()
	id := func(row, col int) network.NodeID { return network.NodeID(row*3 + col + 1) }
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			require.NoError(t, g.AddNode(network.Node{
				ID: id(row, col), Lon: float64(col) * 0.001, Lat: float64(row) * 0.001,
			}))
		}
	}
	osm := int64(100)
	addBoth := func(u, v network.NodeID) {
		osm++
		for _, d := range [][2]network.NodeID{{u, v}, {v, u}} {
			require.NoError(t, g.AddEdge(network.Edge{
				EdgeKey: network.EdgeKey{U: d[0], V: d[1]},
				LengthM: 100, Highway: network.Residential, OSMIDs: []int64{osm},
			}))
		}
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			if col < 2 {
				addBoth(id(row, col), id(row, col+1))
			}
			if row < 2 {
				addBoth(id(row, col), id(row+1, col))
			}
		}
	}

	return g
}

// ServerSuite drives the handler over an in-memory listener.
type ServerSuite struct {
	suite.Suite
	ln     *fasthttputil.InmemoryListener
	client *http.Client
}

func (s *ServerSuite) start(src server.NetworkSource) {
	srv := server.New(src, zerolog.Nop(), server.Config{})
	s.ln = fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(s.ln, srv.Handler) }()
	s.client = &http.Client{Transport: &http.Transport{
		DialContext: func(context.Context, string, string) (net.Conn, error) {
			return s.ln.Dial()
		},
	}}
}

func (s *ServerSuite) TearDownTest() {
	if s.ln != nil {
		_ = s.ln.Close()
	}
}

func (s *ServerSuite) post(path string, body interface{}) *http.Response {
	raw, err := json.Marshal(body)
	require.NoError(s.T(), err)
	resp, err := s.client.Post("http://superblocker"+path, "application/json", bytes.NewReader(raw))
	require.NoError(s.T(), err)

	return resp
}

func validBBox() plan.BoundingBox {
	return plan.BoundingBox{North: 0.002, South: 0, East: 0.002, West: 0}
}

func (s *ServerSuite) TestHealth() {
	s.start(&stubSource{g: network.NewGraph()})
	resp, err := s.client.Get("http://superblocker/health")
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(s.T(), "healthy", body["status"])
}

func (s *ServerSuite) TestPartitionInvalidBBox() {
	s.start(&stubSource{g: network.NewGraph()})
	resp := s.post("/partition", plan.PartitionRequest{
		BBox: plan.BoundingBox{North: 0, South: 1, East: 1, West: 0},
	})
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
}

func (s *ServerSuite) TestPartitionUpstreamFailure() {
	s.start(&stubSource{err: plan.ErrUpstreamUnavailable})
	resp := s.post("/partition", plan.PartitionRequest{BBox: validBBox()})
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusBadGateway, resp.StatusCode)
}

func (s *ServerSuite) TestPartitionAndRoute() {
	s.start(&stubSource{g: grid3(s.T())})

	resp := s.post("/partition", plan.PartitionRequest{
		BBox:               validBBox(),
		TargetSizeHectares: 4,
		EnforceConstraints: true,
		NumSectors:         4,
	})
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var body struct {
		Partition             *plan.Partition `json:"partition"`
		StreetNetwork         json.RawMessage `json:"street_network"`
		ProcessingTimeSeconds float64         `json:"processing_time_seconds"`
	}
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(s.T(), body.Partition)
	require.Equal(s.T(), 1, body.Partition.TotalSuperblocks)
	require.NotEmpty(s.T(), body.StreetNetwork)
	require.GreaterOrEqual(s.T(), body.ProcessingTimeSeconds, 0.0)

	// With a cached partition the router answers.
	routeResp := s.post("/route", plan.RouteRequest{
		Origin:      plan.Coordinates{Lat: 0.0001, Lon: 0.0001},
		Destination: plan.Coordinates{Lat: 0.0019, Lon: 0.0019},
	})
	defer routeResp.Body.Close()
	require.Equal(s.T(), http.StatusOK, routeResp.StatusCode)

	var rr plan.RouteResult
	require.NoError(s.T(), json.NewDecoder(routeResp.Body).Decode(&rr))
	require.True(s.T(), rr.Success)
}

func (s *ServerSuite) TestRouteWithoutPartition() {
	s.start(&stubSource{g: grid3(s.T())})
	resp := s.post("/route", plan.RouteRequest{})
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var rr plan.RouteResult
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&rr))
	require.False(s.T(), rr.Success)
	require.NotNil(s.T(), rr.BlockedReason)
}

func (s *ServerSuite) TestPartitionStream() {
	s.start(&stubSource{g: grid3(s.T())})

	resp := s.post("/partition/stream", plan.PartitionRequest{
		BBox:               validBBox(),
		TargetSizeHectares: 4,
		EnforceConstraints: true,
	})
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	require.Contains(s.T(), resp.Header.Get("Content-Type"), "text/event-stream")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var sawProgress, sawComplete bool
	for _, line := range strings.Split(string(raw), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var rec map[string]interface{}
		require.NoError(s.T(), json.Unmarshal([]byte(line[len("data: "):]), &rec))
		switch rec["type"] {
		case plan.ProgressTypeProgress:
			sawProgress = true
		case plan.ProgressTypeComplete:
			sawComplete = true
			require.NotNil(s.T(), rec["partition"])
		}
	}
	require.True(s.T(), sawProgress)
	require.True(s.T(), sawComplete)
}

func (s *ServerSuite) TestUnknownPath() {
	s.start(&stubSource{g: network.NewGraph()})
	resp, err := s.client.Get("http://superblocker/nope")
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

// TestFileSource round-trips a street dump through the GeoJSON exporter.
func TestFileSource(t *testing.T) {
	g := grid3(t)
	fc := plan.NetworkFeatureCollection(g)
	raw, err := fc.MarshalJSON()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "network.geojson")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	src, err := server.NewFileSource(path)
	require.NoError(t, err)

	loaded, err := src.StreetNetwork(context.Background(), validBBox())
	require.NoError(t, err)
	require.Equal(t, g.NodeCount(), loaded.NodeCount())
	require.Equal(t, g.EdgeCount(), loaded.EdgeCount())

	// A window away from the grid yields an empty graph.
	far, err := src.StreetNetwork(context.Background(), plan.BoundingBox{
		North: 10.002, South: 10, East: 10.002, West: 10,
	})
	require.NoError(t, err)
	require.Zero(t, far.EdgeCount())
}

// TestFileSourceMissing wraps the upstream sentinel.
func TestFileSourceMissing(t *testing.T) {
	_, err := server.NewFileSource("/definitely/not/here.geojson")
	require.ErrorIs(t, err, plan.ErrUpstreamUnavailable)
}
