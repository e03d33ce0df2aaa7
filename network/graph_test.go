package network_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/tgergo1/superblocker/network"
)

// GraphSuite covers catalog bookkeeping, parallel edges, and subgraphing.
type GraphSuite struct {
	suite.Suite
	g *network.Graph
}

func (s *GraphSuite) SetupTest() {
	s.g = network.NewGraph()
	for id, pt := range map[network.NodeID][2]float64{
		1: {19.04, 47.50},
		2: {19.05, 47.50},
		3: {19.05, 47.51},
	} {
		require.NoError(s.T(), s.g.AddNode(network.Node{ID: id, Lon: pt[0], Lat: pt[1]}))
	}
}

func (s *GraphSuite) addEdge(u, v network.NodeID, key int) {
	require.NoError(s.T(), s.g.AddEdge(network.Edge{
		EdgeKey: network.EdgeKey{U: u, V: v, Key: key},
		LengthM: 100,
		Highway: network.Residential,
	}))
}

// TestAddEdgeValidation verifies endpoint, duplicate, and length checks.
func (s *GraphSuite) TestAddEdgeValidation() {
	err := s.g.AddEdge(network.Edge{EdgeKey: network.EdgeKey{U: 1, V: 99}})
	require.ErrorIs(s.T(), err, network.ErrNodeNotFound)

	s.addEdge(1, 2, 0)
	err = s.g.AddEdge(network.Edge{EdgeKey: network.EdgeKey{U: 1, V: 2, Key: 0}})
	require.ErrorIs(s.T(), err, network.ErrDuplicateEdge)

	err = s.g.AddEdge(network.Edge{EdgeKey: network.EdgeKey{U: 1, V: 2, Key: 1}, LengthM: -1})
	require.ErrorIs(s.T(), err, network.ErrBadLength)
}

// TestCoordinateRange rejects nodes outside the WGS84 envelope.
func (s *GraphSuite) TestCoordinateRange() {
	err := s.g.AddNode(network.Node{ID: 9, Lon: 181, Lat: 0})
	require.ErrorIs(s.T(), err, network.ErrBadCoordinate)
	err = s.g.AddNode(network.Node{ID: 9, Lon: 0, Lat: -91})
	require.ErrorIs(s.T(), err, network.ErrBadCoordinate)
}

// TestParallelEdges keeps per-key identity between the same ordered pair.
func (s *GraphSuite) TestParallelEdges() {
	s.addEdge(1, 2, 0)
	require.Equal(s.T(), 1, s.g.NextKey(1, 2))
	s.addEdge(1, 2, 1)

	between := s.g.EdgesBetween(1, 2)
	require.Len(s.T(), between, 2)
	require.Equal(s.T(), 0, between[0].Key)
	require.Equal(s.T(), 1, between[1].Key)

	require.NoError(s.T(), s.g.RemoveEdge(network.EdgeKey{U: 1, V: 2, Key: 0}))
	require.True(s.T(), s.g.HasEdge(1, 2))
	require.Len(s.T(), s.g.EdgesBetween(1, 2), 1)
}

// TestSyntheticGeometry fills missing geometry with the straight segment.
func (s *GraphSuite) TestSyntheticGeometry() {
	s.addEdge(1, 2, 0)
	e, ok := s.g.Edge(network.EdgeKey{U: 1, V: 2, Key: 0})
	require.True(s.T(), ok)
	require.Equal(s.T(), orb.LineString{{19.04, 47.50}, {19.05, 47.50}}, e.Geometry)
}

// TestAdjacencyIndices checks out/in edge listings.
func (s *GraphSuite) TestAdjacencyIndices() {
	s.addEdge(1, 2, 0)
	s.addEdge(2, 3, 0)
	s.addEdge(3, 2, 0)

	require.Len(s.T(), s.g.OutEdges(2), 1)
	require.Len(s.T(), s.g.InEdges(2), 2)
	require.Empty(s.T(), s.g.InEdges(1))
}

// TestCloneIndependence mutates a clone and verifies the parent is untouched.
func (s *GraphSuite) TestCloneIndependence() {
	s.addEdge(1, 2, 0)
	c := s.g.Clone()
	require.NoError(s.T(), c.RemoveEdge(network.EdgeKey{U: 1, V: 2, Key: 0}))
	ce, _ := s.g.Edge(network.EdgeKey{U: 1, V: 2, Key: 0})
	require.NotNil(s.T(), ce)

	// Attribute writes on the clone must not leak back.
	s.addEdge(2, 3, 0)
	c2 := s.g.Clone()
	e, _ := c2.Edge(network.EdgeKey{U: 2, V: 3, Key: 0})
	e.VehicleBlocked = true
	orig, _ := s.g.Edge(network.EdgeKey{U: 2, V: 3, Key: 0})
	require.False(s.T(), orig.VehicleBlocked)
}

// TestSubgraph extracts an edge set with copied node attributes.
func (s *GraphSuite) TestSubgraph() {
	s.addEdge(1, 2, 0)
	s.addEdge(2, 3, 0)

	sub := s.g.Subgraph([]network.EdgeKey{{U: 2, V: 3, Key: 0}})
	require.Equal(s.T(), 2, sub.NodeCount())
	require.Equal(s.T(), 1, sub.EdgeCount())
	require.False(s.T(), sub.HasNode(1))

	n, ok := sub.Node(3)
	require.True(s.T(), ok)
	require.Equal(s.T(), 47.51, n.Lat)
}

// TestDeterministicOrdering checks Edges() and Nodes() are sorted.
func (s *GraphSuite) TestDeterministicOrdering() {
	s.addEdge(2, 3, 0)
	s.addEdge(1, 2, 1)
	s.addEdge(1, 2, 0)

	edges := s.g.Edges()
	require.Equal(s.T(), network.EdgeKey{U: 1, V: 2, Key: 0}, edges[0].EdgeKey)
	require.Equal(s.T(), network.EdgeKey{U: 1, V: 2, Key: 1}, edges[1].EdgeKey)
	require.Equal(s.T(), network.EdgeKey{U: 2, V: 3, Key: 0}, edges[2].EdgeKey)

	ids := s.g.NodeIDs()
	require.Equal(s.T(), []network.NodeID{1, 2, 3}, ids)
}

func TestGraphSuite(t *testing.T) {
	suite.Run(t, new(GraphSuite))
}

// TestNormalizeOSMIDs covers flattening, dedup, and non-positive discard.
func TestNormalizeOSMIDs(t *testing.T) {
	require.Nil(t, network.NormalizeOSMIDs(nil))
	require.Equal(t, []int64{12, 7}, network.NormalizeOSMIDs([]int64{12, -3, 12, 0, 7}))
}

// TestHierarchy spot-checks the rank table and the unknown-class default.
func TestHierarchy(t *testing.T) {
	require.Equal(t, 1, network.Motorway.Hierarchy())
	require.Equal(t, 5, network.TertiaryLink.Hierarchy())
	require.Equal(t, 9, network.Service.Hierarchy())
	require.Equal(t, network.DefaultHierarchy, network.Pedestrian.Hierarchy())

	require.True(t, network.SecondaryLink.IsArterialClass())
	require.False(t, network.Residential.IsArterialClass())
}
