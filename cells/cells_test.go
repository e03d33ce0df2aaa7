package cells_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/tgergo1/superblocker/arterial"
	"github.com/tgergo1/superblocker/cells"
	"github.com/tgergo1/superblocker/network"
	"github.com/tgergo1/superblocker/plan"
)

// fixture assembles a graph plus a hand-picked arterial selection.
type fixture struct {
	t      *testing.T
	g      *network.Graph
	sel    *arterial.Selection
	nextID network.NodeID
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		t:   t,
		g:   network.NewGraph(),
		sel: &arterial.Selection{Edges: make(map[network.EdgeKey]struct{})},
	}
}

func (f *fixture) node(lon, lat float64) network.NodeID {
	f.nextID++
	require.NoError(f.t, f.g.AddNode(network.Node{ID: f.nextID, Lon: lon, Lat: lat}))

	return f.nextID
}

func (f *fixture) edge(u, v network.NodeID, hw network.Highway, art bool, osm int64) network.EdgeKey {
	k := network.EdgeKey{U: u, V: v, Key: f.g.NextKey(u, v)}
	require.NoError(f.t, f.g.AddEdge(network.Edge{
		EdgeKey: k, LengthM: 100, Highway: hw, OSMIDs: []int64{osm},
	}))
	if art {
		f.sel.Edges[k] = struct{}{}
	}

	return k
}

// ClassifySuite exercises boundary/interior classification and entry nodes.
type ClassifySuite struct {
	suite.Suite
}

func (s *ClassifySuite) TestClassifySquare() {
	f := newFixture(s.T())
	// Square cell (0,0)..(0.003,0.003) at the equator (~11 ha).
	poly := orb.Polygon{orb.Ring{
		{0, 0}, {0.003, 0}, {0.003, 0.003}, {0, 0.003}, {0, 0},
	}}

	// Arterial reaching the ring and ending at an interior junction.
	outside := f.node(-0.001, 0.0015)
	junction := f.node(0.0015, 0.0015)
	boundaryKey := f.edge(outside, junction, network.Primary, true, 11)

	// Interior residential hanging off the junction.
	inner := f.node(0.0015, 0.0025)
	interiorKey := f.edge(junction, inner, network.Residential, false, 12)

	// Interior edge whose far endpoint hugs the ring within the buffer.
	hugging := f.node(0.00299995, 0.0015)
	f.edge(inner, hugging, network.Residential, false, 13)

	// Fully outside edge: ignored entirely.
	farA := f.node(0.02, 0.02)
	farB := f.node(0.021, 0.02)
	f.edge(farA, farB, network.Residential, false, 14)

	cls, err := cells.NewClassifier(f.g, f.sel)
	require.NoError(s.T(), err)
	cell := cls.Classify(poly)

	require.InDelta(s.T(), 11.1, cell.AreaHectares, 0.5)
	require.Equal(s.T(), []network.EdgeKey{boundaryKey}, cell.BoundaryEdges)
	require.Contains(s.T(), cell.InteriorEdges, interiorKey)
	require.NotContains(s.T(), cell.InteriorEdges, boundaryKey)

	// junction joins boundary and interior; hugging sits on the ring buffer.
	require.Equal(s.T(), []network.NodeID{junction, hugging}, cell.EntryNodes)
}

func (s *ClassifySuite) TestNilInputs() {
	_, err := cells.NewClassifier(nil, &arterial.Selection{})
	require.ErrorIs(s.T(), err, cells.ErrNilGraph)
	_, err = cells.NewClassifier(network.NewGraph(), nil)
	require.ErrorIs(s.T(), err, cells.ErrNilSelection)
}

func TestClassifySuite(t *testing.T) {
	suite.Run(t, new(ClassifySuite))
}

// TestBuildQuadrants polygonizes an arterial cross inside the bbox into
// four cells with interior streets.
func TestBuildQuadrants(t *testing.T) {
	f := newFixture(t)
	bbox := plan.BoundingBox{North: 0.01, South: 0, East: 0.01, West: 0}

	// Arterial cross through the middle, meeting at the center node.
	west := f.node(0, 0.005)
	center := f.node(0.005, 0.005)
	east := f.node(0.01, 0.005)
	south := f.node(0.005, 0)
	north := f.node(0.005, 0.01)
	f.edge(west, center, network.Primary, true, 21)
	f.edge(center, east, network.Primary, true, 22)
	f.edge(south, center, network.Secondary, true, 23)
	f.edge(center, north, network.Secondary, true, 24)

	// One residential street per quadrant.
	for _, q := range [][2]float64{{0.002, 0.002}, {0.008, 0.002}, {0.002, 0.008}, {0.008, 0.008}} {
		a := f.node(q[0], q[1])
		b := f.node(q[0]+0.001, q[1])
		f.edge(a, b, network.Residential, false, 30)
	}

	built, _, err := cells.Build(f.g, f.sel, bbox)
	require.NoError(t, err)
	require.Len(t, built, 4)
	for _, c := range built {
		require.InDelta(t, 30.7, c.AreaHectares, 1.5)
		require.Len(t, c.InteriorEdges, 1)
	}
}

// TestBuildDegenerate surfaces plan.ErrDegenerate when nothing encloses.
func TestBuildDegenerate(t *testing.T) {
	f := newFixture(t)
	a := f.node(0.001, 0.001)
	b := f.node(0.002, 0.001)
	f.edge(a, b, network.Residential, false, 1)

	// A bbox whose rectangle alone polygonizes into one face that is
	// rejected by the area ceiling (~123 ha > 100 ha).
	bbox := plan.BoundingBox{North: 0.01, South: 0, East: 0.01, West: 0}
	_, _, err := cells.Build(f.g, f.sel, bbox)
	require.ErrorIs(t, err, plan.ErrDegenerate)
}

// SizerSuite exercises merge and split rounds.
type SizerSuite struct {
	suite.Suite
}

func (s *SizerSuite) classifier() (*fixture, *cells.Classifier) {
	f := newFixture(s.T())
	cls, err := cells.NewClassifier(f.g, f.sel)
	require.NoError(s.T(), err)

	return f, cls
}

func square(minx, miny, maxx, maxy float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minx, miny}, {maxx, miny}, {maxx, maxy}, {minx, maxy}, {minx, miny},
	}}
}

// TestMergeSmallNeighbors folds two under-minimum cells into one.
func (s *SizerSuite) TestMergeSmallNeighbors() {
	_, cls := s.classifier()

	// Two ~2.2 ha squares sharing an edge; both below min=6.
	a := cls.Classify(square(0, 0, 0.0015, 0.0012))
	b := cls.Classify(square(0.0015, 0, 0.003, 0.0012))

	out, err := cells.Resize([]cells.Cell{a, b}, cls, cells.DefaultSizerOptions())
	require.NoError(s.T(), err)
	require.Len(s.T(), out, 1)
	require.InDelta(s.T(), a.AreaHectares+b.AreaHectares, out[0].AreaHectares, 0.2)
}

// TestMergeRespectsMaxArea leaves a small cell alone when every combination
// would overshoot the ceiling.
func (s *SizerSuite) TestMergeRespectsMaxArea() {
	_, cls := s.classifier()

	small := cls.Classify(square(0, 0, 0.0015, 0.0012))          // ~2.2 ha
	huge := cls.Classify(square(0.0015, 0, 0.0115, 0.0016))      // ~19.7 ha
	opts := cells.DefaultSizerOptions()                          // max 20
	out, err := cells.Resize([]cells.Cell{small, huge}, cls, opts)
	require.NoError(s.T(), err)
	require.Len(s.T(), out, 2)
}

// TestSplitLargeCell cuts an oversized cell along its interior street.
func (s *SizerSuite) TestSplitLargeCell() {
	f, _ := s.classifier()

	// ~36.9 ha cell with a vertical tertiary in the middle. The tertiary is
	// deliberately absent from the arterial selection so it stays interior.
	u := f.node(0.003, 0.002)
	v := f.node(0.003, 0.003)
	f.edge(u, v, network.Tertiary, false, 77)

	cls, err := cells.NewClassifier(f.g, f.sel)
	require.NoError(s.T(), err)
	big := cls.Classify(square(0, 0, 0.006, 0.005))
	require.Len(s.T(), big.InteriorEdges, 1)

	out, err := cells.Resize([]cells.Cell{big}, cls, cells.DefaultSizerOptions())
	require.NoError(s.T(), err)
	require.Len(s.T(), out, 2)
	require.InDelta(s.T(), out[0].AreaHectares, out[1].AreaHectares, 0.5)
	require.GreaterOrEqual(s.T(), out[0].AreaHectares, 6.0)
	require.GreaterOrEqual(s.T(), out[1].AreaHectares, 6.0)
}

// TestSplitNeedsWorthyStreet refuses to split along residential interiors.
func (s *SizerSuite) TestSplitNeedsWorthyStreet() {
	f, _ := s.classifier()
	u := f.node(0.003, 0.002)
	v := f.node(0.003, 0.003)
	f.edge(u, v, network.Residential, false, 78)

	cls, err := cells.NewClassifier(f.g, f.sel)
	require.NoError(s.T(), err)
	big := cls.Classify(square(0, 0, 0.006, 0.005))

	out, err := cells.Resize([]cells.Cell{big}, cls, cells.DefaultSizerOptions())
	require.NoError(s.T(), err)
	require.Len(s.T(), out, 1)
}

func TestSizerSuite(t *testing.T) {
	suite.Run(t, new(SizerSuite))
}
