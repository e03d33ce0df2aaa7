package plan

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	geojson "github.com/paulmach/go.geojson"
)

// Error kinds of the request path, mapped to HTTP statuses by the server.
var (
	// ErrInvalidBoundingBox indicates a bbox outside the request contract.
	ErrInvalidBoundingBox = errors.New("plan: invalid bounding box")

	// ErrUpstreamUnavailable indicates the external network source failed.
	ErrUpstreamUnavailable = errors.New("plan: upstream source unavailable")

	// ErrTimeout indicates an upstream or per-stage deadline was exceeded.
	ErrTimeout = errors.New("plan: deadline exceeded")

	// ErrEmptyNetwork indicates the fetched street network has no edges.
	ErrEmptyNetwork = errors.New("plan: street network is empty")

	// ErrDegenerate indicates polygonization produced no usable cells.
	ErrDegenerate = errors.New("plan: degenerate partition")
)

// MaxBBoxSpanDegrees caps each bbox axis (~50 km) to keep the centrality
// and polygonization passes tractable.
const MaxBBoxSpanDegrees = 0.5

// BoundingBox is a geographic request window.
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Validate enforces the request contract: latitudes in [-90,90], longitudes
// in [-180,180], north>south, east>west, span at most MaxBBoxSpanDegrees per
// axis. Violations wrap ErrInvalidBoundingBox.
func (b BoundingBox) Validate() error {
	switch {
	case b.North < -90 || b.North > 90 || b.South < -90 || b.South > 90:
		return fmt.Errorf("%w: latitude out of range", ErrInvalidBoundingBox)
	case b.East < -180 || b.East > 180 || b.West < -180 || b.West > 180:
		return fmt.Errorf("%w: longitude out of range", ErrInvalidBoundingBox)
	case b.North <= b.South:
		return fmt.Errorf("%w: north must exceed south", ErrInvalidBoundingBox)
	case b.East <= b.West:
		return fmt.Errorf("%w: east must exceed west", ErrInvalidBoundingBox)
	case b.North-b.South > MaxBBoxSpanDegrees || b.East-b.West > MaxBBoxSpanDegrees:
		return fmt.Errorf("%w: span exceeds %g degrees", ErrInvalidBoundingBox, MaxBBoxSpanDegrees)
	}

	return nil
}

// CanonicalKey renders the bbox as the cache key: fixed-precision,
// order-stable.
func (b BoundingBox) CanonicalKey() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.North, b.South, b.East, b.West)
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ModificationKind tags the street-modification variant.
type ModificationKind string

// Modification kinds.
const (
	ModalFilter ModificationKind = "modal_filter"
	OneWay      ModificationKind = "one_way"
	FullClosure ModificationKind = "full_closure"
)

// Direction is the preserved direction of a one-way conversion.
type Direction string

// One-way directions.
const (
	UToV Direction = "u_to_v"
	VToU Direction = "v_to_u"
)

// Modification is one declarative change to an interior edge. Immutable
// once emitted by the enforcer.
type Modification struct {
	U              int64            `json:"u"`
	V              int64            `json:"v"`
	Key            int              `json:"key"`
	OSMID          int64            `json:"osm_id"`
	Name           string           `json:"name,omitempty"`
	Kind           ModificationKind `json:"modification_type"`
	Direction      Direction        `json:"direction,omitempty"`
	FilterLocation *Coordinates     `json:"filter_location,omitempty"`
	Rationale      string           `json:"rationale,omitempty"`
}

// EntryPoint is a sectorized entry node of a superblock.
type EntryPoint struct {
	NodeID      int64       `json:"node_id"`
	Sector      int         `json:"sector"`
	Coordinates Coordinates `json:"coordinates"`
}

// UnreachableAddress is an interior node with no path from any entry after
// modifications.
type UnreachableAddress struct {
	NodeID             int64       `json:"node_id"`
	Coordinates        Coordinates `json:"coordinates"`
	NearestEntrySector int         `json:"nearest_entry_sector"`
	Reason             string      `json:"reason"`
}

// Superblock is a finished cell with its validated modification plan.
type Superblock struct {
	ID                    string               `json:"id"`
	Geometry              *geojson.Geometry    `json:"geometry"`
	AreaHectares          float64              `json:"area_hectares"`
	NumSectors            int                  `json:"num_sectors"`
	BoundaryRoads         []int64              `json:"boundary_roads"`
	EntryPoints           []EntryPoint         `json:"entry_points"`
	Modifications         []Modification       `json:"modifications"`
	ConstraintValidated   bool                 `json:"constraint_validated"`
	AllAddressesReachable bool                 `json:"all_addresses_reachable"`
	UnreachableAddresses  []UnreachableAddress `json:"unreachable_addresses"`
	InteriorRoadsCount    int                  `json:"interior_roads_count"`
	ModalFilterCount      int                  `json:"modal_filter_count"`
	OneWayConversionCount int                  `json:"one_way_conversion_count"`
}

// Partition is the complete result for one bounding box.
type Partition struct {
	Superblocks               []Superblock `json:"superblocks"`
	ArterialNetwork           []int64      `json:"arterial_network"`
	BBox                      BoundingBox  `json:"bbox"`
	TotalAreaHectares         float64      `json:"total_area_hectares"`
	CoveragePercent           float64      `json:"coverage_percent"`
	TotalSuperblocks          int          `json:"total_superblocks"`
	TotalModalFilters         int          `json:"total_modal_filters"`
	TotalOneWayConversions    int          `json:"total_one_way_conversions"`
	TotalUnreachableAddresses int          `json:"total_unreachable_addresses"`
}

// NewSuperblockID derives a stable-prefix identifier: the cell index for
// client-side ordering plus a fresh random suffix.
func NewSuperblockID(index int) string {
	u := uuid.New()

	return fmt.Sprintf("sb_%d_%s", index, hex.EncodeToString(u[:4]))
}
