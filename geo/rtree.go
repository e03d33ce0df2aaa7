package geo

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// rtreeLeafSize is the bucket capacity of the rectangle tree.
const rtreeLeafSize = 8

// RectIndex is a static rectangle tree over a slice of geometries, built once
// with sort-tile-recursive packing. Query returns the indices of every entry
// whose bounding rectangle intersects the probe rectangle; callers refine the
// candidates with exact geometry tests.
type RectIndex struct {
	root *rectNode
}

type rectNode struct {
	bound    orb.Bound
	children []*rectNode
	entries  []rectEntry // set on leaves only
}

type rectEntry struct {
	bound orb.Bound
	index int
}

// NewRectIndex builds an index over the bounding rectangles of the given
// geometries. Complexity: O(n log n) build, O(log n + k) expected query.
func NewRectIndex(geoms []orb.Geometry) *RectIndex {
	entries := make([]rectEntry, 0, len(geoms))
	for i, g := range geoms {
		if g == nil {
			continue
		}
		entries = append(entries, rectEntry{bound: g.Bound(), index: i})
	}

	return &RectIndex{root: packRect(entries)}
}

// NewRectIndexBounds builds an index directly over bounding rectangles.
func NewRectIndexBounds(bounds []orb.Bound) *RectIndex {
	entries := make([]rectEntry, len(bounds))
	for i, b := range bounds {
		entries[i] = rectEntry{bound: b, index: i}
	}

	return &RectIndex{root: packRect(entries)}
}

func newLeaf(entries []rectEntry) *rectNode {
	leaf := &rectNode{bound: entries[0].bound}
	for _, e := range entries {
		leaf.bound = leaf.bound.Union(e.bound)
		leaf.entries = append(leaf.entries, e)
	}

	return leaf
}

// packRect builds the leaf level with STR tiling and packs parents until a
// single root remains.
func packRect(entries []rectEntry) *rectNode {
	if len(entries) == 0 {
		return nil
	}
	if len(entries) <= rtreeLeafSize {
		return newLeaf(entries)
	}

	// Tile: sort by center x, slice into vertical strips, sort strips by
	// center y, and cut each strip into leaves.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].bound.Center()[0] < entries[j].bound.Center()[0]
	})
	leafCount := (len(entries) + rtreeLeafSize - 1) / rtreeLeafSize
	stripCount := int(math.Ceil(math.Sqrt(float64(leafCount))))
	perStrip := (len(entries) + stripCount - 1) / stripCount

	var nodes []*rectNode
	for s := 0; s < len(entries); s += perStrip {
		end := s + perStrip
		if end > len(entries) {
			end = len(entries)
		}
		strip := entries[s:end]
		sort.Slice(strip, func(i, j int) bool {
			return strip[i].bound.Center()[1] < strip[j].bound.Center()[1]
		})
		for l := 0; l < len(strip); l += rtreeLeafSize {
			lend := l + rtreeLeafSize
			if lend > len(strip) {
				lend = len(strip)
			}
			nodes = append(nodes, newLeaf(strip[l:lend]))
		}
	}

	// Pack the levels above.
	for len(nodes) > 1 {
		var parents []*rectNode
		for i := 0; i < len(nodes); i += rtreeLeafSize {
			end := i + rtreeLeafSize
			if end > len(nodes) {
				end = len(nodes)
			}
			parent := &rectNode{bound: nodes[i].bound}
			for _, child := range nodes[i:end] {
				parent.bound = parent.bound.Union(child.bound)
				parent.children = append(parent.children, child)
			}
			parents = append(parents, parent)
		}
		nodes = parents
	}

	return nodes[0]
}

// Query appends to dst the indices of entries whose rectangle intersects b
// and returns the result in ascending index order.
func (idx *RectIndex) Query(b orb.Bound, dst []int) []int {
	if idx == nil || idx.root == nil {
		return dst
	}
	dst = queryRect(idx.root, b, dst)
	sort.Ints(dst)

	return dst
}

func queryRect(n *rectNode, b orb.Bound, dst []int) []int {
	if !n.bound.Intersects(b) {
		return dst
	}
	if n.entries != nil {
		for _, e := range n.entries {
			if e.bound.Intersects(b) {
				dst = append(dst, e.index)
			}
		}

		return dst
	}
	for _, child := range n.children {
		dst = queryRect(child, b, dst)
	}

	return dst
}
