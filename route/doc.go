// Package route computes vehicle routes over a partitioned street network.
//
// A Router is built once from the full street graph and a finished
// Partition: it clones the graph, replays every superblock's modification
// plan onto the clone, tags each interior edge with its containing
// superblock, and keeps the superblock polygons for point containment. The
// Partition is shared read-only; the Router never mutates it.
//
// Routing follows the two-superblock-plus-arterials policy. Endpoints in the
// same superblock route directly. Otherwise the route has three legs: out of
// the origin superblock to its nearest entry, an arterial leg where
// non-arterial edges cost ten times their length, and from the destination
// superblock's entry down to the destination — each restricted leg confined
// to its own superblock. Modal-filtered edges are never traversed. With
// respect_superblocks disabled a single interior-allowed search runs
// end-to-end.
package route
