// Package constraint enforces the superblock enter-exit rule: traffic that
// enters a cell from one compass sector must not be able to exit through a
// different sector.
//
// The enforcer works on a cell's interior multigraph. Entry nodes are first
// assigned to equal angular sectors around the cell centroid. A violation is
// an undirected path between entries of different sectors; for every
// violating sector pair a minimum-capacity cut is computed on the collapsed
// undirected interior graph (super-source/super-sink over the two entry
// groups, Dinic max-flow, frontier of the residual source side). Cut edges
// become street modifications: one-way conversions on tertiary-or-better
// streets (direction chosen by a reachability score), modal filters on the
// rest. The plan is then replayed on a scratch copy and re-checked; whatever
// cross-sector connectivity survives is reported as residual rather than
// silently dropped.
//
// Modifications are idempotent under re-application and commutative with
// respect to ordering; Apply is the single interpreter of their semantics
// shared by validation, reachability reporting, and the router.
package constraint
