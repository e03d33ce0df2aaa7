// Package pipeline drives the partitioning run end to end and owns the
// request-scoped resources around it.
//
// The orchestrator takes a prepared street graph and walks the linear
// stages — centrality, arterial identification, cell building, size
// optimization, per-cell constraint enforcement, statistics — emitting a
// progress event at each named stage. Per-cell enforcement fans out over a
// bounded worker pool (at most four workers); completion is unordered but
// results are stitched back by cell index, so the superblock ordering is
// stable. A cell that panics or fails enforcement degrades to a "simple"
// superblock with no modifications instead of failing the run.
//
// ProgressQueue is the bounded single-producer/single-consumer transport
// between the run and the request handler: a full queue drops events
// rather than blocking the pipeline, and a timer injects a synthetic
// heartbeat when no real event has appeared for a while. Cache is the
// single process-wide mutable map of the module, an RW-locked insert-only
// store of finished partitions keyed by canonical bbox.
package pipeline
