// Package superblocker is the computational core of an urban superblock
// planner.
//
// Given a bounding box of a city street network, it partitions the enclosed
// streets into non-overlapping superblock cells bounded by arterial roads,
// plans the minimum set of street modifications inside each cell so that
// through-traffic entering from one compass sector can never exit through a
// different one, and routes across the modified network.
//
// Package map:
//
//	network    – directed street multigraph with geometric attributes
//	geo        – planar geometry kernel: UTM areas, polygonization, splits
//	centrality – weighted edge betweenness with source sampling
//	arterial   – arterial selection (road class ∪ high centrality)
//	cells      – cell building and size optimization
//	constraint – sectorization, minimum-cut enforcement, reachability
//	route      – superblock-aware A* routing
//	plan       – shared data model and wire types
//	pipeline   – orchestration, progress transport, partition cache
//	server     – HTTP endpoints (fasthttp, SSE progress stream)
package superblocker
