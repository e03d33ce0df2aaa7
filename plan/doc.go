// Package plan defines the data model shared across the partitioning
// pipeline, the router, and the HTTP surface: bounding boxes, street
// modifications, superblocks, the finished partition, and the route and
// progress DTOs.
//
// Everything here is plain data with JSON tags matching the wire contract.
// A Partition and its Superblocks are built once by the pipeline and are
// read-only afterwards; the router and the partition cache share references
// without copying. Error kinds of the request path are declared here as
// sentinels so the server can map them to status codes with errors.Is.
package plan
