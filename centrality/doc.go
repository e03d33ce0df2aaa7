// Package centrality computes weighted edge betweenness on the undirected
// simplification of a street multigraph.
//
// Parallel edges between the same node pair collapse to a single undirected
// edge weighted by the minimum segment length of the group; betweenness is
// accumulated with Brandes' algorithm over Dijkstra shortest-path DAGs. For
// large networks the source set is sampled: with at least SampleThreshold
// nodes, k = clamp(⌈SampleFraction·N⌉, SampleMin, SampleMax, ≤N) distinct
// sources are drawn uniformly with a fixed-seed PRNG and the accumulated
// values are averaged over those sources only, so reruns over the same graph
// are reproducible.
//
// The component stays silent except for an optional heartbeat callback fired
// on a fixed interval with the elapsed computation time, which the
// orchestrator forwards into its progress stream so clients can tell slow
// work from a hang.
//
// Complexity: O(k·(E + V log V)) time, O(V + E) memory.
package centrality
