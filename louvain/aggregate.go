package louvain

import "github.com/hupe1980/cellclust/simgraph"

// aggregate collapses each community into a single vertex of a new graph.
// Weight between two communities sums over all edges crossing them; weight
// inside a community becomes a self-loop. Total weight, weighted degrees
// per community, and modularity of any coarser partition are preserved.
func aggregate(g *simgraph.Graph, comms []int, n int) *simgraph.Graph {
	edges := make([]simgraph.Edge, 0, g.NumEdges())
	for v := 0; v < g.NumVertices(); v++ {
		targets, weights := g.Neighbors(v)
		for i, t := range targets {
			// Undirected edges appear in both adjacency lists; keep
			// each once. Self-loops appear once already.
			if int(t) < v {
				continue
			}
			edges = append(edges, simgraph.Edge{
				U: uint32(comms[v]),
				V: uint32(comms[t]),
				W: weights[i],
			})
		}
	}
	return simgraph.NewGraph(n, edges)
}
