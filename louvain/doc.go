// Package louvain implements Louvain community detection on weighted
// undirected graphs.
//
// The algorithm greedily maximizes modularity in two alternating phases:
//
//  1. Local move: every vertex is offered to the communities of its
//     neighbors, applying the relocation with the largest strictly
//     positive modularity gain, until a full pass applies no move.
//  2. Aggregation: each community collapses into a single vertex whose
//     internal weight becomes a self-loop, and phase 1 restarts on the
//     smaller graph.
//
// Levels repeat until aggregation no longer shrinks the graph, then the
// partition is unfolded back to the input vertices. Runs are
// deterministic: vertices are visited in input order (or in a seeded
// shuffle), and gain ties resolve to the lowest community label.
//
// # Usage
//
//	result, err := louvain.Run(g, func(o *louvain.Options) {
//	    o.Resolution = 1.2
//	})
//	if err != nil {
//	    return err
//	}
//	for v, c := range result.Labels {
//	    fmt.Printf("vertex %d -> community %d\n", v, c)
//	}
//
// Labels are dense and numbered by first appearance in vertex order, so
// identical inputs always produce identical labelings.
package louvain
