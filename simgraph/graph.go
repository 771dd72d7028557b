// Package simgraph turns per-cell neighbor lists into the weighted
// undirected similarity graph that community detection runs on. Edge
// existence follows the union of the neighbor relation (an edge exists when
// either endpoint lists the other); edge weight follows the configured
// strategy. The graph is stored in compressed sparse rows with sorted
// adjacency so iteration order, and everything downstream of it, is
// deterministic.
package simgraph

import (
	"errors"
	"sort"
)

// ErrNoEdges is returned when graph construction keeps no edges at all.
// Clustering an edgeless graph would silently produce singletons, so this is
// surfaced as a fatal condition instead.
var ErrNoEdges = errors.New("no edges in similarity graph")

// Edge is one weighted undirected edge. U == V denotes a self-loop, which
// only aggregated graphs contain.
type Edge struct {
	U, V uint32
	W    float64
}

// Graph is a weighted undirected graph in CSR form. Duplicate undirected
// edges passed to NewGraph are merged by summing their weights; adjacency
// within a vertex is sorted by target.
type Graph struct {
	offsets []int
	targets []uint32
	weights []float64
	degrees []float64 // weighted degree per vertex, self-loops counted twice
	total   float64   // sum of undirected edge weights, self-loops counted once
	edges   int
}

// NewGraph builds a graph with n vertices from an edge list.
func NewGraph(n int, edges []Edge) *Graph {
	adj := make([]map[uint32]float64, n)
	at := func(v uint32) map[uint32]float64 {
		if adj[v] == nil {
			adj[v] = make(map[uint32]float64)
		}
		return adj[v]
	}
	for _, e := range edges {
		at(e.U)[e.V] += e.W
		if e.U != e.V {
			at(e.V)[e.U] += e.W
		}
	}

	g := &Graph{
		offsets: make([]int, n+1),
		degrees: make([]float64, n),
	}
	size := 0
	for v := 0; v < n; v++ {
		size += len(adj[v])
	}
	g.targets = make([]uint32, 0, size)
	g.weights = make([]float64, 0, size)

	for v := 0; v < n; v++ {
		targets := make([]uint32, 0, len(adj[v]))
		for t := range adj[v] {
			targets = append(targets, t)
		}
		sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

		for _, t := range targets {
			w := adj[v][t]
			g.targets = append(g.targets, t)
			g.weights = append(g.weights, w)

			if t == uint32(v) {
				g.degrees[v] += 2 * w
				g.total += w
				g.edges++
			} else {
				g.degrees[v] += w
				if t > uint32(v) {
					g.total += w
					g.edges++
				}
			}
		}
		g.offsets[v+1] = len(g.targets)
	}
	return g
}

// NumVertices returns the number of vertices.
func (g *Graph) NumVertices() int { return len(g.offsets) - 1 }

// NumEdges returns the number of undirected edges, self-loops included.
func (g *Graph) NumEdges() int { return g.edges }

// TotalWeight returns the sum of all undirected edge weights (often called
// m in modularity notation). Self-loops count once.
func (g *Graph) TotalWeight() float64 { return g.total }

// WeightedDegree returns the weighted degree of v. A self-loop contributes
// twice its weight, keeping the sum of degrees equal to 2m.
func (g *Graph) WeightedDegree(v int) float64 { return g.degrees[v] }

// Neighbors returns v's adjacency as parallel target/weight slices, sorted
// by target. The slices alias internal storage and must not be modified.
func (g *Graph) Neighbors(v int) ([]uint32, []float64) {
	lo, hi := g.offsets[v], g.offsets[v+1]
	return g.targets[lo:hi], g.weights[lo:hi]
}

// EdgeWeight returns the weight of the undirected edge {u, v} and whether
// it exists.
func (g *Graph) EdgeWeight(u, v int) (float64, bool) {
	targets, weights := g.Neighbors(u)
	for i, t := range targets {
		if t == uint32(v) {
			return weights[i], true
		}
	}
	return 0, false
}
