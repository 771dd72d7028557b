package louvain

import "github.com/hupe1980/cellclust/simgraph"

// Modularity computes the modularity of a partition of g at the given
// resolution:
//
//	Q = sum over communities c of [ in_c/(2m) - resolution*(tot_c/(2m))^2 ]
//
// where in_c is the total weight of intra-community edge endpoints (each
// internal edge counts twice, a self-loop twice), tot_c is the sum of
// weighted degrees of the members of c, and m is the total edge weight.
// A graph without edges has modularity 0.
func Modularity(g *simgraph.Graph, labels []int, resolution float64) float64 {
	twoM := 2 * g.TotalWeight()
	if twoM <= 0 {
		return 0
	}

	nc := 0
	for _, c := range labels {
		if c+1 > nc {
			nc = c + 1
		}
	}
	in := make([]float64, nc)
	tot := make([]float64, nc)

	for v := 0; v < g.NumVertices(); v++ {
		cv := labels[v]
		tot[cv] += g.WeightedDegree(v)

		targets, weights := g.Neighbors(v)
		for i, t := range targets {
			if labels[t] != cv {
				continue
			}
			if int(t) == v {
				in[cv] += 2 * weights[i]
			} else {
				in[cv] += weights[i]
			}
		}
	}

	q := 0.0
	for c := 0; c < nc; c++ {
		frac := tot[c] / twoM
		q += in[c]/twoM - resolution*frac*frac
	}
	return q
}
