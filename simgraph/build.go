package simgraph

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/cellclust/knn"
)

// Weight selects the edge weight strategy. The choice shapes cluster
// granularity directly, so one strategy applies uniformly per run.
type Weight int

const (
	// WeightJaccard weights an edge by the Jaccard overlap of the two
	// endpoints' neighbor sets, each augmented with the endpoint itself.
	// Including the endpoints keeps mutual nearest neighbors connected even
	// at k=1, where the plain neighbor sets would be disjoint.
	WeightJaccard Weight = iota
	// WeightInvDist weights an edge by 1/(1+d) with d the recorded neighbor
	// distance; always in (0, 1], monotone in similarity.
	WeightInvDist
)

func (w Weight) String() string {
	switch w {
	case WeightJaccard:
		return "jaccard"
	case WeightInvDist:
		return "invdist"
	default:
		return fmt.Sprintf("unknown(%d)", int(w))
	}
}

// ParseWeight converts a strategy name as accepted on the command line.
func ParseWeight(s string) (Weight, error) {
	switch s {
	case "jaccard", "":
		return WeightJaccard, nil
	case "invdist", "inverse-distance":
		return WeightInvDist, nil
	default:
		return 0, fmt.Errorf("unsupported weight strategy %q (want jaccard or invdist)", s)
	}
}

// Options represents the options for graph construction.
type Options struct {
	// Weight is the edge weight strategy.
	Weight Weight

	// MinWeight drops candidate edges whose weight does not exceed it.
	// The default of 0 keeps every positive-weight edge.
	MinWeight float64
}

// DefaultOptions is the graph construction used when no options are given.
var DefaultOptions = Options{
	Weight:    WeightJaccard,
	MinWeight: 0,
}

// Build converts neighbor lists into the similarity graph. Every unordered
// pair {u, v} where either side lists the other becomes a candidate edge;
// the weight strategy then scores it and MinWeight prunes it. Returns
// ErrNoEdges when nothing survives.
func Build(lists []knn.NeighborList, optFns ...func(o *Options)) (*Graph, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	n := len(lists)
	if n == 0 {
		return nil, fmt.Errorf("no neighbor lists")
	}

	type pair struct{ u, v uint32 }
	orient := func(a, b uint32) pair {
		if a < b {
			return pair{a, b}
		}
		return pair{b, a}
	}

	weightOf := make(map[pair]float64)

	switch opts.Weight {
	case WeightJaccard:
		sets := make([]*roaring.Bitmap, n)
		for i, list := range lists {
			b := roaring.New()
			b.Add(uint32(i))
			for _, nb := range list {
				b.Add(nb.ID)
			}
			sets[i] = b
		}
		for u, list := range lists {
			for _, nb := range list {
				if nb.ID == uint32(u) {
					continue
				}
				p := orient(uint32(u), nb.ID)
				if _, ok := weightOf[p]; ok {
					continue
				}
				inter := sets[p.u].AndCardinality(sets[p.v])
				union := sets[p.u].GetCardinality() + sets[p.v].GetCardinality() - inter
				w := float64(inter) / float64(union)
				if w > opts.MinWeight {
					weightOf[p] = w
				}
			}
		}

	case WeightInvDist:
		for u, list := range lists {
			for _, nb := range list {
				if nb.ID == uint32(u) {
					continue
				}
				p := orient(uint32(u), nb.ID)
				if _, ok := weightOf[p]; ok {
					continue
				}
				w := 1 / (1 + float64(nb.Distance))
				if w > opts.MinWeight {
					weightOf[p] = w
				}
			}
		}

	default:
		return nil, fmt.Errorf("unsupported weight strategy: %v", opts.Weight)
	}

	if len(weightOf) == 0 {
		return nil, ErrNoEdges
	}

	edges := make([]Edge, 0, len(weightOf))
	for p, w := range weightOf {
		edges = append(edges, Edge{U: p.u, V: p.v, W: w})
	}
	return NewGraph(n, edges), nil
}
