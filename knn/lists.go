package knn

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/cellclust/distance"
)

// NewSearcher constructs the strategy selected by mode for the given
// vectors. optFns only apply to the HNSW strategy.
func NewSearcher(vectors [][]float32, metric distance.Metric, mode Mode, optFns ...func(o *HNSWOptions)) (Searcher, error) {
	switch mode.Resolve(len(vectors)) {
	case ModeExact:
		return NewBrute(vectors, metric)
	case ModeHNSW:
		return NewHNSW(vectors, metric, optFns...)
	default:
		return nil, fmt.Errorf("unsupported mode: %v", mode)
	}
}

// BuildLists computes the neighbor list of every row: exactly k neighbors,
// ascending by distance, self excluded. Queries for disjoint rows are
// independent, so they fan out over an errgroup bounded by threads
// (0 = GOMAXPROCS). The searcher must be built over the same vectors.
func BuildLists(ctx context.Context, s Searcher, vectors [][]float32, k, threads int) ([]NeighborList, error) {
	n := len(vectors)
	if k < 1 || k >= n {
		return nil, &ErrDegenerate{N: n, K: k}
	}
	if s.Len() != n {
		return nil, fmt.Errorf("searcher indexes %d rows, want %d", s.Len(), n)
	}
	if threads < 1 {
		threads = runtime.GOMAXPROCS(0)
	}

	lists := make([]NeighborList, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Query one extra so the row itself can be stripped. With
			// duplicate vectors the row may lose the slot to an equal-distance
			// lower index instead, hence the trim below.
			res, err := s.Search(vectors[i], k+1)
			if err != nil {
				return err
			}
			list := make(NeighborList, 0, k)
			for _, nb := range res {
				if nb.ID == uint32(i) {
					continue
				}
				list = append(list, nb)
				if len(list) == k {
					break
				}
			}
			if len(list) != k {
				return fmt.Errorf("row %d: found %d neighbors, want %d", i, len(list), k)
			}
			lists[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}
