package knn

import (
	"github.com/hupe1980/cellclust/distance"
	"github.com/hupe1980/cellclust/internal/pqueue"
)

// Compile time check to ensure Brute satisfies the Searcher interface.
var _ Searcher = (*Brute)(nil)

// Brute is the exact strategy: every query scans all indexed vectors and
// keeps the best k in a bounded max-heap. O(n·d) per query, deterministic,
// and the recall reference for the approximate strategy.
type Brute struct {
	space *space
}

// NewBrute indexes the given vectors for exact search. All vectors must
// share one dimensionality.
func NewBrute(vectors [][]float32, metric distance.Metric) (*Brute, error) {
	s, err := newSpace(vectors, metric)
	if err != nil {
		return nil, err
	}
	return &Brute{space: s}, nil
}

// Len returns the number of indexed vectors.
func (b *Brute) Len() int { return b.space.len() }

// Search returns the min(k, n) nearest vectors to q, ascending by distance.
func (b *Brute) Search(q []float32, k int) (NeighborList, error) {
	if k < 1 {
		return nil, &ErrDegenerate{N: b.Len(), K: k}
	}
	if err := b.space.checkQuery(q); err != nil {
		return nil, err
	}

	n := b.Len()
	if k > n {
		k = n
	}
	qmag := b.space.queryMag(q)

	top := pqueue.NewMax(k + 1)
	for id := 0; id < n; id++ {
		d := b.space.distTo(q, qmag, uint32(id))
		if top.Len() < k {
			top.Push(pqueue.Candidate{ID: uint32(id), Dist: d})
			continue
		}
		worst, _ := top.Peek()
		if d < worst.Dist || (d == worst.Dist && uint32(id) < worst.ID) {
			top.Pop()
			top.Push(pqueue.Candidate{ID: uint32(id), Dist: d})
		}
	}

	result := make(NeighborList, 0, top.Len())
	for _, c := range top.Ascending() {
		result = append(result, Neighbor{ID: c.ID, Distance: c.Dist})
	}
	return result, nil
}
