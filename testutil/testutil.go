package testutil

import (
	"math/rand"
	"sort"
	"sync"
)

// Neighbor is one entry of an exact ground-truth result.
type Neighbor struct {
	ID       uint32
	Distance float32
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// FillUniform fills vec with uniform values in [0.0,1.0).
func (r *RNG) FillUniform(vec []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range vec {
		vec[i] = r.rand.Float32()
	}
}

// FillGaussian fills vec with standard normal values.
func (r *RNG) FillGaussian(vec []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range vec {
		vec[i] = float32(r.rand.NormFloat64())
	}
}

// UniformVectors generates num vectors of the given dimension with
// uniform components in [0.0,1.0). All vectors share a single backing
// array to keep allocation overhead low.
func (r *RNG) UniformVectors(num, dim int) [][]float32 {
	backing := make([]float32, num*dim)
	r.FillUniform(backing)
	return sliceRows(backing, num, dim)
}

// GaussianVectors generates num vectors of the given dimension with
// standard normal components.
func (r *RNG) GaussianVectors(num, dim int) [][]float32 {
	backing := make([]float32, num*dim)
	r.FillGaussian(backing)
	return sliceRows(backing, num, dim)
}

// ClusteredVectors generates num points around the given centroids with
// Gaussian noise of the given spread. Centroids are assigned round
// robin, so row i belongs to centroid i mod len(centroids). It returns
// the points and the generating centroid index of each row.
func (r *RNG) ClusteredVectors(num int, centroids [][]float32, spread float32) ([][]float32, []int) {
	if len(centroids) == 0 || num <= 0 {
		return nil, nil
	}
	dim := len(centroids[0])
	backing := make([]float32, num*dim)
	membership := make([]int, num)

	r.mu.Lock()
	for i := 0; i < num; i++ {
		c := i % len(centroids)
		membership[i] = c
		row := backing[i*dim : (i+1)*dim]
		for j := range row {
			row[j] = centroids[c][j] + spread*float32(r.rand.NormFloat64())
		}
	}
	r.mu.Unlock()

	return sliceRows(backing, num, dim), membership
}

func sliceRows(backing []float32, num, dim int) [][]float32 {
	out := make([][]float32, num)
	for i := range out {
		out[i] = backing[i*dim : (i+1)*dim]
	}
	return out
}

// SeparatedCentroids returns n centroids spaced gap apart along the
// first axis of a dim-dimensional space. With a gap well above the
// sampling spread the resulting clusters do not overlap.
func SeparatedCentroids(n, dim int, gap float32) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		c := make([]float32, dim)
		c[0] = float32(i) * gap
		out[i] = c
	}
	return out
}

// ExactTopK computes the exact k nearest rows to query by scanning all
// vectors, ascending by distance with ties broken toward the lower id.
// The row at index skip is excluded; pass a negative skip to keep every
// row. Fewer than k rows are returned when the dataset is too small.
func ExactTopK(query []float32, vectors [][]float32, k int, dist func(a, b []float32) float32, skip int) []Neighbor {
	all := make([]Neighbor, 0, len(vectors))
	for i, v := range vectors {
		if i == skip {
			continue
		}
		all = append(all, Neighbor{ID: uint32(i), Distance: dist(query, v)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Distance != all[j].Distance {
			return all[i].Distance < all[j].Distance
		}
		return all[i].ID < all[j].ID
	})
	if k < len(all) {
		all = all[:k]
	}
	return all
}

// IDs extracts the row ids of neighbors in order.
func IDs(neighbors []Neighbor) []uint32 {
	out := make([]uint32, len(neighbors))
	for i, n := range neighbors {
		out[i] = n.ID
	}
	return out
}

// Recall returns the fraction of truth ids present in got. An empty
// truth set counts as full recall.
func Recall(truth, got []uint32) float64 {
	if len(truth) == 0 {
		return 1.0
	}
	want := make(map[uint32]struct{}, len(truth))
	for _, id := range truth {
		want[id] = struct{}{}
	}
	hits := 0
	for _, id := range got {
		if _, ok := want[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}
