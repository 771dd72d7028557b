package knn

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cellclust/distance"
	"github.com/hupe1980/cellclust/testutil"
)

func listIDs(l NeighborList) []uint32 {
	out := make([]uint32, len(l))
	for i, n := range l {
		out[i] = n.ID
	}
	return out
}

func TestBruteMatchesExactOracle(t *testing.T) {
	rng := testutil.NewRNG(42)
	vectors := rng.GaussianVectors(200, 8)

	for _, metric := range []distance.Metric{distance.MetricEuclidean, distance.MetricCosine} {
		t.Run(metric.String(), func(t *testing.T) {
			b, err := NewBrute(vectors, metric)
			require.NoError(t, err)

			dist, err := distance.Provider(metric)
			require.NoError(t, err)

			for _, i := range []int{0, 17, 99, 199} {
				got, err := b.Search(vectors[i], 10)
				require.NoError(t, err)

				want := testutil.ExactTopK(vectors[i], vectors, 10, dist, -1)
				assert.Equal(t, testutil.IDs(want), listIDs(got), "query %d", i)
			}
		})
	}
}

func TestBruteAscendingOrder(t *testing.T) {
	rng := testutil.NewRNG(7)
	vectors := rng.UniformVectors(100, 4)

	b, err := NewBrute(vectors, distance.MetricEuclidean)
	require.NoError(t, err)

	got, err := b.Search(vectors[0], 25)
	require.NoError(t, err)

	require.Equal(t, 25, len(got))
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
		return got[i].Distance < got[j].Distance
	}))
}

func TestBruteTieBreakByID(t *testing.T) {
	// Rows 1..4 are all at distance 1 from row 0.
	vectors := [][]float32{
		{0, 0},
		{1, 0},
		{0, 1},
		{-1, 0},
		{0, -1},
	}

	b, err := NewBrute(vectors, distance.MetricEuclidean)
	require.NoError(t, err)

	got, err := b.Search(vectors[0], 3)
	require.NoError(t, err)

	assert.Equal(t, []uint32{0, 1, 2}, listIDs(got))
}

func TestBruteClampsK(t *testing.T) {
	vectors := [][]float32{{0}, {1}, {2}}

	b, err := NewBrute(vectors, distance.MetricEuclidean)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())

	got, err := b.Search([]float32{0}, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, len(got))
}

func TestBruteInvalidK(t *testing.T) {
	vectors := [][]float32{{0}, {1}}

	b, err := NewBrute(vectors, distance.MetricEuclidean)
	require.NoError(t, err)

	_, err = b.Search([]float32{0}, 0)
	var degenerate *ErrDegenerate
	require.ErrorAs(t, err, &degenerate)
	assert.Equal(t, 0, degenerate.K)
	assert.Equal(t, 2, degenerate.N)
}

func TestBruteQueryDimensionMismatch(t *testing.T) {
	vectors := [][]float32{{0, 0}, {1, 1}}

	b, err := NewBrute(vectors, distance.MetricEuclidean)
	require.NoError(t, err)

	_, err = b.Search([]float32{0}, 1)
	var mismatch *ErrDimensionMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, -1, mismatch.Row)
	assert.Equal(t, 2, mismatch.Expected)
	assert.Equal(t, 1, mismatch.Actual)
}

func TestNewBruteErrors(t *testing.T) {
	_, err := NewBrute(nil, distance.MetricEuclidean)
	require.Error(t, err)

	_, err = NewBrute([][]float32{{}}, distance.MetricEuclidean)
	require.Error(t, err)

	// Ragged input reports the offending row.
	_, err = NewBrute([][]float32{{1, 2}, {1, 2, 3}}, distance.MetricEuclidean)
	var mismatch *ErrDimensionMismatch
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 1, mismatch.Row)
	assert.Equal(t, 2, mismatch.Expected)
	assert.Equal(t, 3, mismatch.Actual)
}
