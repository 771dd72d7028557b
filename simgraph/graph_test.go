package simgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph(t *testing.T) {
	g := NewGraph(4, []Edge{
		{U: 0, V: 1, W: 1},
		{U: 2, V: 0, W: 2},
		{U: 1, V: 2, W: 0.5},
	})

	assert.Equal(t, 4, g.NumVertices())
	assert.Equal(t, 3, g.NumEdges())
	assert.Equal(t, 3.5, g.TotalWeight())

	assert.Equal(t, 3.0, g.WeightedDegree(0))
	assert.Equal(t, 1.5, g.WeightedDegree(1))
	assert.Equal(t, 2.5, g.WeightedDegree(2))
	assert.Equal(t, 0.0, g.WeightedDegree(3))

	// Adjacency is sorted by target and covers both directions.
	targets, weights := g.Neighbors(0)
	assert.Equal(t, []uint32{1, 2}, targets)
	assert.Equal(t, []float64{1, 2}, weights)

	targets, _ = g.Neighbors(2)
	assert.Equal(t, []uint32{0, 1}, targets)

	targets, _ = g.Neighbors(3)
	assert.Empty(t, targets)
}

func TestNewGraphMergesDuplicates(t *testing.T) {
	// The same undirected edge in both orientations sums its weights.
	g := NewGraph(2, []Edge{
		{U: 0, V: 1, W: 1},
		{U: 1, V: 0, W: 2},
	})

	assert.Equal(t, 1, g.NumEdges())
	assert.Equal(t, 3.0, g.TotalWeight())

	w, ok := g.EdgeWeight(0, 1)
	require.True(t, ok)
	assert.Equal(t, 3.0, w)
}

func TestNewGraphSelfLoop(t *testing.T) {
	g := NewGraph(2, []Edge{
		{U: 0, V: 0, W: 3},
		{U: 0, V: 1, W: 1},
	})

	// A self-loop counts once in the total and twice in the degree.
	assert.Equal(t, 2, g.NumEdges())
	assert.Equal(t, 4.0, g.TotalWeight())
	assert.Equal(t, 7.0, g.WeightedDegree(0))
	assert.Equal(t, 1.0, g.WeightedDegree(1))

	// Sum of degrees is 2m.
	assert.Equal(t, 2*g.TotalWeight(), g.WeightedDegree(0)+g.WeightedDegree(1))

	targets, weights := g.Neighbors(0)
	assert.Equal(t, []uint32{0, 1}, targets)
	assert.Equal(t, []float64{3, 1}, weights)
}

func TestEdgeWeight(t *testing.T) {
	g := NewGraph(3, []Edge{{U: 0, V: 1, W: 0.25}})

	w, ok := g.EdgeWeight(0, 1)
	require.True(t, ok)
	assert.Equal(t, 0.25, w)

	w, ok = g.EdgeWeight(1, 0)
	require.True(t, ok)
	assert.Equal(t, 0.25, w)

	_, ok = g.EdgeWeight(0, 2)
	assert.False(t, ok)
}

func TestNewGraphEmpty(t *testing.T) {
	g := NewGraph(3, nil)

	assert.Equal(t, 3, g.NumVertices())
	assert.Equal(t, 0, g.NumEdges())
	assert.Equal(t, 0.0, g.TotalWeight())
}
