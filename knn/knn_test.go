package knn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cellclust/distance"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{"auto", ModeAuto, false},
		{"", ModeAuto, false},
		{"exact", ModeExact, false},
		{"hnsw", ModeHNSW, false},
		{"approx", ModeHNSW, false},
		{"brute", 0, true},
		{"HNSW", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "auto", ModeAuto.String())
	assert.Equal(t, "exact", ModeExact.String())
	assert.Equal(t, "hnsw", ModeHNSW.String())
	assert.Contains(t, Mode(9).String(), "unknown")
}

func TestModeResolve(t *testing.T) {
	assert.Equal(t, ModeExact, ModeAuto.Resolve(100))
	assert.Equal(t, ModeExact, ModeAuto.Resolve(AutoExactLimit))
	assert.Equal(t, ModeHNSW, ModeAuto.Resolve(AutoExactLimit+1))

	// Explicit modes resolve to themselves at any size.
	assert.Equal(t, ModeExact, ModeExact.Resolve(1000000))
	assert.Equal(t, ModeHNSW, ModeHNSW.Resolve(10))
}

func TestNeighborListContains(t *testing.T) {
	l := NeighborList{{ID: 3, Distance: 0.1}, {ID: 7, Distance: 0.2}}

	assert.True(t, l.Contains(3))
	assert.True(t, l.Contains(7))
	assert.False(t, l.Contains(4))
	assert.False(t, NeighborList(nil).Contains(0))
}

func TestNewSearcher(t *testing.T) {
	vectors := [][]float32{{0, 0}, {1, 0}, {2, 0}}

	s, err := NewSearcher(vectors, distance.MetricEuclidean, ModeExact)
	require.NoError(t, err)
	assert.IsType(t, &Brute{}, s)

	s, err = NewSearcher(vectors, distance.MetricEuclidean, ModeHNSW)
	require.NoError(t, err)
	assert.IsType(t, &HNSW{}, s)

	// Auto resolves to exact for a table this small.
	s, err = NewSearcher(vectors, distance.MetricEuclidean, ModeAuto)
	require.NoError(t, err)
	assert.IsType(t, &Brute{}, s)

	_, err = NewSearcher(vectors, distance.MetricEuclidean, Mode(9))
	require.Error(t, err)
}
