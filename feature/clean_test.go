package feature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTable(t *testing.T, data string) *Table {
	t.Helper()
	tbl, err := Read(strings.NewReader(data))
	require.NoError(t, err)
	return tbl
}

func TestCleanDefaultExclusions(t *testing.T) {
	tbl := parseTable(t, `CellID,X_centroid,Y_centroid,Area,DNA_1,Hoechst2,AF488,A555_background,CD45,CD3
1,5,5,100,900,800,10,11,2.5,3.5
2,6,6,110,901,801,12,13,4.5,5.5
`)

	m, err := tbl.Clean()
	require.NoError(t, err)

	assert.Equal(t, []string{"CD45", "CD3"}, m.Columns)
	assert.Equal(t, []string{"1", "2"}, m.IDs)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 2, m.Dim())
	assert.Equal(t, []float32{2.5, 3.5}, m.Row(0))
	assert.Equal(t, []float32{4.5, 5.5}, m.Row(1))
}

func TestCleanExclusionMatchesPrefixOnly(t *testing.T) {
	// Exclusion patterns anchor at the start of the column name.
	tbl := parseTable(t, `CellID,Area,XArea,DAPI,myDNA
1,1,2,3,4
`)

	m, err := tbl.Clean()
	require.NoError(t, err)

	assert.Equal(t, []string{"XArea", "myDNA"}, m.Columns)
}

func TestCleanExplicitMarkers(t *testing.T) {
	tbl := parseTable(t, `CellID,Area,CD45,CD3
1,100,2.5,3.5
2,110,4.5,5.5
`)

	// An explicit list overrides the default exclusions entirely.
	m, err := tbl.Clean(WithMarkers([]string{"CD3", "Area"}))
	require.NoError(t, err)

	assert.Equal(t, []string{"CD3", "Area"}, m.Columns)
	assert.Equal(t, []float32{3.5, 100}, m.Row(0))
}

func TestCleanMarkerListSkipsCellID(t *testing.T) {
	tbl := parseTable(t, `CellID,CD45
1,2.5
`)

	m, err := tbl.Clean(WithMarkers([]string{"CellID", "CD45"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"CD45"}, m.Columns)

	_, err = tbl.Clean(WithMarkers([]string{"CellID"}))
	require.Error(t, err)
}

func TestCleanUnknownMarker(t *testing.T) {
	tbl := parseTable(t, `CellID,CD45
1,2.5
`)

	_, err := tbl.Clean(WithMarkers([]string{"CD8"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CD8")
}

func TestCleanMissingCellID(t *testing.T) {
	tbl := parseTable(t, `id,CD45
1,2.5
`)

	_, err := tbl.Clean()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CellID")
}

func TestCleanAllExcluded(t *testing.T) {
	tbl := parseTable(t, `CellID,Area,DNA_1
1,100,900
`)

	_, err := tbl.Clean()
	require.Error(t, err)
}

func TestCleanBadNumber(t *testing.T) {
	tbl := parseTable(t, `CellID,CD45
1,abc
`)

	_, err := tbl.Clean()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CD45")
}

func TestMatrixAccessors(t *testing.T) {
	m := &Matrix{
		IDs:     []string{"a", "b", "c"},
		Columns: []string{"x", "y"},
		Data:    []float32{1, 2, 3, 4, 5, 6},
	}

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 2, m.Dim())
	assert.Equal(t, []float32{3, 4}, m.Row(1))
	assert.Equal(t, float32(6), m.Max())

	vectors := m.Vectors()
	require.Equal(t, 3, len(vectors))
	assert.Equal(t, []float32{5, 6}, vectors[2])

	// Vectors share the backing array with the matrix.
	vectors[0][0] = 42
	assert.Equal(t, float32(42), m.Data[0])
}

func TestMatrixMaxEmpty(t *testing.T) {
	m := &Matrix{}
	assert.Equal(t, float32(0), m.Max())
}

func TestMatrixMaxNegative(t *testing.T) {
	m := &Matrix{
		IDs:     []string{"a"},
		Columns: []string{"x", "y"},
		Data:    []float32{-5, -2},
	}
	assert.Equal(t, float32(-2), m.Max())
}
