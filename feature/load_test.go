package feature

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `CellID,CD45,CD3
1,10.5,3
2,20,4.25
3,30,5
`

func TestRead(t *testing.T) {
	tbl, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"CellID", "CD45", "CD3"}, tbl.Header)
	assert.Equal(t, 3, tbl.Rows())
	assert.Equal(t, []string{"2", "20", "4.25"}, tbl.Records[1])
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	require.Error(t, err)

	// A header alone is not a usable table either.
	_, err = Read(strings.NewReader("CellID,CD45\n"))
	require.Error(t, err)
}

func TestReadRagged(t *testing.T) {
	_, err := Read(strings.NewReader("CellID,CD45\n1,2,3\n"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Rows())
}

func TestLoadGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.csv.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"CellID", "CD45", "CD3"}, tbl.Header)
	assert.Equal(t, 3, tbl.Rows())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestLoadBadGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cells.csv.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip data"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestReadMarkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.txt")
	require.NoError(t, os.WriteFile(path, []byte("CD45\n\n  CD3  \n"), 0o644))

	markers, err := ReadMarkers(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"CD45", "CD3"}, markers)
}

func TestReadMarkersEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n   \n"), 0o644))

	_, err := ReadMarkers(path)
	require.Error(t, err)
}

func TestReadMarkersMissing(t *testing.T) {
	_, err := ReadMarkers(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestTableColumn(t *testing.T) {
	tbl, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 0, tbl.Column("CellID"))
	assert.Equal(t, 2, tbl.Column("CD3"))
	assert.Equal(t, -1, tbl.Column("CD8"))
}
