// Package feature loads per-cell marker intensity tables and prepares the
// dense feature matrix consumed by the clustering stages. It mirrors the
// conventions of imaging-cytometry pipelines: a CellID identifier column,
// marker intensity columns, and optional morphology/DNA-stain columns that
// are excluded from clustering by default.
package feature

import "fmt"

// CellID is the column holding cell identifiers in input tables.
const CellID = "CellID"

// Table is a raw parsed input table. It is retained verbatim so the
// annotated output can reproduce the original columns byte-for-byte.
type Table struct {
	Header  []string
	Records [][]string
}

// Rows returns the number of data rows.
func (t *Table) Rows() int { return len(t.Records) }

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Matrix is the dense n×d float32 feature matrix handed to the clustering
// core, with the parallel cell identifiers and marker names. Immutable once
// the load stage (including any transform) has finished.
type Matrix struct {
	IDs     []string
	Columns []string
	Data    []float32 // row-major, len n*d
}

// Len returns the number of cells n.
func (m *Matrix) Len() int { return len(m.IDs) }

// Dim returns the feature dimensionality d.
func (m *Matrix) Dim() int { return len(m.Columns) }

// Row returns the i-th feature vector as a slice into the backing array.
func (m *Matrix) Row(i int) []float32 {
	d := m.Dim()
	return m.Data[i*d : (i+1)*d]
}

// Vectors returns all rows as slices into the backing array, in row order.
func (m *Matrix) Vectors() [][]float32 {
	out := make([][]float32, m.Len())
	for i := range out {
		out[i] = m.Row(i)
	}
	return out
}

// Max returns the largest value in the matrix. Zero for an empty matrix.
func (m *Matrix) Max() float32 {
	var max float32
	for i, v := range m.Data {
		if i == 0 || v > max {
			max = v
		}
	}
	return max
}

func (m *Matrix) validate() error {
	if len(m.IDs) == 0 {
		return fmt.Errorf("empty matrix: no cells")
	}
	if len(m.Columns) == 0 {
		return fmt.Errorf("empty matrix: no marker columns")
	}
	if len(m.Data) != len(m.IDs)*len(m.Columns) {
		return fmt.Errorf("matrix shape mismatch: %d values for %d cells x %d markers",
			len(m.Data), len(m.IDs), len(m.Columns))
	}
	return nil
}
