package feature

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// WriteAnnotated writes the original table with a cluster column appended.
// This is the primary pipeline output: every input column is reproduced
// verbatim, in order, plus the integer cluster label per row.
func WriteAnnotated(w io.Writer, t *Table, labels []int) error {
	if len(labels) != t.Rows() {
		return fmt.Errorf("label count %d does not match row count %d", len(labels), t.Rows())
	}
	cw := csv.NewWriter(w)

	header := append(append([]string{}, t.Header...), "cluster")
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, 0, len(header))
	for i, rec := range t.Records {
		row = append(row[:0], rec...)
		row = append(row, strconv.Itoa(labels[i]))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteClean writes the cleaned table: the identifier column first, then the
// selected marker columns, with the original (untransformed) cell values.
func WriteClean(w io.Writer, t *Table, columns []string) error {
	idCol := t.Column(CellID)
	if idCol < 0 {
		return fmt.Errorf("input table has no %s column", CellID)
	}
	keep := make([]int, len(columns))
	for j, name := range columns {
		c := t.Column(name)
		if c < 0 {
			return fmt.Errorf("column %q not found in input table", name)
		}
		keep[j] = c
	}

	cw := csv.NewWriter(w)
	header := append([]string{CellID}, columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, rec := range t.Records {
		row[0] = rec[idCol]
		for j, c := range keep {
			row[j+1] = rec[c]
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCells writes one row per cell: identifier and cluster label. When
// method is non-empty a method column is appended with that value on every
// row, matching the convention downstream gating tools expect.
func WriteCells(w io.Writer, ids []string, labels []int, method string) error {
	if len(labels) != len(ids) {
		return fmt.Errorf("label count %d does not match cell count %d", len(labels), len(ids))
	}
	cw := csv.NewWriter(w)

	header := []string{CellID, "cluster"}
	if method != "" {
		header = append(header, "method")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for i, id := range ids {
		row[0] = id
		row[1] = strconv.Itoa(labels[i])
		if method != "" {
			row[2] = method
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteClusterMeans writes one row per cluster with the mean of every marker
// over that cluster's cells, computed from the matrix as clustered (after
// any transform). Rows are ordered by ascending cluster label.
func WriteClusterMeans(w io.Writer, m *Matrix, labels []int, method string) error {
	if len(labels) != m.Len() {
		return fmt.Errorf("label count %d does not match cell count %d", len(labels), m.Len())
	}

	sums := make(map[int][]float64)
	counts := make(map[int]int)
	d := m.Dim()
	for i, label := range labels {
		s := sums[label]
		if s == nil {
			s = make([]float64, d)
			sums[label] = s
		}
		row := m.Row(i)
		for j, v := range row {
			s[j] += float64(v)
		}
		counts[label]++
	}

	order := make([]int, 0, len(sums))
	for label := range sums {
		order = append(order, label)
	}
	sort.Ints(order)

	cw := csv.NewWriter(w)
	header := append([]string{"cluster"}, m.Columns...)
	if method != "" {
		header = append(header, "method")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, label := range order {
		row[0] = strconv.Itoa(label)
		s, c := sums[label], float64(counts[label])
		for j := 0; j < d; j++ {
			row[j+1] = strconv.FormatFloat(s[j]/c, 'g', -1, 64)
		}
		if method != "" {
			row[len(row)-1] = method
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
