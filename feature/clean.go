package feature

import (
	"fmt"
	"regexp"
	"strconv"
)

// defaultExclusions lists column patterns removed from clustering unless an
// explicit marker list is provided: morphology features, DNA stains,
// autofluorescence channels and secondary-antibody-only channels. Patterns
// match on the column name prefix.
var defaultExclusions = []string{
	"X_centroid", "Y_centroid",
	"column_centroid", "row_centroid",
	"Area", "MajorAxisLength",
	"MinorAxisLength", "Eccentricity",
	"Solidity", "Extent", "Orientation",
	"DNA.*", "Hoechst.*", "DAP.*",
	"AF.*",
	`A\d{3}.*`,
}

var exclusionPatterns = compileExclusions(defaultExclusions)

func compileExclusions(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("^(?:" + p + ")")
	}
	return out
}

func excludedByDefault(column string) bool {
	for _, re := range exclusionPatterns {
		if re.MatchString(column) {
			return true
		}
	}
	return false
}

// CleanOptions configures marker column selection.
type CleanOptions struct {
	// Markers, when non-empty, selects exactly these columns for clustering.
	// The identifier column is always kept and moved to the front.
	// When empty, every column except the identifier is kept unless it
	// matches the default exclusion list.
	Markers []string
}

// Clean selects the marker columns of t and parses them into a dense float32
// matrix. The identifier column is required and never part of the matrix.
func (t *Table) Clean(optFns ...func(o *CleanOptions)) (*Matrix, error) {
	opts := CleanOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	idCol := t.Column(CellID)
	if idCol < 0 {
		return nil, fmt.Errorf("input table has no %s column", CellID)
	}

	var keep []int
	if len(opts.Markers) > 0 {
		for _, m := range opts.Markers {
			if m == CellID {
				continue
			}
			c := t.Column(m)
			if c < 0 {
				return nil, fmt.Errorf("marker %q not found in input table", m)
			}
			keep = append(keep, c)
		}
		if len(keep) == 0 {
			return nil, fmt.Errorf("marker list selects no columns besides %s", CellID)
		}
	} else {
		for c, name := range t.Header {
			if c == idCol || excludedByDefault(name) {
				continue
			}
			keep = append(keep, c)
		}
		if len(keep) == 0 {
			return nil, fmt.Errorf("no marker columns left after default exclusions")
		}
	}

	n, d := len(t.Records), len(keep)
	m := &Matrix{
		IDs:     make([]string, n),
		Columns: make([]string, d),
		Data:    make([]float32, n*d),
	}
	for j, c := range keep {
		m.Columns[j] = t.Header[c]
	}
	for i, rec := range t.Records {
		m.IDs[i] = rec[idCol]
		row := m.Data[i*d : (i+1)*d]
		for j, c := range keep {
			v, err := strconv.ParseFloat(rec[c], 32)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: parsing %q: %w",
					i+2, t.Header[c], rec[c], err)
			}
			row[j] = float32(v)
		}
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// WithMarkers selects an explicit marker column list.
func WithMarkers(markers []string) func(o *CleanOptions) {
	return func(o *CleanOptions) {
		o.Markers = markers
	}
}
