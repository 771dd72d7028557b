// Package knn builds k-nearest-neighbor lists over a dense float32 feature
// matrix. Two interchangeable strategies are provided behind the Searcher
// interface: an exact brute-force scan for small samples and a hierarchical
// navigable small world (HNSW) graph for large ones. Both are deterministic
// for a fixed input order and seed, with distance ties broken toward the
// lower row index.
package knn

import "fmt"

// Neighbor is one entry of a neighbor list: a row index and its distance to
// the query.
type Neighbor struct {
	ID       uint32
	Distance float32
}

// NeighborList holds the nearest neighbors of one row, ascending by
// distance (ties ascending by ID). A row never lists itself.
type NeighborList []Neighbor

// Contains reports whether the list contains the given row.
func (l NeighborList) Contains(id uint32) bool {
	for _, n := range l {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Searcher answers k-nearest-neighbor queries over a fixed set of vectors.
// Implementations are immutable after construction and safe for concurrent
// searches.
type Searcher interface {
	// Search returns the min(k, Len()) nearest vectors to q, ascending by
	// distance. The query itself is not excluded: callers querying with an
	// indexed row must strip it from the result.
	Search(q []float32, k int) (NeighborList, error)

	// Len returns the number of indexed vectors.
	Len() int
}

// Mode selects the search strategy.
type Mode int

const (
	// ModeAuto picks ModeExact below AutoExactLimit rows, ModeHNSW above.
	ModeAuto Mode = iota
	// ModeExact scans all pairs; exact results, O(n²·d).
	ModeExact
	// ModeHNSW uses the approximate graph index; sub-quadratic, high recall.
	ModeHNSW
)

// AutoExactLimit is the sample size up to which ModeAuto stays exact. The
// quadratic scan is cheap enough below this and removes recall concerns.
const AutoExactLimit = 4096

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeExact:
		return "exact"
	case ModeHNSW:
		return "hnsw"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseMode converts a mode name as accepted on the command line.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "auto", "":
		return ModeAuto, nil
	case "exact":
		return ModeExact, nil
	case "hnsw", "approx":
		return ModeHNSW, nil
	default:
		return 0, fmt.Errorf("unsupported mode %q (want auto, exact or hnsw)", s)
	}
}

// Resolve returns the concrete strategy for n rows.
func (m Mode) Resolve(n int) Mode {
	if m == ModeAuto {
		if n <= AutoExactLimit {
			return ModeExact
		}
		return ModeHNSW
	}
	return m
}
