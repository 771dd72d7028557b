package knn

import "fmt"

// ErrDegenerate indicates a neighbor count the sample cannot satisfy:
// k must be in [1, n-1].
type ErrDegenerate struct {
	N int
	K int
}

func (e *ErrDegenerate) Error() string {
	return fmt.Sprintf("degenerate input: k=%d with n=%d (need 1 <= k < n)", e.K, e.N)
}

// ErrDimensionMismatch indicates a vector whose length differs from the
// index dimensionality. Row is the offending input row, or -1 for a query
// vector.
type ErrDimensionMismatch struct {
	Row      int
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("dimension mismatch: query has %d dimensions, index has %d", e.Actual, e.Expected)
	}
	return fmt.Sprintf("dimension mismatch at row %d: expected %d, got %d", e.Row, e.Expected, e.Actual)
}
