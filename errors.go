package cellclust

import (
	"errors"
	"fmt"

	"github.com/hupe1980/cellclust/knn"
	"github.com/hupe1980/cellclust/louvain"
	"github.com/hupe1980/cellclust/simgraph"
)

var (
	// ErrEmptyGraph is returned when the similarity graph ends up with no
	// edges, which makes community detection meaningless. The run fails
	// rather than reporting a trivial single-cluster result.
	ErrEmptyGraph = errors.New("similarity graph has no edges")

	// ErrIO is returned for any read or write failure on input tables or
	// output artifacts.
	ErrIO = errors.New("io failure")
)

// ErrInvalidDimension indicates a row whose vector length differs from the
// matrix dimensionality.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Row      int
	Expected int
	Actual   int
	cause    error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension at row %d: expected %d, got %d", e.Row, e.Expected, e.Actual)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

// ErrDegenerateInput indicates a neighbor count that cannot be satisfied by
// the input sample: k must satisfy 1 <= k < n.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDegenerateInput struct {
	N     int
	K     int
	cause error
}

func (e *ErrDegenerateInput) Error() string {
	return fmt.Sprintf("degenerate input: k=%d with n=%d (need 1 <= k < n)", e.K, e.N)
}

func (e *ErrDegenerateInput) Unwrap() error { return e.cause }

// ErrNonConvergence indicates that modularity optimization exceeded the
// local-move pass cap without reaching a stable partition.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrNonConvergence struct {
	Level  int
	Passes int
	cause  error
}

func (e *ErrNonConvergence) Error() string {
	return fmt.Sprintf("no convergence at level %d after %d passes", e.Level, e.Passes)
}

func (e *ErrNonConvergence) Unwrap() error { return e.cause }

// translateError lifts stage-local errors into the pipeline taxonomy so
// callers can match with errors.Is / errors.As regardless of the stage that
// produced them.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var deg *knn.ErrDegenerate
	if errors.As(err, &deg) {
		return &ErrDegenerateInput{N: deg.N, K: deg.K, cause: err}
	}
	var dim *knn.ErrDimensionMismatch
	if errors.As(err, &dim) {
		return &ErrInvalidDimension{Row: dim.Row, Expected: dim.Expected, Actual: dim.Actual, cause: err}
	}

	if errors.Is(err, simgraph.ErrNoEdges) || errors.Is(err, louvain.ErrNoEdges) {
		return fmt.Errorf("%w: %w", ErrEmptyGraph, err)
	}

	var mp *louvain.ErrMaxPasses
	if errors.As(err, &mp) {
		return &ErrNonConvergence{Level: mp.Level, Passes: mp.Passes, cause: err}
	}

	return err
}
