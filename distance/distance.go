package distance

import (
	"fmt"

	"github.com/viant/vec/search"
)

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricEuclidean Metric = iota
	MetricCosine
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "euclidean"
	case MetricCosine:
		return "cosine"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// ParseMetric converts a metric name as accepted on the command line.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "euclidean", "l2":
		return MetricEuclidean, nil
	case "cosine":
		return MetricCosine, nil
	default:
		return 0, fmt.Errorf("unsupported metric %q (want euclidean or cosine)", s)
	}
}

// Func is a function type for distance calculation.
// Assumes vectors are the same length (caller's responsibility).
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricEuclidean:
		return Euclidean, nil
	case MetricCosine:
		return Cosine, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// Euclidean calculates the L2 distance between two vectors.
func Euclidean(a, b []float32) float32 {
	return search.Float32s(a).EuclideanDistance(b)
}

// Cosine calculates the cosine distance (1 - cosine similarity) between two
// vectors. Zero-magnitude vectors are maximally distant from everything so
// that degenerate rows never produce NaN.
func Cosine(a, b []float32) float32 {
	va := search.Float32s(a)
	ma := va.Magnitude()
	mb := search.Float32s(b).Magnitude()
	if ma == 0 || mb == 0 {
		return 1
	}
	return va.CosineDistanceWithMagnitude(b, ma, mb)
}

// CosineWithMagnitudes is Cosine with both magnitudes precomputed. Batch
// searches cache one magnitude per row and avoid the O(d) recomputation on
// every pair.
func CosineWithMagnitudes(a, b []float32, ma, mb float32) float32 {
	if ma == 0 || mb == 0 {
		return 1
	}
	return search.Float32s(a).CosineDistanceWithMagnitude(b, ma, mb)
}

// Magnitude returns the L2 norm of v.
func Magnitude(v []float32) float32 {
	return search.Float32s(v).Magnitude()
}
