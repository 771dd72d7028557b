// Package distance provides vector distance calculations with SIMD acceleration.
//
// All distance functions delegate to github.com/viant/vec, which picks
// optimized kernels at runtime:
//   - AVX-512/AVX2 on x86-64
//   - NEON/SVE2 on ARM64
//
// # Supported Metrics
//
//   - MetricEuclidean: L2 distance (default)
//   - MetricCosine: cosine distance, 1 - cosine similarity
//
// # Usage
//
//	dist := distance.Euclidean(a, b)
//	fn, err := distance.Provider(distance.MetricCosine)
//
// Cosine distance of a zero-magnitude vector is defined as 1 so that
// degenerate rows never produce NaN.
package distance
