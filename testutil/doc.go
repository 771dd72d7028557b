// Package testutil provides testing utilities for cellclust.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for feature vectors, clustered sample
// data with known membership, and exact nearest-neighbor oracles for
// recall checks.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float32, 16)
//	rng.FillUniform(vec)      // uniform [0, 1)
//	rng.FillGaussian(vec)     // standard normal
//
// # Clustered Data with Ground Truth
//
//	centroids := [][]float32{{0, 0}, {10, 0}}
//	vectors, membership := rng.ClusteredVectors(200, centroids, 0.5)
//
// # Exact Search (Ground Truth)
//
//	exact := testutil.ExactTopK(query, dataset, k, distance.Euclidean, -1)
//
// # Recall Verification
//
//	recall := testutil.Recall(exact, approx)
package testutil
