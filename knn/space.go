package knn

import (
	"fmt"

	"github.com/hupe1980/cellclust/distance"
)

// space holds the indexed vectors together with the metric machinery common
// to both strategies. For the cosine metric, per-row magnitudes are computed
// once here so pairwise distances never redo the O(d) norm.
type space struct {
	vectors [][]float32
	dim     int
	metric  distance.Metric
	dist    distance.Func
	mags    []float32 // cosine only
}

func newSpace(vectors [][]float32, metric distance.Metric) (*space, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors to index")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, &ErrDimensionMismatch{Row: 0, Expected: 1, Actual: 0}
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, &ErrDimensionMismatch{Row: i, Expected: dim, Actual: len(v)}
		}
	}

	dist, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}

	s := &space{
		vectors: vectors,
		dim:     dim,
		metric:  metric,
		dist:    dist,
	}
	if metric == distance.MetricCosine {
		s.mags = make([]float32, len(vectors))
		for i, v := range vectors {
			s.mags[i] = distance.Magnitude(v)
		}
	}
	return s, nil
}

func (s *space) len() int { return len(s.vectors) }

// queryMag returns the magnitude of q when the metric needs it, else 0.
func (s *space) queryMag(q []float32) float32 {
	if s.metric == distance.MetricCosine {
		return distance.Magnitude(q)
	}
	return 0
}

// distTo returns the distance from query q (with precomputed magnitude) to
// the indexed row id.
func (s *space) distTo(q []float32, qmag float32, id uint32) float32 {
	if s.metric == distance.MetricCosine {
		return distance.CosineWithMagnitudes(q, s.vectors[id], qmag, s.mags[id])
	}
	return s.dist(q, s.vectors[id])
}

// distBetween returns the distance between two indexed rows.
func (s *space) distBetween(i, j uint32) float32 {
	if s.metric == distance.MetricCosine {
		return distance.CosineWithMagnitudes(s.vectors[i], s.vectors[j], s.mags[i], s.mags[j])
	}
	return s.dist(s.vectors[i], s.vectors[j])
}

func (s *space) checkQuery(q []float32) error {
	if len(q) != s.dim {
		return &ErrDimensionMismatch{Row: -1, Expected: s.dim, Actual: len(q)}
	}
	return nil
}
