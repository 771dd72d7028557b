package cellclust

import (
	"github.com/hupe1980/cellclust/distance"
	"github.com/hupe1980/cellclust/feature"
	"github.com/hupe1980/cellclust/knn"
	"github.com/hupe1980/cellclust/qc"
	"github.com/hupe1980/cellclust/simgraph"
)

type options struct {
	neighbors   int
	metric      distance.Metric
	mode        knn.Mode
	hnswOptions []func(*knn.HNSWOptions)
	threads     int

	markersPath string
	transform   feature.TransformMode
	method      string

	weight    simgraph.Weight
	minWeight float64

	resolution   float64
	iterationCap int
	seed         int64

	saveGraph       bool
	graphCodec      qc.Codec
	uploadRateLimit int64

	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Pipeline.
type Option func(*options)

// WithNeighbors sets the number of neighbors k computed per cell.
func WithNeighbors(k int) Option {
	return func(o *options) {
		o.neighbors = k
	}
}

// WithMetric sets the distance metric for neighbor search.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithMode selects the neighbor search strategy. ModeAuto stays exact for
// small inputs and switches to the approximate index beyond
// knn.AutoExactLimit rows.
func WithMode(m knn.Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithHNSW tunes the approximate index when it is selected.
//
// Example:
//
//	cellclust.WithHNSW(func(o *knn.HNSWOptions) {
//	    o.M = 32
//	    o.EFSearch = 128
//	})
func WithHNSW(optFns ...func(*knn.HNSWOptions)) Option {
	return func(o *options) {
		o.hnswOptions = optFns
	}
}

// WithThreads bounds the worker count of the neighbor search stage.
// Zero or negative means one worker per CPU.
func WithThreads(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// WithMarkersFile restricts clustering to the marker columns listed in the
// file, one column name per line.
func WithMarkersFile(path string) Option {
	return func(o *options) {
		o.markersPath = path
	}
}

// WithTransform sets the log-transform policy for marker intensities.
func WithTransform(mode feature.TransformMode) Option {
	return func(o *options) {
		o.transform = mode
	}
}

// WithMethodColumn adds a method column carrying the given name to the
// cells and clusters outputs.
func WithMethodColumn(name string) Option {
	return func(o *options) {
		o.method = name
	}
}

// WithWeight selects the edge weighting strategy of the similarity graph.
func WithWeight(w simgraph.Weight) Option {
	return func(o *options) {
		o.weight = w
	}
}

// WithMinWeight drops graph edges with weight at or below the threshold.
func WithMinWeight(t float64) Option {
	return func(o *options) {
		o.minWeight = t
	}
}

// WithResolution scales the modularity null model; higher values produce
// more, smaller clusters.
func WithResolution(g float64) Option {
	return func(o *options) {
		o.resolution = g
	}
}

// WithIterationCap caps local-move passes per level before the run fails
// with ErrNonConvergence.
func WithIterationCap(n int) Option {
	return func(o *options) {
		o.iterationCap = n
	}
}

// WithSeed shuffles the partitioner's vertex visit order. Zero keeps the
// input row order, making runs deterministic by default.
func WithSeed(s int64) Option {
	return func(o *options) {
		o.seed = s
	}
}

// WithGraphExport saves the similarity graph under qc/ using the given
// block compression codec.
func WithGraphExport(codec qc.Codec) Option {
	return func(o *options) {
		o.saveGraph = true
		o.graphCodec = codec
	}
}

// WithUploadRateLimit throttles remote artifact uploads in bytes per
// second. Zero disables the throttle.
func WithUploadRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.uploadRateLimit = bytesPerSec
	}
}

// WithMetricsCollector configures a metrics collector for stage counters
// and timings. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &cellclust.BasicMetricsCollector{}
//	p := cellclust.New(input, output, cellclust.WithMetricsCollector(metrics))
//	// ... run ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for the run. Pass nil to
// disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		neighbors:        30,
		metric:           distance.MetricEuclidean,
		mode:             knn.ModeAuto,
		threads:          1,
		transform:        feature.TransformAuto,
		weight:           simgraph.WeightJaccard,
		resolution:       1.0,
		iterationCap:     100,
		graphCodec:       qc.CodecZstd,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
