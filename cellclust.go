package cellclust

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/cellclust/feature"
	"github.com/hupe1980/cellclust/knn"
	"github.com/hupe1980/cellclust/louvain"
	"github.com/hupe1980/cellclust/qc"
	"github.com/hupe1980/cellclust/simgraph"
	"github.com/hupe1980/cellclust/sink"
)

// Pipeline wires the clustering stages for one input table: load and
// clean the feature matrix, build per-cell neighbor lists, assemble the
// shared-neighbor similarity graph, partition it into communities, and
// write the artifacts.
//
// A Pipeline is single-use; create a new one per run.
type Pipeline struct {
	input  string
	output string
	opts   options
}

// New creates a Pipeline reading input (a CSV, optionally gzipped) and
// writing artifacts to output: a local directory, s3://bucket/prefix or
// minio://host:port/bucket/prefix.
func New(input, output string, optFns ...Option) *Pipeline {
	if output == "" {
		output = "."
	}
	return &Pipeline{
		input:  input,
		output: output,
		opts:   applyOptions(optFns),
	}
}

// RunResult summarizes a completed run.
type RunResult struct {
	RunID       string
	Cells       int
	Markers     int
	Transformed bool
	Mode        knn.Mode // resolved search strategy
	Edges       int
	Labels      []int // cluster label per input row
	Clusters    int
	Modularity  float64
	Levels      int
	Passes      int
	Output      string // destination holding the artifacts
}

// Run executes the pipeline. Any stage error aborts the run before
// results are written; errors are translated into the package taxonomy
// (ErrInvalidDimension, ErrDegenerateInput, ErrEmptyGraph,
// ErrNonConvergence, ErrIO).
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.NewString()
	log := p.opts.logger.WithRunID(runID)
	started := time.Now()

	var timings []qc.StageTiming
	record := func(stage string, since time.Time) {
		timings = append(timings, qc.StageTiming{
			Stage:  stage,
			Millis: float64(time.Since(since).Microseconds()) / 1e3,
		})
	}

	// Load, clean, transform.
	t0 := time.Now()
	table, matrix, transformed, err := p.load()
	if err != nil {
		p.opts.metricsCollector.RecordLoad(0, 0, time.Since(t0), err)
		log.LogLoad(p.input, 0, 0, false, err)
		return nil, fmt.Errorf("load: %w: %w", ErrIO, err)
	}
	p.opts.metricsCollector.RecordLoad(matrix.Len(), matrix.Dim(), time.Since(t0), nil)
	log.LogLoad(p.input, matrix.Len(), matrix.Dim(), transformed, nil)
	record("load", t0)

	// Neighbor search.
	t1 := time.Now()
	mode := p.opts.mode.Resolve(matrix.Len())
	lists, err := p.neighborLists(ctx, matrix)
	p.opts.metricsCollector.RecordNeighborSearch(p.opts.neighbors, time.Since(t1), err)
	log.LogNeighborSearch(mode.String(), p.opts.neighbors, time.Since(t1), err)
	if err != nil {
		return nil, fmt.Errorf("neighbor search: %w", translateError(err))
	}
	record("neighbors", t1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Similarity graph.
	t2 := time.Now()
	g, err := simgraph.Build(lists, func(o *simgraph.Options) {
		o.Weight = p.opts.weight
		o.MinWeight = p.opts.minWeight
	})
	edges := 0
	if g != nil {
		edges = g.NumEdges()
	}
	p.opts.metricsCollector.RecordGraphBuild(edges, time.Since(t2), err)
	log.LogGraphBuild(p.opts.weight.String(), matrix.Len(), edges, err)
	if err != nil {
		return nil, fmt.Errorf("graph build: %w", translateError(err))
	}
	record("graph", t2)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Community detection.
	t3 := time.Now()
	part, err := louvain.Run(g, func(o *louvain.Options) {
		o.Resolution = p.opts.resolution
		o.MaxPasses = p.opts.iterationCap
		o.Seed = p.opts.seed
	})
	if err != nil {
		p.opts.metricsCollector.RecordPartition(0, 0, time.Since(t3), err)
		log.LogPartition(0, 0, 0, 0, err)
		return nil, fmt.Errorf("partition: %w", translateError(err))
	}
	clusters := part.NumCommunities()
	p.opts.metricsCollector.RecordPartition(clusters, part.Modularity, time.Since(t3), nil)
	log.LogPartition(clusters, part.Levels, part.Passes, part.Modularity, nil)
	record("partition", t3)

	res := &RunResult{
		RunID:       runID,
		Cells:       matrix.Len(),
		Markers:     matrix.Dim(),
		Transformed: transformed,
		Mode:        mode,
		Edges:       g.NumEdges(),
		Labels:      part.Labels,
		Clusters:    clusters,
		Modularity:  part.Modularity,
		Levels:      part.Levels,
		Passes:      part.Passes,
		Output:      p.output,
	}

	if err := p.writeArtifacts(ctx, log, p.artifacts(table, matrix, g, part, res, started, timings)); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) load() (*feature.Table, *feature.Matrix, bool, error) {
	table, err := feature.Load(p.input)
	if err != nil {
		return nil, nil, false, err
	}

	var cleanOpts []func(o *feature.CleanOptions)
	if p.opts.markersPath != "" {
		markers, err := feature.ReadMarkers(p.opts.markersPath)
		if err != nil {
			return nil, nil, false, err
		}
		cleanOpts = append(cleanOpts, feature.WithMarkers(markers))
	}
	matrix, err := table.Clean(cleanOpts...)
	if err != nil {
		return nil, nil, false, err
	}

	transformed := feature.ApplyTransform(matrix, p.opts.transform)
	return table, matrix, transformed, nil
}

func (p *Pipeline) neighborLists(ctx context.Context, matrix *feature.Matrix) ([]knn.NeighborList, error) {
	n, k := matrix.Len(), p.opts.neighbors
	// Fail before paying for an index build when k cannot be satisfied.
	if k < 1 || k >= n {
		return nil, &knn.ErrDegenerate{N: n, K: k}
	}
	vectors := matrix.Vectors()
	s, err := knn.NewSearcher(vectors, p.opts.metric, p.opts.mode, p.opts.hnswOptions...)
	if err != nil {
		return nil, err
	}
	return knn.BuildLists(ctx, s, vectors, k, p.opts.threads)
}

// artifact is one named output with its writer function.
type artifact struct {
	name  string
	write func(w io.Writer) error
}

// artifacts lists the outputs of a successful run, in write order. The
// summary goes last so its timestamps cover everything before it.
func (p *Pipeline) artifacts(table *feature.Table, matrix *feature.Matrix, g *simgraph.Graph, part *louvain.Result, res *RunResult, started time.Time, timings []qc.StageTiming) []artifact {
	stem := inputStem(p.input)

	arts := []artifact{
		{stem + "-annotated.csv", func(w io.Writer) error {
			return feature.WriteAnnotated(w, table, part.Labels)
		}},
		{stem + "-clean.csv", func(w io.Writer) error {
			return feature.WriteClean(w, table, matrix.Columns)
		}},
		{stem + "-cells.csv", func(w io.Writer) error {
			return feature.WriteCells(w, matrix.IDs, part.Labels, p.opts.method)
		}},
		{stem + "-clusters.csv", func(w io.Writer) error {
			return feature.WriteClusterMeans(w, matrix, part.Labels, p.opts.method)
		}},
		{"qc/cluster-sizes.csv", func(w io.Writer) error {
			return qc.WriteClusterSizes(w, part.Labels)
		}},
	}

	if p.opts.saveGraph {
		var meta *qc.GraphMeta
		arts = append(arts,
			artifact{"qc/graph-edges.bin", func(w io.Writer) error {
				m, err := qc.ExportGraph(w, g, p.opts.graphCodec)
				meta = m
				return err
			}},
			artifact{"qc/graph-edges.json", func(w io.Writer) error {
				return qc.WriteGraphMeta(w, meta)
			}},
		)
	}

	arts = append(arts, artifact{"qc/summary.json", func(w io.Writer) error {
		return qc.WriteSummary(w, &qc.Summary{
			RunID:       res.RunID,
			StartedAt:   started,
			FinishedAt:  time.Now(),
			Input:       p.input,
			Cells:       res.Cells,
			Markers:     res.Markers,
			Transformed: res.Transformed,
			Neighbors:   p.opts.neighbors,
			Metric:      p.opts.metric.String(),
			Mode:        res.Mode.String(),
			Weight:      p.opts.weight.String(),
			Resolution:  p.opts.resolution,
			Seed:        p.opts.seed,
			Edges:       res.Edges,
			Clusters:    res.Clusters,
			Modularity:  res.Modularity,
			Levels:      res.Levels,
			Passes:      res.Passes,
			Timings:     timings,
		})
	}})

	return arts
}

// writeArtifacts assembles every artifact locally, then copies the set
// through the remote sink when the destination is an object store.
func (p *Pipeline) writeArtifacts(ctx context.Context, log *Logger, arts []artifact) error {
	remote := sink.IsRemote(p.output)
	localDir := p.output
	if remote {
		dir, err := os.MkdirTemp("", "cellclust-")
		if err != nil {
			return fmt.Errorf("%w: staging artifacts: %w", ErrIO, err)
		}
		defer os.RemoveAll(dir)
		localDir = dir
	}

	local := sink.NewLocal(localDir)
	for _, a := range arts {
		if err := p.writeArtifact(ctx, local, log, a); err != nil {
			return err
		}
	}

	if remote {
		dest, err := sink.Open(ctx, p.output, func(o *sink.Options) {
			o.RateLimit = p.opts.uploadRateLimit
		})
		if err != nil {
			return fmt.Errorf("%w: opening %s: %w", ErrIO, p.output, err)
		}
		for _, a := range arts {
			if err := p.uploadArtifact(ctx, localDir, dest, log, a.name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) writeArtifact(ctx context.Context, s sink.Sink, log *Logger, a artifact) error {
	start := time.Now()
	wc, err := s.Create(ctx, a.name)
	var n int64
	if err == nil {
		cw := &countingWriter{w: wc}
		err = a.write(cw)
		if cerr := wc.Close(); err == nil {
			err = cerr
		}
		n = cw.n
	}
	p.opts.metricsCollector.RecordArtifact(a.name, n, time.Since(start), err)
	log.LogArtifact(a.name, n, err)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, a.name, err)
	}
	return nil
}

func (p *Pipeline) uploadArtifact(ctx context.Context, dir string, dest sink.Sink, log *Logger, name string) error {
	start := time.Now()
	n, err := copyArtifact(ctx, dir, dest, name)
	p.opts.metricsCollector.RecordArtifact(name, n, time.Since(start), err)
	log.LogArtifact(name, n, err)
	if err != nil {
		return fmt.Errorf("%w: uploading %s: %w", ErrIO, name, err)
	}
	return nil
}

func copyArtifact(ctx context.Context, dir string, dest sink.Sink, name string) (int64, error) {
	src, err := os.Open(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		return 0, err
	}
	defer src.Close()

	wc, err := dest.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(wc, src)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// countingWriter tracks bytes written for artifact accounting.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// inputStem strips the directory and the .csv or .csv.gz suffix from the
// input path; artifact names derive from it.
func inputStem(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, ".csv")
	return base
}
