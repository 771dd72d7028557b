// Command cellclust clusters the cells of a single-cell feature table by
// community detection on a shared-neighbor similarity graph.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/cellclust"
	"github.com/hupe1980/cellclust/distance"
	"github.com/hupe1980/cellclust/feature"
	"github.com/hupe1980/cellclust/knn"
	"github.com/hupe1980/cellclust/qc"
	"github.com/hupe1980/cellclust/simgraph"
)

// methodName is the value of the optional method column in the cells and
// clusters outputs.
const methodName = "louvain"

type rootFlags struct {
	input   string
	output  string
	markers string

	neighbors int
	threads   int
	metric    string
	mode      string

	method         bool
	configPath     string
	forceTransform bool
	noTransform    bool

	weight    string
	minWeight float64

	resolution   float64
	iterationCap int
	seed         int64

	saveGraph       bool
	graphCodec      string
	uploadRateLimit int64

	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "cellclust -i input.csv -o output-dir",
		Short: "Cluster single-cell feature tables by community detection",
		Long: `cellclust reads a per-cell marker intensity table, computes the k nearest
neighbors of every cell, links cells that share neighbors into a weighted
similarity graph, and partitions the graph into clusters by modularity
optimization.

It writes the input table annotated with cluster labels, a cleaned marker
table, per-cell and per-cluster tables, and QC artifacts. Output can go to
a local directory, s3://bucket/prefix or minio://host:port/bucket/prefix.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.input, "input", "i", "", "input CSV table (.csv or .csv.gz)")
	f.StringVarP(&flags.output, "output", "o", ".", "output directory, s3:// or minio:// destination")
	f.StringVarP(&flags.markers, "markers", "m", "", "text file naming the marker columns to cluster on, one per line")
	f.IntVarP(&flags.neighbors, "neighbors", "k", 30, "neighbors per cell")
	f.IntVarP(&flags.threads, "num-threads", "n", 1, "worker threads for neighbor search (0 = all CPUs)")
	f.StringVar(&flags.metric, "metric", "euclidean", "distance metric: euclidean or cosine")
	f.StringVar(&flags.mode, "mode", "auto", "neighbor search strategy: exact, hnsw or auto")
	f.BoolVarP(&flags.method, "method", "c", false, "include a method column in the cells and clusters outputs")
	f.StringVarP(&flags.configPath, "config", "y", "", "YAML config with a transform: true|false|auto key")
	f.BoolVar(&flags.forceTransform, "force-transform", false, "always log-transform marker intensities")
	f.BoolVar(&flags.noTransform, "no-transform", false, "never log-transform marker intensities")
	f.StringVar(&flags.weight, "weight", "jaccard", "edge weighting: jaccard or invdist")
	f.Float64Var(&flags.minWeight, "min-weight", 0, "drop graph edges with weight at or below this threshold")
	f.Float64Var(&flags.resolution, "resolution", 1, "modularity resolution; higher values give more, smaller clusters")
	f.IntVar(&flags.iterationCap, "iteration-cap", 100, "max local-move passes per level before the run fails")
	f.Int64Var(&flags.seed, "seed", 0, "shuffle seed for the partitioner's vertex order (0 = input order)")
	f.BoolVar(&flags.saveGraph, "save-graph", false, "export the similarity graph under qc/")
	f.StringVar(&flags.graphCodec, "graph-codec", "zstd", "graph export compression: none, gzip, zstd or lz4")
	f.Int64Var(&flags.uploadRateLimit, "upload-rate-limit", 0, "remote upload throttle in bytes/sec (0 = off)")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "progress logging to stderr")

	_ = cmd.MarkFlagRequired("input")
	cmd.MarkFlagsMutuallyExclusive("force-transform", "no-transform")

	return cmd
}

func run(ctx context.Context, flags *rootFlags) error {
	metric, err := distance.ParseMetric(flags.metric)
	if err != nil {
		return err
	}
	mode, err := knn.ParseMode(flags.mode)
	if err != nil {
		return err
	}
	weight, err := simgraph.ParseWeight(flags.weight)
	if err != nil {
		return err
	}
	codec, err := qc.ParseCodec(flags.graphCodec)
	if err != nil {
		return err
	}
	transform, err := resolveTransform(flags)
	if err != nil {
		return err
	}

	opts := []cellclust.Option{
		cellclust.WithNeighbors(flags.neighbors),
		cellclust.WithMetric(metric),
		cellclust.WithMode(mode),
		cellclust.WithThreads(flags.threads),
		cellclust.WithTransform(transform),
		cellclust.WithWeight(weight),
		cellclust.WithMinWeight(flags.minWeight),
		cellclust.WithResolution(flags.resolution),
		cellclust.WithIterationCap(flags.iterationCap),
		cellclust.WithSeed(flags.seed),
		cellclust.WithUploadRateLimit(flags.uploadRateLimit),
	}
	if flags.markers != "" {
		opts = append(opts, cellclust.WithMarkersFile(flags.markers))
	}
	if flags.method {
		opts = append(opts, cellclust.WithMethodColumn(methodName))
	}
	if flags.saveGraph {
		opts = append(opts, cellclust.WithGraphExport(codec))
	}
	if flags.verbose {
		opts = append(opts,
			cellclust.WithLogger(cellclust.NewVerboseLogger()),
			cellclust.WithMetricsCollector(&cellclust.BasicMetricsCollector{}),
		)
	}

	res, err := cellclust.New(flags.input, flags.output, opts...).Run(ctx)
	if err != nil {
		return err
	}

	if flags.verbose {
		printSummary(res)
	}
	// The final modularity goes to stdout so callers can capture it.
	fmt.Printf("%g\n", res.Modularity)
	return nil
}

// resolveTransform applies the precedence of the transform switches: the
// force/no flags win, then the YAML config, then auto detection.
func resolveTransform(flags *rootFlags) (feature.TransformMode, error) {
	switch {
	case flags.forceTransform:
		return feature.TransformOn, nil
	case flags.noTransform:
		return feature.TransformOff, nil
	case flags.configPath != "":
		return feature.LoadTransformConfig(flags.configPath)
	default:
		return feature.TransformAuto, nil
	}
}

func printSummary(res *cellclust.RunResult) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan("=== Clustering Summary ==="))
	fmt.Printf("  Run:        %s\n", res.RunID)
	fmt.Printf("  Cells:      %d (%d markers, transform=%v)\n", res.Cells, res.Markers, res.Transformed)
	fmt.Printf("  Search:     %s\n", res.Mode)
	fmt.Printf("  Graph:      %d edges\n", res.Edges)
	fmt.Printf("  Clusters:   %s (modularity %.4f, %d levels, %d passes)\n",
		green(fmt.Sprintf("%d", res.Clusters)), res.Modularity, res.Levels, res.Passes)
	fmt.Println()

	fmt.Printf("%s\n", yellow("Cluster sizes:"))
	for _, cs := range clusterSizes(res.Labels) {
		pct := 100 * float64(cs.count) / float64(len(res.Labels))
		fmt.Printf("  %4d  %8d  %5.1f%%\n", cs.cluster, cs.count, pct)
	}
	fmt.Println()
}

type clusterSize struct {
	cluster int
	count   int
}

func clusterSizes(labels []int) []clusterSize {
	counts := make(map[int]int)
	for _, c := range labels {
		counts[c]++
	}
	out := make([]clusterSize, 0, len(counts))
	for c, n := range counts {
		out = append(out, clusterSize{cluster: c, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].cluster < out[j].cluster
	})
	return out
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
