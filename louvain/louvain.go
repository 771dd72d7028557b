package louvain

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/hupe1980/cellclust/simgraph"
)

// ErrNoEdges is returned when the graph carries no edge weight, leaving
// modularity undefined.
var ErrNoEdges = errors.New("graph has no edges")

// ErrMaxPasses indicates that a level exhausted the local-move pass cap
// without reaching a stable partition.
type ErrMaxPasses struct {
	Level  int
	Passes int
}

func (e *ErrMaxPasses) Error() string {
	return fmt.Sprintf("level %d: no stable partition after %d local-move passes", e.Level, e.Passes)
}

// Options configures a Louvain run.
type Options struct {
	// Resolution scales the null-model term of modularity. Values above
	// 1 favor more, smaller communities; values below 1 favor fewer,
	// larger ones. Must be positive.
	Resolution float64

	// MaxPasses caps the number of full local-move passes per level. A
	// level still applying moves after MaxPasses passes fails with
	// ErrMaxPasses.
	MaxPasses int

	// MinGain is the smallest modularity improvement accepted as a real
	// move. It absorbs float noise around zero-gain relocations.
	MinGain float64

	// Seed shuffles the per-level vertex visit order when non-zero.
	// Zero keeps the input row order.
	Seed int64
}

// DefaultOptions holds the defaults applied by Run.
var DefaultOptions = Options{
	Resolution: 1.0,
	MaxPasses:  100,
	MinGain:    1e-12,
	Seed:       0,
}

// Result is the outcome of a Louvain run.
type Result struct {
	// Labels assigns every input vertex a community label. Labels are
	// dense and numbered by first appearance in vertex order, so vertex
	// 0 always carries label 0.
	Labels []int

	// Modularity is the modularity of Labels on the input graph.
	Modularity float64

	// Levels is the number of aggregation levels processed.
	Levels int

	// Passes is the total number of local-move passes across all levels.
	Passes int

	// Trace records the modularity reached after each level. It is
	// non-decreasing.
	Trace []float64
}

// NumCommunities returns the number of distinct labels in the result.
func (r *Result) NumCommunities() int {
	n := 0
	for _, c := range r.Labels {
		if c+1 > n {
			n = c + 1
		}
	}
	return n
}

// Run partitions g into communities by greedy modularity maximization.
func Run(g *simgraph.Graph, optFns ...func(o *Options)) (*Result, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Resolution <= 0 {
		return nil, fmt.Errorf("resolution must be positive, got %g", opts.Resolution)
	}
	if opts.MaxPasses < 1 {
		return nil, fmt.Errorf("pass cap must be at least 1, got %d", opts.MaxPasses)
	}
	if g == nil || g.NumVertices() == 0 {
		return nil, fmt.Errorf("cannot partition an empty graph")
	}
	if g.TotalWeight() <= 0 {
		return nil, ErrNoEdges
	}

	var rng *rand.Rand
	if opts.Seed != 0 {
		rng = rand.New(rand.NewSource(opts.Seed))
	}

	res := &Result{}
	labels := make([]int, g.NumVertices())
	for v := range labels {
		labels[v] = v
	}

	work := g
	for {
		lvl := newLevel(work, opts, res.Levels, rng)
		passes, err := lvl.optimize()
		if err != nil {
			return nil, err
		}
		res.Passes += passes

		comms, n := lvl.compact()
		for v := range labels {
			labels[v] = comms[labels[v]]
		}
		res.Levels++
		res.Trace = append(res.Trace, Modularity(work, comms, opts.Resolution))

		// A level that cannot shrink the graph any further is the last
		// one; every community is a single vertex.
		if n == work.NumVertices() {
			break
		}
		work = aggregate(work, comms, n)
	}

	res.Labels = renumber(labels)
	res.Modularity = Modularity(g, res.Labels, opts.Resolution)
	return res, nil
}

// renumber maps labels onto a dense 0..C-1 range ordered by first
// appearance, making the labeling reproducible across runs.
func renumber(labels []int) []int {
	next := 0
	seen := make(map[int]int, len(labels))
	out := make([]int, len(labels))
	for v, c := range labels {
		d, ok := seen[c]
		if !ok {
			d = next
			seen[c] = d
			next++
		}
		out[v] = d
	}
	return out
}
