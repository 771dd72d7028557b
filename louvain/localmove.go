package louvain

import (
	"math/rand"

	"github.com/hupe1980/cellclust/simgraph"
)

// level holds the mutable state of one local-move phase. Communities are
// labeled by vertex index; every vertex starts in its own community.
type level struct {
	g     *simgraph.Graph
	opts  Options
	depth int

	twoM float64 // 2m, constant within a level

	comm  []int     // vertex -> community label
	ctot  []float64 // community label -> sum of member degrees
	order []int     // visit order

	// Per-vertex scratch: edge weight from the vertex into each touched
	// community, with the touched list kept for O(deg) reset.
	kvc     []float64
	touched []int
}

func newLevel(g *simgraph.Graph, opts Options, depth int, rng *rand.Rand) *level {
	n := g.NumVertices()
	l := &level{
		g:     g,
		opts:  opts,
		depth: depth,
		twoM:  2 * g.TotalWeight(),
		comm:  make([]int, n),
		ctot:  make([]float64, n),
		order: make([]int, n),
		kvc:   make([]float64, n),
	}
	for v := 0; v < n; v++ {
		l.comm[v] = v
		l.ctot[v] = g.WeightedDegree(v)
		l.order[v] = v
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	return l
}

// optimize runs full passes over the vertices until one pass applies no
// move, returning the number of passes taken.
func (l *level) optimize() (int, error) {
	for pass := 1; ; pass++ {
		if pass > l.opts.MaxPasses {
			return pass - 1, &ErrMaxPasses{Level: l.depth + 1, Passes: l.opts.MaxPasses}
		}
		if !l.pass() {
			return pass, nil
		}
	}
}

func (l *level) pass() bool {
	moved := false
	for _, v := range l.order {
		if l.move(v) {
			moved = true
		}
	}
	return moved
}

// move relocates v to the neighboring community with the largest strictly
// positive modularity gain, if any. Gain ties between candidates resolve
// to the lowest community label; a tie with staying put keeps v where it
// is.
func (l *level) move(v int) bool {
	home := l.comm[v]
	kv := l.g.WeightedDegree(v)

	targets, weights := l.g.Neighbors(v)
	for i, t := range targets {
		if int(t) == v {
			continue // self-loops relocate together with v
		}
		c := l.comm[t]
		if l.kvc[c] == 0 {
			l.touched = append(l.touched, c)
		}
		l.kvc[c] += weights[i]
	}

	// Gains are evaluated with v lifted out of its community.
	l.ctot[home] -= kv

	stay := l.gain(home, kv)
	best, bestGain := -1, 0.0
	for _, c := range l.touched {
		if c == home {
			continue
		}
		g := l.gain(c, kv)
		if best < 0 || g > bestGain || (g == bestGain && c < best) {
			best, bestGain = c, g
		}
	}

	applied := false
	if best >= 0 && bestGain-stay > l.opts.MinGain {
		l.comm[v] = best
		l.ctot[best] += kv
		applied = true
	} else {
		l.ctot[home] += kv
	}

	for _, c := range l.touched {
		l.kvc[c] = 0
	}
	l.touched = l.touched[:0]
	return applied
}

// gain is the modularity delta, up to the constant factor 1/m, of
// inserting an isolated vertex with degree kv into community c.
func (l *level) gain(c int, kv float64) float64 {
	return l.kvc[c] - l.opts.Resolution*l.ctot[c]*kv/l.twoM
}

// compact renumbers the surviving community labels densely by first
// appearance in vertex order and returns the assignment plus the
// community count.
func (l *level) compact() ([]int, int) {
	out := renumber(l.comm)
	n := 0
	for _, c := range out {
		if c+1 > n {
			n = c + 1
		}
	}
	return out, n
}
