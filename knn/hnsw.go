package knn

import (
	"math"
	"math/rand"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/cellclust/distance"
	"github.com/hupe1980/cellclust/internal/pqueue"
)

// Compile time check to ensure HNSW satisfies the Searcher interface.
var _ Searcher = (*HNSW)(nil)

// HNSWOptions represents the options for configuring the HNSW strategy.
type HNSWOptions struct {
	// M specifies the number of established connections for every new element
	// during construction. The bottom layer allows 2*M. The range 12-48 works
	// for most high-dimensional marker panels; lower values suit
	// low-intrinsic-dimensionality data.
	M int

	// EFConstruction is the size of the dynamic candidate list while
	// building the graph. Larger values improve graph quality at the cost of
	// construction time.
	EFConstruction int

	// EFSearch is the size of the dynamic candidate list during search.
	// Larger values improve recall at the cost of search time. Searches use
	// max(EFSearch, k).
	EFSearch int

	// Heuristic selects the neighbor-pruning algorithm: the heuristic spread
	// (true) keeps candidates that are closer to the query than to any
	// already-kept neighbor, the naive variant (false) keeps the closest M.
	Heuristic bool

	// Seed drives layer assignment. Fixed by default so that identical
	// input produces an identical graph.
	Seed int64
}

// DefaultHNSWOptions are sized for per-cell marker panels (tens of
// dimensions, k around 30).
var DefaultHNSWOptions = HNSWOptions{
	M:              16,
	EFConstruction: 200,
	EFSearch:       64,
	Heuristic:      true,
	Seed:           1,
}

type hnswNode struct {
	connections [][]uint32 // per layer, links to other rows
}

// HNSW is the approximate strategy: a hierarchical navigable small world
// graph. Construction inserts rows in input order; searches greedily descend
// the upper layers and beam-search layer 0. Results are approximate; when a
// search cannot surface enough candidates (disconnected bottom layer), it
// falls back to the exact scan so the k-results contract still holds.
type HNSW struct {
	space    *space
	opts     HNSWOptions
	mmax     int     // max connections per node per layer
	mmax0    int     // max for layer 0
	ml       float64 // normalization factor for layer generation
	entry    uint32
	maxLevel int
	nodes    []hnswNode
	exact    *Brute
}

// NewHNSW builds the graph over the given vectors. All vectors must share
// one dimensionality. The index is immutable afterwards and safe for
// concurrent searches.
func NewHNSW(vectors [][]float32, metric distance.Metric, optFns ...func(o *HNSWOptions)) (*HNSW, error) {
	opts := DefaultHNSWOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.M < 2 {
		// M == 1 would make the layer normalization 1/log(M) blow up
		opts.M = 2
	}
	if opts.EFConstruction < opts.M {
		opts.EFConstruction = opts.M
	}

	s, err := newSpace(vectors, metric)
	if err != nil {
		return nil, err
	}

	h := &HNSW{
		space: s,
		opts:  opts,
		mmax:  opts.M,
		mmax0: 2 * opts.M,
		ml:    1 / math.Log(float64(opts.M)),
		nodes: make([]hnswNode, 0, len(vectors)),
		exact: &Brute{space: s},
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	for i := range vectors {
		h.insert(uint32(i), rng)
	}
	return h, nil
}

// Len returns the number of indexed vectors.
func (h *HNSW) Len() int { return h.space.len() }

// Search returns the min(k, n) nearest vectors to q, ascending by distance.
func (h *HNSW) Search(q []float32, k int) (NeighborList, error) {
	if k < 1 {
		return nil, &ErrDegenerate{N: h.Len(), K: k}
	}
	if err := h.space.checkQuery(q); err != nil {
		return nil, err
	}

	n := h.Len()
	if k > n {
		k = n
	}
	qmag := h.space.queryMag(q)
	distFn := func(id uint32) float32 { return h.space.distTo(q, qmag, id) }

	ep := pqueue.Candidate{ID: h.entry, Dist: distFn(h.entry)}
	ep = h.descend(distFn, ep, h.maxLevel, 0)

	ef := h.opts.EFSearch
	if ef < k {
		ef = k
	}
	results := h.searchLayer(distFn, ep, ef, 0)
	for results.Len() > k {
		results.Pop()
	}
	if results.Len() < k {
		// layer 0 did not reach k rows from the entry point
		return h.exact.Search(q, k)
	}

	list := make(NeighborList, 0, k)
	for _, c := range results.Ascending() {
		list = append(list, Neighbor{ID: c.ID, Distance: c.Dist})
	}
	return list, nil
}

func (h *HNSW) insert(id uint32, rng *rand.Rand) {
	level := h.randomLevel(rng)
	node := hnswNode{connections: make([][]uint32, level+1)}

	if id == 0 {
		h.nodes = append(h.nodes, node)
		h.entry = 0
		h.maxLevel = level
		return
	}

	distFn := func(other uint32) float32 { return h.space.distBetween(id, other) }

	ep := pqueue.Candidate{ID: h.entry, Dist: distFn(h.entry)}
	ep = h.descend(distFn, ep, h.maxLevel, level)

	top := level
	if top > h.maxLevel {
		top = h.maxLevel
	}
	for l := top; l >= 0; l-- {
		results := h.searchLayer(distFn, ep, h.opts.EFConstruction, l)
		selected := h.selectNeighbors(results, h.opts.M)

		conns := make([]uint32, len(selected))
		for i, c := range selected {
			conns[i] = c.ID
		}
		node.connections[l] = conns

		if len(selected) > 0 {
			ep = selected[0]
		}
	}

	h.nodes = append(h.nodes, node)

	for l := top; l >= 0; l-- {
		for _, nb := range node.connections[l] {
			h.link(nb, id, l)
		}
	}

	if level > h.maxLevel {
		h.entry = id
		h.maxLevel = level
	}
}

// randomLevel draws a layer from the geometric distribution used by HNSW.
func (h *HNSW) randomLevel(rng *rand.Rand) int {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return int(math.Floor(-math.Log(u) * h.ml))
}

// descend greedily walks from ep toward the query through the layers above
// to, returning the entry candidate for layer to.
func (h *HNSW) descend(distFn func(uint32) float32, ep pqueue.Candidate, from, to int) pqueue.Candidate {
	for l := from; l > to; l-- {
		changed := true
		for changed {
			changed = false
			conns := h.nodes[ep.ID].connections
			if l >= len(conns) {
				break
			}
			for _, nb := range conns[l] {
				if d := distFn(nb); d < ep.Dist {
					ep = pqueue.Candidate{ID: nb, Dist: d}
					changed = true
				}
			}
		}
	}
	return ep
}

// searchLayer beam-searches one layer and returns up to ef candidates as a
// max-heap (root = worst kept).
func (h *HNSW) searchLayer(distFn func(uint32) float32, ep pqueue.Candidate, ef, level int) *pqueue.Queue {
	visited := bitset.New(uint(len(h.nodes) + 1))
	visited.Set(uint(ep.ID))

	candidates := pqueue.NewMin(ef)
	candidates.Push(ep)
	results := pqueue.NewMax(ef + 1)
	results.Push(ep)

	for candidates.Len() > 0 {
		cand, _ := candidates.Pop()
		worst, _ := results.Peek()
		if cand.Dist > worst.Dist {
			break
		}

		conns := h.nodes[cand.ID].connections
		if level >= len(conns) {
			continue
		}
		for _, nb := range conns[level] {
			if visited.Test(uint(nb)) {
				continue
			}
			visited.Set(uint(nb))

			d := distFn(nb)
			worst, _ = results.Peek()
			if results.Len() < ef {
				c := pqueue.Candidate{ID: nb, Dist: d}
				results.Push(c)
				candidates.Push(c)
			} else if d < worst.Dist {
				results.Pop()
				c := pqueue.Candidate{ID: nb, Dist: d}
				results.Push(c)
				candidates.Push(c)
			}
		}
	}
	return results
}

// selectNeighbors prunes a result heap down to at most m connections.
// The heuristic variant keeps a candidate only when no already-kept neighbor
// is closer to it than the candidate is to the query, spreading connections
// across directions; rejected candidates fill remaining slots afterwards.
func (h *HNSW) selectNeighbors(results *pqueue.Queue, m int) []pqueue.Candidate {
	if results.Len() <= m {
		return results.Ascending()
	}
	if !h.opts.Heuristic {
		for results.Len() > m {
			results.Pop()
		}
		return results.Ascending()
	}

	cands := results.Ascending()
	kept := make([]pqueue.Candidate, 0, m)
	var spill []pqueue.Candidate
	for _, c := range cands {
		if len(kept) >= m {
			break
		}
		keep := true
		for _, kc := range kept {
			if h.space.distBetween(c.ID, kc.ID) < c.Dist {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, c)
		} else {
			spill = append(spill, c)
		}
	}
	for _, c := range spill {
		if len(kept) >= m {
			break
		}
		kept = append(kept, c)
	}
	return kept
}

// link connects from -> to at the given layer, pruning back to the layer's
// connection budget when exceeded.
func (h *HNSW) link(from, to uint32, level int) {
	maxConn := h.mmax
	if level == 0 {
		maxConn = h.mmax0
	}

	conns := append(h.nodes[from].connections[level], to)
	if len(conns) > maxConn {
		results := pqueue.NewMax(len(conns))
		for _, nb := range conns {
			results.Push(pqueue.Candidate{ID: nb, Dist: h.space.distBetween(from, nb)})
		}
		selected := h.selectNeighbors(results, maxConn)
		conns = conns[:0]
		for _, c := range selected {
			conns = append(conns, c.ID)
		}
	}
	h.nodes[from].connections[level] = conns
}
