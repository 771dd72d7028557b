// Package pqueue provides a small value-based binary heap over search
// candidates. Both orderings are supported: min-heaps drive best-first
// traversal, max-heaps keep bounded top-k result sets (the root is the
// current worst member, so it is cheap to compare and evict).
package pqueue

// Candidate is a scored vector reference.
type Candidate struct {
	ID   uint32
	Dist float32
}

// Queue is a binary heap of Candidates with value-based storage.
// Ties on Dist order by ID so that heap contents, and therefore top-k
// boundaries, are deterministic for any insertion order.
type Queue struct {
	max   bool
	items []Candidate
}

// NewMin returns a min-ordered queue: Pop yields the closest candidate.
func NewMin(capacity int) *Queue {
	return &Queue{items: make([]Candidate, 0, capacity)}
}

// NewMax returns a max-ordered queue: Pop yields the farthest candidate.
func NewMax(capacity int) *Queue {
	return &Queue{max: true, items: make([]Candidate, 0, capacity)}
}

// Len returns the number of queued candidates.
func (q *Queue) Len() int { return len(q.items) }

// Push inserts a candidate while maintaining the heap invariant.
func (q *Queue) Push(c Candidate) {
	q.items = append(q.items, c)
	q.siftUp(len(q.items) - 1)
}

// Pop removes and returns the top candidate.
func (q *Queue) Pop() (Candidate, bool) {
	n := len(q.items)
	if n == 0 {
		return Candidate{}, false
	}
	top := q.items[0]
	q.items[0] = q.items[n-1]
	q.items = q.items[:n-1]
	if n > 1 {
		q.siftDown(0)
	}
	return top, true
}

// Peek returns the top candidate without removing it.
func (q *Queue) Peek() (Candidate, bool) {
	if len(q.items) == 0 {
		return Candidate{}, false
	}
	return q.items[0], true
}

// Reset clears the queue for reuse, keeping the backing array.
func (q *Queue) Reset() {
	q.items = q.items[:0]
}

// Ascending drains the queue and returns all candidates sorted by ascending
// (Dist, ID). The queue is empty afterwards.
func (q *Queue) Ascending() []Candidate {
	out := make([]Candidate, len(q.items))
	if q.max {
		for i := len(out) - 1; i >= 0; i-- {
			out[i], _ = q.Pop()
		}
		return out
	}
	for i := range out {
		out[i], _ = q.Pop()
	}
	return out
}

// before reports whether a should sit above b in the heap.
func (q *Queue) before(a, b Candidate) bool {
	if a.Dist != b.Dist {
		if q.max {
			return a.Dist > b.Dist
		}
		return a.Dist < b.Dist
	}
	if q.max {
		return a.ID > b.ID
	}
	return a.ID < b.ID
}

func (q *Queue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.before(q.items[i], q.items[p]) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *Queue) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.before(q.items[r], q.items[l]) {
			best = r
		}
		if !q.before(q.items[best], q.items[i]) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
