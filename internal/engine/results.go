package engine

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// results holds the best compositions found so far.
//
// Inserts take the mutex; the K-th score is published through an atomic
// so workers can prune against it without locking.
type results struct {
	mu    sync.Mutex
	limit int
	comps []*Composition
	seen  map[string]bool

	kth atomic.Uint64
}

func newResults(limit int) *results {
	r := &results{limit: limit, seen: make(map[string]bool)}
	r.kth.Store(math.Float64bits(math.Inf(-1)))
	return r
}

// threshold returns the score a composition must beat to enter a full
// set, or -Inf while the set has room.
func (r *results) threshold() float64 {
	return math.Float64frombits(r.kth.Load())
}

// insert adds c if it ranks among the best. Returns true if c was kept.
func (r *results) insert(c *Composition) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seen[c.ID] {
		return false
	}
	if len(r.comps) >= r.limit && !better(c, r.comps[len(r.comps)-1]) {
		return false
	}

	i := sort.Search(len(r.comps), func(i int) bool { return better(c, r.comps[i]) })
	r.comps = append(r.comps, nil)
	copy(r.comps[i+1:], r.comps[i:])
	r.comps[i] = c
	r.seen[c.ID] = true

	if len(r.comps) > r.limit {
		delete(r.seen, r.comps[r.limit].ID)
		r.comps = r.comps[:r.limit]
	}
	if len(r.comps) == r.limit {
		r.kth.Store(math.Float64bits(r.comps[r.limit-1].Score))
	}
	return true
}

// best returns the top score, and false when the set is empty.
func (r *results) best() (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.comps) == 0 {
		return 0, false
	}
	return r.comps[0].Score, true
}

// snapshot returns the compositions in rank order.
func (r *results) snapshot() []Composition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Composition, len(r.comps))
	for i, c := range r.comps {
		out[i] = *c
	}
	return out
}

// better orders compositions by score descending, then by length
// ascending, then by call string.
func better(a, b *Composition) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Length != b.Length {
		return a.Length < b.Length
	}
	if a.CallString != b.CallString {
		return a.CallString < b.CallString
	}
	return a.ID < b.ID
}
