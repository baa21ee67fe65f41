package engine

import (
	"container/heap"
	"sync"
)

// frontier is the shared priority queue of nodes waiting to be expanded.
//
// Workers block in Pop while the queue is empty but other workers are
// still expanding, since those may push more nodes. When the queue is
// empty and no worker is busy the search is exhausted, and the frontier
// closes itself, waking every waiter.
//
// Thread-safety: frontier is safe for concurrent use.
type frontier struct {
	mu     sync.Mutex
	cond   *sync.Cond
	nodes  nodeHeap
	active int
	seq    int64
	closed bool
}

// newFrontier creates an empty frontier.
func newFrontier() *frontier {
	f := &frontier{nodes: make(nodeHeap, 0, 1024)}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push stamps each node with the next sequence number and adds it.
// Returns the queue length afterwards, or -1 if the frontier is closed.
func (f *frontier) Push(nodes ...*node) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return -1
	}
	for _, n := range nodes {
		f.seq++
		n.seq = f.seq
		heap.Push(&f.nodes, n)
	}
	if len(nodes) > 0 {
		f.cond.Broadcast()
	}
	return len(f.nodes)
}

// Pop removes the most promising node and marks the caller busy until it
// calls Done. Blocks while the frontier is empty and another worker is
// busy. Returns (nil, false) once the frontier is closed or exhausted.
func (f *frontier) Pop() (*node, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed {
			return nil, false
		}
		if len(f.nodes) > 0 {
			n := heap.Pop(&f.nodes).(*node)
			f.active++
			return n, true
		}
		if f.active == 0 {
			f.closed = true
			f.cond.Broadcast()
			return nil, false
		}
		f.cond.Wait()
	}
}

// Done marks the end of one expansion started by Pop.
func (f *frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.active--
	if f.active == 0 && len(f.nodes) == 0 {
		f.cond.Broadcast()
	}
}

// Len returns the number of waiting nodes.
func (f *frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.nodes)
}

// Close stops the frontier. Waiting and future Pops return false, and the
// queued nodes are released.
func (f *frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	f.nodes = nil
	f.cond.Broadcast()
}

// nodeHeap implements heap.Interface with the most promising node first.
type nodeHeap []*node

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return higher(h[i], h[j]) }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) { *h = append(*h, x.(*node)) }

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	// Nil out the slot so the popped node can be collected.
	old[n-1] = nil
	*h = old[:n-1]
	return x
}
