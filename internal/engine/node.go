package engine

import (
	"github.com/roach88/ringer/internal/falseness"
	"github.com/roach88/ringer/internal/graph"
)

// step is one link in a node's path. Paths share their prefixes, so a
// node's path costs one allocation however long it is.
type step struct {
	link graph.Link
	prev *step
}

// links returns the path from the start, oldest first.
func (s *step) links() []graph.Link {
	n := 0
	for p := s; p != nil; p = p.prev {
		n++
	}
	out := make([]graph.Link, n)
	for p := s; p != nil; p = p.prev {
		n--
		out[n] = p.link
	}
	return out
}

// node is a partial first part ending at the end of chunk.
type node struct {
	chunk int
	// rot is the part-head power of the chunk's course, relative to its
	// canonical head.
	rot int
	// length counts the rows rung, the last chunk included.
	length int
	// score is indexed by the parity of the part length; the composition's
	// final length picks which one is real.
	score [2]float64
	// counts is the number of rows of each method over every part.
	counts      []int
	unreachable falseness.Bitset
	path        *step

	bound float64
	seq   int64
}

// best returns the higher of the two parity scores.
func (n *node) best() float64 {
	return max(n.score[0], n.score[1])
}

// higher reports whether a should be expanded before b: higher bound,
// then longer, then earlier insertion.
func higher(a, b *node) bool {
	if a.bound != b.bound {
		return a.bound > b.bound
	}
	if a.length != b.length {
		return a.length > b.length
	}
	return a.seq < b.seq
}
