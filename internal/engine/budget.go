package engine

import (
	"sync/atomic"
	"time"
)

// budget counts expansions and enforces the node, time and frontier
// limits of one search. A zero limit is unlimited.
//
// Unlike a fatal error, an exhausted budget stops the search gracefully:
// the workers drain and the results found so far are returned.
//
// Thread-safety: budget is safe for concurrent use.
type budget struct {
	maxNodes int64
	maxTime  time.Duration
	maxQueue int

	start time.Time
	now   func() time.Time
	nodes atomic.Int64
}

func newBudget(maxNodes int64, maxTime time.Duration, maxQueue int, now func() time.Time) *budget {
	return &budget{
		maxNodes: maxNodes,
		maxTime:  maxTime,
		maxQueue: maxQueue,
		start:    now(),
		now:      now,
	}
}

// Expand counts one expansion and checks the node and time limits.
// Returns the number of expansions so far, including this one unless a
// limit refused it.
func (b *budget) Expand() (int64, error) {
	n := b.nodes.Add(1)
	if b.maxNodes > 0 && n > b.maxNodes {
		b.nodes.Add(-1)
		return n - 1, &BudgetExceededError{Budget: BudgetNodes, Limit: b.maxNodes, Elapsed: b.Elapsed(), Nodes: n - 1}
	}
	if b.maxTime > 0 {
		if elapsed := b.Elapsed(); elapsed > b.maxTime {
			b.nodes.Add(-1)
			return n - 1, &BudgetExceededError{Budget: BudgetTime, Limit: int64(b.maxTime), Elapsed: elapsed, Nodes: n - 1}
		}
	}
	return n, nil
}

// CheckQueue checks the frontier length against its limit.
func (b *budget) CheckQueue(queued int) error {
	if b.maxQueue > 0 && queued > b.maxQueue {
		return &BudgetExceededError{Budget: BudgetQueue, Limit: int64(b.maxQueue), Elapsed: b.Elapsed(), Nodes: b.Nodes()}
	}
	return nil
}

// Nodes returns the number of nodes expanded.
func (b *budget) Nodes() int64 {
	return b.nodes.Load()
}

// Elapsed returns the time since the search started.
func (b *budget) Elapsed() time.Duration {
	return b.now().Sub(b.start)
}
