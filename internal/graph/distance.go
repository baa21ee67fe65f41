package graph

import (
	"container/heap"
	"math"
)

// unreachable marks a chunk no path reaches.
const unreachable = math.MaxInt

type distance interface {
	~int | ~float64
}

// shortest runs a multi-source Dijkstra over chunk indices. dist holds the
// initial distance of every source (inf elsewhere) and is updated in place;
// next lists the neighbours of a chunk with the cost of stepping to each.
// Costs must not be negative, but initial distances may be.
func shortest[D distance](dist []D, inf D, next func(u int, visit func(v int, cost D))) {
	pq := make(distPQ[D], 0, len(dist))
	for u, d := range dist {
		if d != inf {
			pq = append(pq, distItem[D]{u: u, dist: d})
		}
	}
	heap.Init(&pq)

	done := make([]bool, len(dist))
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(distItem[D])
		if done[item.u] {
			continue
		}
		done[item.u] = true
		next(item.u, func(v int, cost D) {
			nd := item.dist + cost
			if nd < dist[v] {
				dist[v] = nd
				heap.Push(&pq, distItem[D]{u: v, dist: nd})
			}
		})
	}
}

type distItem[D distance] struct {
	u    int
	dist D
}

// distPQ is a min-heap with lazy decrease-key: stale entries are skipped
// when popped.
type distPQ[D distance] []distItem[D]

func (pq distPQ[D]) Len() int            { return len(pq) }
func (pq distPQ[D]) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq distPQ[D]) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *distPQ[D]) Push(x interface{}) { *pq = append(*pq, x.(distItem[D])) }
func (pq *distPQ[D]) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
