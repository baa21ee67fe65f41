package graph

import "math"

// freeCost is the largest reduced cost counted as free.
const freeCost = 1e-9

// computeFinish prices every link against finishRate, the best score per
// row any link and the chunk it enters can earn. A link's reduced cost is
// the rows it adds at that rate less the most it can score, so it is never
// negative except on links that close the part.
func (g *Graph) computeFinish() {
	rate := 0.0
	for i := range g.Chunks {
		for _, l := range g.Chunks[i].Links {
			if l.To != Terminal {
				v := &g.Chunks[l.To]
				rate = math.Max(rate, (l.Weight+v.Ceiling)/float64(v.Len))
			}
		}
	}
	g.finishRate = rate

	reduced := func(l Link) float64 {
		if l.To == Terminal {
			return -l.Weight
		}
		v := &g.Chunks[l.To]
		return math.Max(0, rate*float64(v.Len)-l.Weight-v.Ceiling)
	}

	type pred struct {
		u    int
		cost float64
	}
	n := len(g.Chunks)
	inf := math.Inf(1)
	dist := make([]float64, n)
	preds := make([][]pred, n)
	free := make([][]int, n)
	g.runCost = 0
	g.closeCredit = 0
	for u := range g.Chunks {
		c := &g.Chunks[u]
		dist[u] = inf
		if c.End {
			dist[u] = 0
		}
		for _, l := range c.Links {
			cost := reduced(l)
			if l.To == Terminal {
				dist[u] = math.Min(dist[u], cost)
				g.closeCredit = math.Min(g.closeCredit, cost)
				continue
			}
			preds[l.To] = append(preds[l.To], pred{u: u, cost: cost})
			if cost <= freeCost {
				free[u] = append(free[u], l.To)
			} else if g.runCost == 0 || cost < g.runCost {
				g.runCost = cost
			}
		}
	}
	shortest(dist, inf, func(v int, visit func(u int, cost float64)) {
		for _, p := range preds[v] {
			visit(p.u, p.cost)
		}
	})
	for u := range g.Chunks {
		g.Chunks[u].FinishCost = dist[u]
	}

	g.runLength, g.freeRun = longestFreeRun(g.Chunks, free)
	if g.Spec.AllowFalse {
		// Chunks may repeat, so a free run has no limit.
		g.runCost = 0
	}
}

// FinishBound returns an upper bound on the score a part can still earn
// after chunk ci, given that it needs between minRows and maxRows more
// rows. It returns -Inf when the part cannot be finished from ci.
//
// Two lower bounds on the reduced cost of the rest of the part are
// combined: the cheapest way to finish from ci, ignoring length and
// falseness, and the cost of the links a true part must make because no
// run of free links can ring more than runLength rows. The run already
// under way at ci can add at most the rest of ci's free run.
func (g *Graph) FinishBound(ci, minRows, maxRows int) float64 {
	cost := g.Chunks[ci].FinishCost
	if math.IsInf(cost, 1) {
		return math.Inf(-1)
	}
	if g.runCost > 0 && g.runLength > 0 {
		rest := minRows - (g.freeRun[ci] - g.Chunks[ci].Len)
		if rest > 0 {
			links := (rest + g.runLength - 1) / g.runLength
			cost = math.Max(cost, g.runCost*float64(links)+g.closeCredit)
		}
	}
	return g.finishRate*float64(max(0, maxRows)) - cost
}

// longestFreeRun returns the most rows a path can ring on free links
// alone, visiting no chunk twice, overall and from each chunk. Free links
// are grouped into strongly connected components, each counted whole, and
// the longest path is taken over the component DAG.
func longestFreeRun(chunks []Chunk, free [][]int) (int, []int) {
	n := len(chunks)
	index := make([]int, n) // 0 is unvisited
	low := make([]int, n)
	onStack := make([]bool, n)
	comp := make([]int, n)
	var (
		stack []int
		runs  []int // longest run starting in each component
		next  int
		best  int
	)

	var visit func(u int)
	visit = func(u int) {
		next++
		index[u], low[u] = next, next
		stack = append(stack, u)
		onStack[u] = true
		for _, v := range free[u] {
			if index[v] == 0 {
				visit(v)
				low[u] = min(low[u], low[v])
			} else if onStack[v] {
				low[u] = min(low[u], index[v])
			}
		}
		if low[u] != index[u] {
			return
		}

		// Components reachable from this one were all closed earlier.
		c := len(runs)
		var members []int
		rows := 0
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp[w] = c
			rows += chunks[w].Len
			members = append(members, w)
			if w == u {
				break
			}
		}
		tail := 0
		for _, w := range members {
			for _, v := range free[w] {
				if comp[v] != c {
					tail = max(tail, runs[comp[v]])
				}
			}
		}
		runs = append(runs, rows+tail)
		best = max(best, rows+tail)
	}
	for u := range chunks {
		if index[u] == 0 {
			visit(u)
		}
	}
	from := make([]int, n)
	for u := range from {
		from[u] = runs[comp[u]]
	}
	return best, from
}
