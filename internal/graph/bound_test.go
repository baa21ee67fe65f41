package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringer/internal/ir"
)

// loopGraph is two free chunks in a cycle, one of which can close the part
// and one of which can call into a short end chunk.
func loopGraph(allowFalse bool) *Graph {
	g := &Graph{
		Spec: &ir.SearchSpec{AllowFalse: allowFalse},
		Chunks: []Chunk{
			{Len: 10, Links: []Link{{To: 1, Call: -1}, {To: 2, Call: 0, Weight: -2}}},
			{Len: 10, Links: []Link{{To: 0, Call: -1}, {To: Terminal, Call: 0, Weight: -1}}},
			{Len: 5, End: true},
		},
	}
	g.computeFinish()
	return g
}

func TestFinishBound_CheapestFinish(t *testing.T) {
	g := loopGraph(false)

	assert.InDelta(t, 1, g.Chunks[0].FinishCost, 1e-12)
	assert.InDelta(t, 1, g.Chunks[1].FinishCost, 1e-12)
	assert.InDelta(t, 0, g.Chunks[2].FinishCost, 1e-12)
	assert.InDelta(t, -1, g.FinishBound(0, 0, 100), 1e-12)
}

func TestFinishBound_FreeRunsAreLimited(t *testing.T) {
	g := loopGraph(false)
	assert.Equal(t, 20, g.runLength)
	assert.InDelta(t, 2, g.runCost, 1e-12)

	assert.Equal(t, []int{20, 20, 5}, g.freeRun)

	// After chunk 0 the free run has 10 rows left, so 45 rows need two
	// more runs of at most 20, each costing 2.
	assert.InDelta(t, -4, g.FinishBound(0, 45, 100), 1e-12)
	assert.InDelta(t, -2, g.FinishBound(0, 20, 100), 1e-12)
	assert.InDelta(t, -1, g.FinishBound(0, 10, 100), 1e-12)
}

func TestFinishBound_AllowFalseHasNoRunLimit(t *testing.T) {
	g := loopGraph(true)
	assert.InDelta(t, -1, g.FinishBound(0, 45, 100), 1e-12)
}

func TestFinishBound_PositiveRate(t *testing.T) {
	g := loopGraph(false)
	g.Chunks[2].Ceiling = 10
	g.computeFinish()

	// Entering chunk 2 earns 8 over 5 rows.
	assert.InDelta(t, 1.6, g.finishRate, 1e-12)
	assert.InDelta(t, 0, g.Chunks[0].FinishCost, 1e-12)
	assert.InDelta(t, 16, g.FinishBound(0, 0, 10), 1e-12)
}

func TestFinishBound_Unfinishable(t *testing.T) {
	g := &Graph{
		Spec:   &ir.SearchSpec{},
		Chunks: []Chunk{{Len: 4, Links: []Link{{To: 0, Call: -1}}}},
	}
	g.computeFinish()
	assert.True(t, math.IsInf(g.FinishBound(0, 0, 10), -1))
}

func TestLongestFreeRun(t *testing.T) {
	chunks := []Chunk{{Len: 10}, {Len: 20}, {Len: 5}, {Len: 30}}
	free := [][]int{{1}, {0, 2}, nil, nil}
	best, from := longestFreeRun(chunks, free)
	assert.Equal(t, 35, best)
	assert.Equal(t, []int{35, 35, 5, 30}, from)

	chunks[3].Len = 40
	best, _ = longestFreeRun(chunks, free)
	assert.Equal(t, 40, best)
}

func TestBuild_FinishBoundCountsCalls(t *testing.T) {
	g, err := Build(minorSpec(ir.Length{Min: 0, Max: 720}, ir.BaseCallsNear), Options{})
	require.NoError(t, err)

	assert.Equal(t, 60, g.runLength, "the plain course is the longest free run")
	assert.InDelta(t, 1.8, g.runCost, 1e-9)

	start := g.Starts[0].To
	assert.InDelta(t, 0, g.Chunks[start].FinishCost, 1e-12)
	assert.InDelta(t, 0, g.FinishBound(start, 48, 708), 1e-9)
	// The rest of the first course gives 48 rows; the other 252 take five
	// more courses at most, so five bobs.
	assert.InDelta(t, -9, g.FinishBound(start, 300, 708), 1e-9)
}
