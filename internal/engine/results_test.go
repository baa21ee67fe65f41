package engine

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func comp(id string, score float64, length int, calls string) *Composition {
	return &Composition{ID: id, Score: score, Length: length, CallString: calls}
}

func TestResults_RankOrder(t *testing.T) {
	r := newResults(10)

	r.insert(comp("a", 1, 100, "H"))
	r.insert(comp("b", 3, 100, "W"))
	r.insert(comp("c", 3, 96, "WH"))
	r.insert(comp("d", 3, 96, "H"))

	var ids []string
	for _, c := range r.snapshot() {
		ids = append(ids, c.ID)
	}
	// Score descending, then shorter, then call string.
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids)
}

func TestResults_ThresholdOnceFull(t *testing.T) {
	r := newResults(2)
	assert.True(t, math.IsInf(r.threshold(), -1))

	require.True(t, r.insert(comp("a", 5, 10, "")))
	assert.True(t, math.IsInf(r.threshold(), -1), "no threshold until full")

	require.True(t, r.insert(comp("b", 2, 10, "")))
	assert.Equal(t, 2.0, r.threshold())

	assert.False(t, r.insert(comp("c", 1, 10, "")), "worse than the K-th is refused")
	require.True(t, r.insert(comp("d", 4, 10, "")))
	assert.Equal(t, 4.0, r.threshold())

	snap := r.snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].ID)
	assert.Equal(t, "d", snap[1].ID)

	best, ok := r.best()
	require.True(t, ok)
	assert.Equal(t, 5.0, best)
}

func TestResults_Duplicates(t *testing.T) {
	r := newResults(5)
	assert.True(t, r.insert(comp("a", 1, 10, "")))
	assert.False(t, r.insert(comp("a", 1, 10, "")))
	assert.Len(t, r.snapshot(), 1)
}

func TestResults_EvictedCanReturn(t *testing.T) {
	r := newResults(1)
	require.True(t, r.insert(comp("a", 1, 10, "")))
	require.True(t, r.insert(comp("b", 2, 10, "")))
	// "a" was evicted, so it is no longer a duplicate, just too weak.
	assert.False(t, r.insert(comp("a", 1, 10, "")))
	assert.Equal(t, "b", r.snapshot()[0].ID)
}

func TestResults_Empty(t *testing.T) {
	r := newResults(3)
	_, ok := r.best()
	assert.False(t, ok)
	assert.Empty(t, r.snapshot())
}

func TestResults_ConcurrentInserts(t *testing.T) {
	r := newResults(10)
	const goroutines = 8
	const each = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				r.insert(comp(fmt.Sprintf("%d-%d", g, i), float64(g*each+i), 10, ""))
			}
		}(g)
	}
	wg.Wait()

	snap := r.snapshot()
	require.Len(t, snap, 10)
	top := float64(goroutines*each - 1)
	for i, c := range snap {
		assert.Equal(t, top-float64(i), c.Score)
	}
	assert.Equal(t, top-9, r.threshold())
}
