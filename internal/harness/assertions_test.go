package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringer/internal/engine"
	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/row"
	"github.com/roach88/ringer/internal/store"
	"github.com/roach88/ringer/internal/testutil"
)

var testMethods = []string{"Plain Bob Minor"}

// comp builds a Plain Bob Minor composition with a real content ID.
func comp(callString string, length int, rows ...string) engine.Composition {
	c := engine.Composition{
		ID:          ir.MustCompositionID(6, "123456", testMethods, 0, callString, length),
		Length:      length,
		PartLengths: []int{length},
		PartHead:    row.Rounds(6),
		CallString:  callString,
	}
	for _, r := range rows {
		c.Rows = append(c.Rows, row.MustParse(r))
	}
	return c
}

func strPtr(s string) *string { return &s }

func sampleComps() []engine.Composition {
	return []engine.Composition{
		comp("H", 180),
		comp("WF", 108),
		comp("sWsF", 108),
	}
}

func TestAssertResultCount(t *testing.T) {
	comps := sampleComps()

	assert.NoError(t, assertResultCount(comps, Assertion{Type: AssertResultCount, Count: 3}))

	err := assertResultCount(comps, Assertion{Type: AssertResultCount, Count: 2})
	require.Error(t, err)
	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Equal(t, "2 compositions", assertErr.Expected)
	assert.Equal(t, "3 compositions", assertErr.Actual)
}

func TestAssertResultCount_Zero(t *testing.T) {
	assert.NoError(t, assertResultCount(nil, Assertion{Type: AssertResultCount, Count: 0}))
}

func TestAssertResultContains_Found(t *testing.T) {
	comps := sampleComps()

	assert.NoError(t, assertResultContains(comps, Assertion{Type: AssertResultContains, CallString: strPtr("WF")}))
	assert.NoError(t, assertResultContains(comps, Assertion{Type: AssertResultContains, CallString: strPtr("H"), Length: 180}))
}

func TestAssertResultContains_NotFound(t *testing.T) {
	comps := sampleComps()

	err := assertResultContains(comps, Assertion{Type: AssertResultContains, CallString: strPtr("B")})
	require.Error(t, err)
	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Equal(t, AssertResultContains, assertErr.Type)
	assert.Equal(t, "not found in results", assertErr.Actual)
}

func TestAssertResultContains_WrongLength(t *testing.T) {
	err := assertResultContains(sampleComps(), Assertion{Type: AssertResultContains, CallString: strPtr("H"), Length: 60})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "and length 60")
}

func TestAssertResultContains_EmptyCallString(t *testing.T) {
	comps := []engine.Composition{comp("", 60)}

	assert.NoError(t, assertResultContains(comps, Assertion{Type: AssertResultContains, CallString: strPtr("")}))
	assert.Error(t, assertResultContains(sampleComps(), Assertion{Type: AssertResultContains, CallString: strPtr("")}))
}

func TestAssertResultOrder(t *testing.T) {
	comps := sampleComps()

	tests := []struct {
		name        string
		callStrings []string
		errMsg      string
	}{
		{"in order", []string{"H", "WF", "sWsF"}, ""},
		{"intervening results allowed", []string{"H", "sWsF"}, ""},
		{"wrong order", []string{"sWsF", "H"}, "should be before"},
		{"missing", []string{"H", "B"}, "missing call string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertResultOrder(comps, Assertion{Type: AssertResultOrder, CallStrings: tt.callStrings})
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestAssertLengths(t *testing.T) {
	comps := sampleComps()

	tests := []struct {
		name      string
		assertion Assertion
		errMsg    string
	}{
		{"within bounds", Assertion{Min: 108, Max: 180}, ""},
		{"no upper bound", Assertion{Min: 100}, ""},
		{"multiple of step", Assertion{Step: 36}, ""},
		{"too short", Assertion{Min: 120}, "lengths in [120, 0]"},
		{"too long", Assertion{Max: 120}, "composition 1 has length 180"},
		{"not a multiple", Assertion{Step: 24}, "multiples of 24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.assertion.Type = AssertLengths
			err := assertLengths(comps, tt.assertion)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestAssertAllTrue(t *testing.T) {
	trueComp := comp("", 4, "123456", "214365", "241635", "426153")
	assert.NoError(t, assertAllTrue([]engine.Composition{trueComp}))

	falseComp := comp("B", 4, "123456", "214365", "123456", "214365")
	err := assertAllTrue([]engine.Composition{trueComp, falseComp})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "composition 2 (B) repeats row 123456 at 0 and 2")
}

// archiveComps writes comps to st as the run runID, ranked in order.
func archiveComps(t *testing.T, st *store.Store, runID string, comps []engine.Composition) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.WriteRun(ctx, store.Run{
		ID:            runID,
		SearchHash:    "hash",
		StartedAt:     testutil.Epoch,
		StopReason:    "exhausted",
		EngineVersion: ir.EngineVersion,
	}))

	archived := make([]store.Composition, len(comps))
	for i, c := range comps {
		archived[i] = store.Composition{
			ID:           c.ID,
			Stage:        6,
			PartHead:     "123456",
			Methods:      testMethods,
			Length:       c.Length,
			CallString:   c.CallString,
			Rank:         i + 1,
			MethodCounts: []int{c.Length},
			MusicCounts:  []int{},
		}
	}
	require.NoError(t, st.WriteCompositions(ctx, runID, archived))
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestAssertArchived_Match(t *testing.T) {
	st := openTestStore(t)
	comps := sampleComps()
	archiveComps(t, st, testutil.DefaultRunID, comps)

	assert.NoError(t, assertArchived(context.Background(), st, testutil.DefaultRunID, comps))
}

func TestAssertArchived_Mismatch(t *testing.T) {
	st := openTestStore(t)
	comps := sampleComps()
	archiveComps(t, st, testutil.DefaultRunID, comps[:2])

	err := assertArchived(context.Background(), st, testutil.DefaultRunID, comps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 archived compositions")
}

func TestAssertArchived_WrongOrder(t *testing.T) {
	st := openTestStore(t)
	comps := sampleComps()
	archiveComps(t, st, testutil.DefaultRunID, []engine.Composition{comps[1], comps[0], comps[2]})

	err := assertArchived(context.Background(), st, testutil.DefaultRunID, comps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank 1")
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	result := NewResult()
	result.Compositions = sampleComps()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertResultCount, Count: 3},
		{Type: AssertResultContains, CallString: strPtr("WF")},
		{Type: AssertResultOrder, CallStrings: []string{"H", "WF"}},
	}, nil)
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	result := NewResult()
	result.Compositions = sampleComps()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertResultCount, Count: 3},
		{Type: AssertResultCount, Count: 5},
		{Type: AssertResultContains, CallString: strPtr("B")},
	}, nil)
	assert.Len(t, errs, 2)
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "final_state"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "unknown assertion type")
}

func TestEvaluateAssertions_ArchivedNeedsStore(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertArchived}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires database context")
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:         AssertResultCount,
		Expected:     "1 compositions",
		Actual:       "2 compositions",
		Compositions: []engine.Composition{comp("H", 180), comp("WF", 108)},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: result_count")
	assert.Contains(t, msg, "Expected: 1 compositions")
	assert.Contains(t, msg, "Actual: 2 compositions")
	assert.Contains(t, msg, "Full results:")
	assert.Contains(t, msg, "[1] len: 180, ms: [180], score: 0.00, avg: 0.000000, str: H")
	assert.Contains(t, msg, "[2] len: 108")
}
