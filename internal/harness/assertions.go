package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/ringer/internal/engine"
	"github.com/roach88/ringer/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type         string               // Assertion type for categorization
	Expected     string               // Human-readable expected outcome
	Actual       string               // Human-readable actual outcome
	Compositions []engine.Composition // Full results for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Full results for context
	if len(e.Compositions) > 0 {
		fmt.Fprintf(&buf, "\nFull results:\n")
		for i := range e.Compositions {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, e.Compositions[i].String())
		}
	}

	return buf.String()
}

// assertResultCount checks that exactly Count compositions were kept.
func assertResultCount(comps []engine.Composition, assertion Assertion) error {
	if len(comps) != assertion.Count {
		return &AssertionError{
			Type:         AssertResultCount,
			Expected:     fmt.Sprintf("%d compositions", assertion.Count),
			Actual:       fmt.Sprintf("%d compositions", len(comps)),
			Compositions: comps,
		}
	}
	return nil
}

// assertResultContains checks that a composition with the call string, and
// the length if one is given, was kept.
func assertResultContains(comps []engine.Composition, assertion Assertion) error {
	for i := range comps {
		if comps[i].CallString != *assertion.CallString {
			continue
		}
		if assertion.Length == 0 || comps[i].Length == assertion.Length {
			return nil
		}
	}

	expected := fmt.Sprintf("composition with call string %q", *assertion.CallString)
	if assertion.Length != 0 {
		expected += fmt.Sprintf(" and length %d", assertion.Length)
	}
	return &AssertionError{
		Type:         AssertResultContains,
		Expected:     expected,
		Actual:       "not found in results",
		Compositions: comps,
	}
}

// assertResultOrder checks that the call strings appear in the specified
// rank order. Other compositions may rank between them.
func assertResultOrder(comps []engine.Composition, assertion Assertion) error {
	// Step 1: Find first rank of each expected call string
	positions := make(map[string]int)
	for i := range comps {
		if _, seen := positions[comps[i].CallString]; !seen {
			positions[comps[i].CallString] = i + 1 // 1-indexed for readability
		}
	}

	// Step 2: Verify all call strings found
	for _, cs := range assertion.CallStrings {
		if positions[cs] == 0 {
			return &AssertionError{
				Type:         AssertResultOrder,
				Expected:     fmt.Sprintf("all call strings present: %q", assertion.CallStrings),
				Actual:       fmt.Sprintf("missing call string: %q", cs),
				Compositions: comps,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.CallStrings); i++ {
		prev := assertion.CallStrings[i-1]
		curr := assertion.CallStrings[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertResultOrder,
				Expected: fmt.Sprintf("call strings in order: %q", assertion.CallStrings),
				Actual: fmt.Sprintf("%q (rank %d) should be before %q (rank %d)",
					prev, positions[prev], curr, positions[curr]),
				Compositions: comps,
			}
		}
	}

	return nil
}

// assertLengths checks every composition length against the bounds.
func assertLengths(comps []engine.Composition, assertion Assertion) error {
	for i := range comps {
		l := comps[i].Length
		switch {
		case l < assertion.Min, assertion.Max != 0 && l > assertion.Max:
			return &AssertionError{
				Type:         AssertLengths,
				Expected:     fmt.Sprintf("lengths in [%d, %d]", assertion.Min, assertion.Max),
				Actual:       fmt.Sprintf("composition %d has length %d", i+1, l),
				Compositions: comps,
			}
		case assertion.Step > 0 && l%assertion.Step != 0:
			return &AssertionError{
				Type:         AssertLengths,
				Expected:     fmt.Sprintf("lengths that are multiples of %d", assertion.Step),
				Actual:       fmt.Sprintf("composition %d has length %d", i+1, l),
				Compositions: comps,
			}
		}
	}
	return nil
}

// assertAllTrue checks that no composition rings a row twice.
func assertAllTrue(comps []engine.Composition) error {
	for i := range comps {
		c := &comps[i]
		seen := make(map[string]int, len(c.Rows))
		for j, r := range c.Rows {
			if first, dup := seen[r.Key()]; dup {
				return &AssertionError{
					Type:     AssertAllTrue,
					Expected: "every composition true",
					Actual: fmt.Sprintf("composition %d (%s) repeats row %s at %d and %d",
						i+1, c.CallString, r, first, j),
					Compositions: comps,
				}
			}
			seen[r.Key()] = j
		}
	}
	return nil
}

// assertArchived checks that the archive lists the run's compositions in
// the order the search ranked them.
func assertArchived(ctx context.Context, st *store.Store, runID string, comps []engine.Composition) error {
	archived, err := st.ListCompositions(ctx, runID)
	if err != nil {
		return &AssertionError{
			Type:     AssertArchived,
			Expected: fmt.Sprintf("compositions of run %s", runID),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	if len(archived) != len(comps) {
		return &AssertionError{
			Type:         AssertArchived,
			Expected:     fmt.Sprintf("%d archived compositions", len(comps)),
			Actual:       fmt.Sprintf("%d archived compositions", len(archived)),
			Compositions: comps,
		}
	}
	for i, a := range archived {
		c := &comps[i]
		if a.ID != c.ID || a.Rank != i+1 || a.CallString != c.CallString || a.Length != c.Length {
			return &AssertionError{
				Type:     AssertArchived,
				Expected: fmt.Sprintf("rank %d = %s (%q, length %d)", i+1, c.ID, c.CallString, c.Length),
				Actual: fmt.Sprintf("rank %d = %s (%q, length %d)",
					a.Rank, a.ID, a.CallString, a.Length),
				Compositions: comps,
			}
		}
	}
	return nil
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
	RunID string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for archived assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertResultCount:
			err = assertResultCount(result.Compositions, assertion)
		case AssertResultContains:
			err = assertResultContains(result.Compositions, assertion)
		case AssertResultOrder:
			err = assertResultOrder(result.Compositions, assertion)
		case AssertLengths:
			err = assertLengths(result.Compositions, assertion)
		case AssertAllTrue:
			err = assertAllTrue(result.Compositions)
		case AssertArchived:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: archived requires database context", i)
			} else {
				err = assertArchived(actx.Ctx, actx.Store, actx.RunID, result.Compositions)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
