package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/ringer/internal/ir"
)

// Validate checks a normalized SearchSpec for field values the schema
// cannot express: ranges whose bounds cross, empty index lists, blank
// patterns. Table construction catches everything that needs the methods
// expanded.
//
// Returns all errors found (does not fail-fast). Every error is a
// config error.
func Validate(spec *ir.SearchSpec) []error {
	var errs []error
	add := func(field, value, message string) {
		errs = append(errs, ir.NewConfigError(field, value, message))
	}

	if spec.Length.Min > spec.Length.Max {
		add("length", fmt.Sprintf("%d..%d", spec.Length.Min, spec.Length.Max), "minimum exceeds maximum")
	}
	if spec.Length.Max <= 0 {
		add("length", fmt.Sprint(spec.Length.Max), "maximum length must be positive")
	}
	if spec.NumComps <= 0 {
		add("num_comps", fmt.Sprint(spec.NumComps), "must be positive")
	}

	if len(spec.Methods) == 0 {
		add("methods", "", "at least one method is required")
	}
	for i, ms := range spec.Methods {
		field := fmt.Sprintf("methods[%d]", i)
		if strings.TrimSpace(ms.PlaceNotation) == "" {
			add(field+".place_notation", "", "place notation is empty")
		}
		if ms.CountRange != nil && ms.CountRange.Min > ms.CountRange.Max {
			add(field+".count_range", ms.CountRange.String(), "minimum exceeds maximum")
		}
	}
	if spec.MethodCount.Min > spec.MethodCount.Max {
		add("method_count", spec.MethodCount.String(), "minimum exceeds maximum")
	}

	for i, c := range spec.Calls {
		field := fmt.Sprintf("calls[%d]", i)
		if strings.TrimSpace(c.Symbol) == "" && c.DebugSymbol == "" {
			add(field+".symbol", c.Symbol, "a call needs a symbol or debug_symbol")
		}
	}

	for i, m := range spec.Music {
		field := fmt.Sprintf("music[%d]", i)
		if m.Count != nil && m.Count.Min > m.Count.Max {
			add(field+".count", m.Count.String(), "minimum exceeds maximum")
		}
		if m.CountEach != nil && m.CountEach.Min > m.CountEach.Max {
			add(field+".count_each", m.CountEach.String(), "minimum exceeds maximum")
		}
		for _, p := range m.Patterns {
			if strings.TrimSpace(p) == "" {
				add(field+".patterns", p, "pattern is empty")
			}
		}
	}

	if len(spec.StartIndices) == 0 && !spec.SnapStart {
		add("start_indices", "[]", "at least one start index is required")
	}
	if spec.EndIndices != nil && len(spec.EndIndices) == 0 {
		add("end_indices", "[]", "an empty list allows no finish; leave end_indices unset to allow any")
	}
	return errs
}
