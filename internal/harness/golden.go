package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ringer/internal/engine"
	"github.com/roach88/ringer/internal/ir"
)

// ResultSnapshot captures the deterministic part of a scenario execution.
// Node counts and timings are left out: they vary with worker scheduling.
type ResultSnapshot struct {
	ScenarioName string               `json:"scenario_name"`
	StopReason   string               `json:"stop_reason,omitempty"`
	ErrorCode    string               `json:"error_code,omitempty"`
	Compositions []engine.Composition `json:"compositions"`
}

// toCanonicalMap converts a ResultSnapshot to a map[string]any for canonical JSON serialization.
// Scores are rendered with two decimals since canonical JSON has no floats.
func (s *ResultSnapshot) toCanonicalMap() map[string]any {
	comps := make([]any, len(s.Compositions))
	for i := range s.Compositions {
		c := &s.Compositions[i]
		comps[i] = map[string]any{
			"call_string":   c.CallString,
			"length":        c.Length,
			"part_lengths":  nonNil(c.PartLengths),
			"part_head":     c.PartHead.String(),
			"score":         fmt.Sprintf("%.2f", c.Score),
			"method_counts": nonNil(c.MethodCounts),
		}
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"compositions":  comps,
	}
	if s.StopReason != "" {
		result["stop_reason"] = s.StopReason
	}
	if s.ErrorCode != "" {
		result["error_code"] = s.ErrorCode
	}
	return result
}

func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

// Snapshot returns the canonical JSON snapshot of a result.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := ResultSnapshot{
		ScenarioName: scenarioName,
		StopReason:   result.StopReason,
		ErrorCode:    result.ErrorCode,
		Compositions: result.Compositions,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the result against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
