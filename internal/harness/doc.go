// Package harness runs composition searches described by YAML scenarios
// and checks what they find.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config: configs/plain_bob_minor.toml   # or an inline `search: |` TOML block
//	workers: 2
//	node_limit: 0
//	expect:
//	  status: ok
//	  stop_reason: exhausted
//	assertions:
//	  - type: result_count
//	    count: 1
//	  - type: result_contains
//	    call_string: ""
//	    length: 60
//	  - type: archived
//
// A scenario whose configuration must be refused sets status "error" and
// the expected code:
//
//	expect:
//	  status: error
//	  error_code: E003
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - result_count: Verifies exactly N compositions were kept
//   - result_contains: Verifies a composition with a call string (and length) was kept
//   - result_order: Verifies call strings rank in the specified order
//   - lengths: Verifies every length lies within bounds and is a multiple of a step
//   - all_true: Verifies no composition repeats a row
//   - archived: Verifies the results archive holds the run in rank order
//
// # Deterministic Testing
//
// The harness uses:
//   - Fixed run IDs (from scenario.run_id or testutil.DefaultRunID)
//   - A frozen clock for the archived start time (testutil.StepClock)
//   - In-memory SQLite database (isolated per test)
//
// Golden snapshots record compositions and the stop reason only, since
// node counts depend on worker scheduling.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/plain_course.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
