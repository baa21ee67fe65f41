package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ringer/internal/compiler"
	"github.com/roach88/ringer/internal/engine"
	"github.com/roach88/ringer/internal/graph"
	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/store"
	"github.com/roach88/ringer/internal/testutil"
)

// defaultWorkers is the worker count of scenarios that do not set one.
// More than one so scenarios exercise the shared frontier.
const defaultWorkers = 2

// Harness is the test execution engine.
// It runs scenarios with a fixed run ID and clock so archived runs are
// reproducible.
type Harness struct {
	store  *store.Store
	clock  *testutil.StepClock
	runIDs ir.RunIDGenerator
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario archives into a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Compile the configuration and build the chunk graph
// 3. Search, then archive the run
// 4. Check the expect clause and evaluate assertions
// 5. Return result with pass/fail and errors
//
// A configuration the scenario expects to fail is not an error: the
// result records the setup error code instead.
func Run(scenario *Scenario) (*Result, error) {
	// Create fresh in-memory SQLite database
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewStepClock(0),
		runIDs: testutil.NewFixedRunIDGenerator(scenario.RunID),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()
	result := NewResult()

	g, err := h.build(scenario)
	if err != nil {
		var se *ir.SetupError
		if !errors.As(err, &se) {
			return nil, fmt.Errorf("failed to compile configuration: %w", err)
		}
		result.ErrorCode = string(se.Code)
		h.checkExpect(scenario, result, err)
		return result, nil
	}
	if scenario.expectsError() {
		result.AddError(fmt.Sprintf("expected setup error %s, but the configuration built", scenario.Expect.ErrorCode))
		return result, nil
	}

	if err := h.search(ctx, scenario, g, result); err != nil {
		return nil, err
	}
	h.checkExpect(scenario, result, nil)

	// Evaluate assertions against the result
	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
		RunID: result.RunID,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// build compiles the scenario's configuration and builds its chunk graph.
func (h *Harness) build(scenario *Scenario) (*graph.Graph, error) {
	var (
		spec *ir.SearchSpec
		err  error
	)
	if scenario.Config != "" {
		spec, err = compiler.CompileFile(scenario.Config)
	} else {
		spec, err = compiler.Compile([]byte(scenario.Search), scenario.BaseDir)
	}
	if err != nil {
		return nil, err
	}
	return graph.Build(spec, graph.Options{})
}

// search runs the engine and archives the run.
func (h *Harness) search(ctx context.Context, scenario *Scenario, g *graph.Graph, result *Result) error {
	workers := scenario.Workers
	if workers == 0 {
		workers = defaultWorkers
	}
	eng := engine.New(g,
		engine.WithWorkers(workers),
		engine.WithNodeLimit(scenario.NodeLimit),
		engine.WithLogger(h.logger),
	)

	started := h.clock.Now()
	res, err := eng.Run(ctx)
	if err != nil && !engine.IsBudgetError(err) {
		return fmt.Errorf("search failed: %w", err)
	}
	result.Compositions = res.Compositions
	result.StopReason = res.Stats.StopReason
	result.RunID = h.runIDs.Generate()

	hash, err := ir.SearchHash(g.Spec)
	if err != nil {
		return fmt.Errorf("failed to hash search: %w", err)
	}
	run := store.Run{
		ID:            result.RunID,
		ConfigPath:    scenario.Config,
		SearchHash:    hash,
		StartedAt:     started,
		EngineVersion: ir.EngineVersion,
	}
	if err := h.store.WriteResult(ctx, run, g, res); err != nil {
		return fmt.Errorf("failed to archive run: %w", err)
	}

	h.logger.Info("scenario searched",
		"scenario", scenario.Name,
		"compositions", len(res.Compositions),
		"stop_reason", res.Stats.StopReason,
	)
	return nil
}

// checkExpect compares how the search ended against the expect clause.
func (h *Harness) checkExpect(scenario *Scenario, result *Result, setupErr error) {
	if setupErr != nil {
		switch {
		case !scenario.expectsError():
			result.AddError(fmt.Sprintf("unexpected setup error: %v", setupErr))
		case result.ErrorCode != scenario.Expect.ErrorCode:
			result.AddError(fmt.Sprintf("expected setup error %s, got %s: %v",
				scenario.Expect.ErrorCode, result.ErrorCode, setupErr))
		}
		return
	}

	if scenario.Expect != nil && scenario.Expect.StopReason != "" && scenario.Expect.StopReason != result.StopReason {
		result.AddError(fmt.Sprintf("expected stop reason %q, got %q", scenario.Expect.StopReason, result.StopReason))
	}
}
