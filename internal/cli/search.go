package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/ringer/internal/compiler"
	"github.com/roach88/ringer/internal/engine"
	"github.com/roach88/ringer/internal/graph"
	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/store"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions

	// Rows includes every row of each composition in JSON output.
	Rows bool

	// RunIDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator ir.RunIDGenerator

	// Now allows overriding the clock that stamps archived runs (for testing).
	Now func() time.Time
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return newSearchCommand(&SearchOptions{RootOptions: rootOpts})
}

func newSearchCommand(opts *SearchOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <config.toml>",
		Short: "Search for compositions",
		Long: `Search for the best compositions allowed by a TOML configuration.

Compositions are printed best first, one per line, followed by a summary.
A search stopped by a limit or by Ctrl-C still prints what it found.

Runtime options may also be set with RINGER_* environment variables, e.g.
RINGER_WORKERS=4 or RINGER_TIME_LIMIT=30s. Flags win over the environment.

Example:
  ringer search cambridge.toml
  ringer search --time-limit 1m --db results.db spliced.toml
  ringer search --format json --rows pb-minor.toml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], cmd)
		},
	}

	addRuntimeFlags(cmd)
	cmd.Flags().BoolVar(&opts.Rows, "rows", false, "include every row in JSON output")

	return cmd
}

func runSearch(opts *SearchOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	rt, err := loadRuntimeOptions(cmd)
	if err != nil {
		_ = formatter.Error("", err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid options", err)
	}

	logger.Debug("compiling configuration", "path", configPath)
	spec, err := compiler.CompileFile(configPath)
	if err != nil {
		_ = formatter.SetupError(err)
		return setupExitError("invalid configuration", err)
	}

	g, err := graph.Build(spec, graph.Options{SizeLimit: rt.GraphSizeLimit})
	if err != nil {
		_ = formatter.SetupError(err)
		return setupExitError("failed to build search tables", err)
	}

	runIDs := opts.RunIDGenerator
	if runIDs == nil {
		runIDs = ir.UUIDv7Generator{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	runID := runIDs.Generate()

	reg := prometheus.NewRegistry()
	eng := engine.New(g, append(rt.engineOptions(),
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics(reg)),
	)...)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := now()
	res, err := eng.Run(ctx)
	switch {
	case err == nil:
	case engine.IsBudgetError(err):
		logger.Warn("search limit reached, results may not be the best possible", "error", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Info("search cancelled, keeping results so far")
	default:
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "search failed", err)
	}

	if rt.DB != "" {
		if err := archiveRun(context.WithoutCancel(ctx), rt.DB, runID, configPath, started, g, res); err != nil {
			_ = formatter.Error("", err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to archive results", err)
		}
		logger.Info("run archived", "db", rt.DB, "run_id", runID)
	}

	if opts.Verbose {
		if err := writeMetrics(formatter.GetErrWriter(), reg); err != nil {
			logger.Warn("failed to write metrics", "error", err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(toSearchJSON(runID, res, opts.Rows))
	}
	writeCompositions(formatter.Writer, res.Compositions)
	writeSummary(formatter.Writer, res)
	return nil
}

// commandContext returns the command's context if available (for testing),
// otherwise a background context.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// archiveRun writes a finished search and its compositions to the archive
// at path.
func archiveRun(ctx context.Context, path, runID, configPath string, started time.Time, g *graph.Graph, res *engine.Result) error {
	hash, err := ir.SearchHash(g.Spec)
	if err != nil {
		return fmt.Errorf("hash search: %w", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	run := store.Run{
		ID:            runID,
		ConfigPath:    configPath,
		SearchHash:    hash,
		StartedAt:     started,
		EngineVersion: ir.EngineVersion,
	}
	return st.WriteResult(ctx, run, g, res)
}

// writeMetrics dumps the search metrics in the Prometheus text format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
