package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ringer/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	SearchHash string
}

// runJSON is the JSON form of an archived run.
type runJSON struct {
	ID            string  `json:"id"`
	ConfigPath    string  `json:"config_path"`
	SearchHash    string  `json:"search_hash"`
	StartedAt     string  `json:"started_at"`
	ElapsedSec    float64 `json:"elapsed_seconds"`
	Nodes         int64   `json:"nodes"`
	StopReason    string  `json:"stop_reason"`
	EngineVersion string  `json:"engine_version"`
}

// archivedCompositionJSON is the JSON form of an archived composition.
type archivedCompositionJSON struct {
	ID           string   `json:"id"`
	Rank         int      `json:"rank"`
	Stage        int      `json:"stage"`
	PartHead     string   `json:"part_head"`
	Methods      []string `json:"methods"`
	Length       int      `json:"length"`
	CallString   string   `json:"call_string"`
	Score        float64  `json:"score"`
	AvgScore     float64  `json:"avg_score"`
	MethodCounts []int    `json:"method_counts"`
	MusicCounts  []int    `json:"music_counts"`
}

// runDetailJSON is the payload of `ringer history <run-id> --format json`.
type runDetailJSON struct {
	Run          runJSON                   `json:"run"`
	Compositions []archivedCompositionJSON `json:"compositions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Browse archived searches",
		Long: `List the runs archived by 'ringer search --db', or the compositions
found by one run.

The database may also be given with RINGER_DB.

Example:
  ringer history --db results.db
  ringer history --db results.db 0190a5f2-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runHistory(opts, runID, cmd)
		},
	}

	cmd.Flags().String("db", "", "path to the results database")
	cmd.Flags().StringVar(&opts.SearchHash, "search-hash", "", "only list runs of this search")

	return cmd
}

func runHistory(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	v, err := optionViper(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid options", err)
	}
	dbPath := v.GetString("db")
	if dbPath == "" {
		_ = formatter.Error("", "no database given: use --db or RINGER_DB", nil)
		return NewExitError(ExitCommandError, "no database given")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error("", err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to open database", err)
	}
	defer st.Close()

	ctx := commandContext(cmd)
	if runID == "" {
		runs, err := st.ListRuns(ctx, opts.SearchHash)
		if err != nil {
			_ = formatter.Error("", err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to list runs", err)
		}
		if opts.Format == "json" {
			out := make([]runJSON, len(runs))
			for i, r := range runs {
				out[i] = toRunJSON(r)
			}
			return formatter.Success(out)
		}
		return writeRuns(formatter, runs)
	}

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error("", fmt.Sprintf("run %q not found", runID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run %q not found", runID))
	}
	if err != nil {
		_ = formatter.Error("", err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read run", err)
	}
	comps, err := st.ListCompositions(ctx, runID)
	if err != nil {
		_ = formatter.Error("", err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to list compositions", err)
	}

	if opts.Format == "json" {
		out := runDetailJSON{
			Run:          toRunJSON(run),
			Compositions: make([]archivedCompositionJSON, len(comps)),
		}
		for i, c := range comps {
			out.Compositions[i] = archivedCompositionJSON{
				ID:           c.ID,
				Rank:         c.Rank,
				Stage:        c.Stage,
				PartHead:     c.PartHead,
				Methods:      c.Methods,
				Length:       c.Length,
				CallString:   c.CallString,
				Score:        c.Score,
				AvgScore:     c.AvgScore,
				MethodCounts: c.MethodCounts,
				MusicCounts:  c.MusicCounts,
			}
		}
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s %s\n", headingColor.Sprint("run"), run.ID)
	fmt.Fprintf(w, "  config:  %s\n", run.ConfigPath)
	fmt.Fprintf(w, "  started: %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  search:  %d nodes in %s, %s\n", run.Nodes, run.Elapsed.Round(time.Millisecond), run.StopReason)
	fmt.Fprintln(w)
	for _, c := range comps {
		fmt.Fprintf(w, "%3d. len: %d, score: %.2f, avg: %.6f, str: %s\n",
			c.Rank, c.Length, c.Score, c.AvgScore, c.CallString)
	}
	return nil
}

func toRunJSON(r store.Run) runJSON {
	return runJSON{
		ID:            r.ID,
		ConfigPath:    r.ConfigPath,
		SearchHash:    r.SearchHash,
		StartedAt:     r.StartedAt.UTC().Format(time.RFC3339),
		ElapsedSec:    r.Elapsed.Seconds(),
		Nodes:         r.Nodes,
		StopReason:    r.StopReason,
		EngineVersion: r.EngineVersion,
	}
}

func writeRuns(f *OutputFormatter, runs []store.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs archived.")
		return nil
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tNODES\tSTOP\tCONFIG")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Nodes, r.StopReason, r.ConfigPath)
	}
	return tw.Flush()
}
