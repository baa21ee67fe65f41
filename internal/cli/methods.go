package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ringer/internal/method/library"
)

var stageNames = map[int]string{
	4:  "Minimus",
	5:  "Doubles",
	6:  "Minor",
	7:  "Triples",
	8:  "Major",
	9:  "Caters",
	10: "Royal",
	11: "Cinques",
	12: "Maximus",
}

func stageName(stage int) string {
	if name, ok := stageNames[stage]; ok {
		return name
	}
	return fmt.Sprintf("Stage %d", stage)
}

// MethodsOptions holds flags for the methods command.
type MethodsOptions struct {
	*RootOptions
	Stage int
}

// NewMethodsCommand creates the methods command.
func NewMethodsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MethodsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "methods [title-filter]",
		Short: "List the built-in method library",
		Long: `List the methods a configuration can name by title alone.

An optional filter keeps the methods whose title contains it, ignoring
case.

Example:
  ringer methods --stage 8
  ringer methods surprise`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			return runMethods(opts, filter, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Stage, "stage", 0, "only list methods on this many bells")

	return cmd
}

func runMethods(opts *MethodsOptions, filter string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	lib, err := library.Default()
	if err != nil {
		_ = formatter.Error("", err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to load method library", err)
	}

	filter = strings.ToLower(filter)
	entries := []library.Entry{}
	for _, e := range lib.Entries() {
		if opts.Stage != 0 && e.Stage != opts.Stage {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(e.Title), filter) {
			continue
		}
		entries = append(entries, e)
	}

	if opts.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No matching methods.")
		return nil
	}

	// Entries arrive ordered by stage, so a heading starts each stage.
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	stage := 0
	for _, e := range entries {
		if e.Stage != stage {
			if stage != 0 {
				fmt.Fprintln(tw)
			}
			stage = e.Stage
			fmt.Fprintln(tw, headingColor.Sprint(stageName(stage)))
		}
		fmt.Fprintf(tw, "  %s\t%s\n", e.Title, e.PlaceNotation)
	}
	return tw.Flush()
}
