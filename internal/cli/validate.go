package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ringer/internal/compiler"
	"github.com/roach88/ringer/internal/graph"
	"github.com/roach88/ringer/internal/ir"
)

// ValidationResult describes a configuration that compiled and built.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Methods    int    `json:"methods"`
	Calls      int    `json:"calls"`
	Music      int    `json:"music"`
	Parts      int    `json:"parts"`
	Chunks     int    `json:"chunks"`
	Starts     int    `json:"starts"`
	SearchHash string `json:"search_hash"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.toml>",
		Short: "Check a configuration without searching",
		Long: `Compile a search configuration and build its chunk graph without
running the search.

Reports every configuration error it finds, or the size of the search
tables when the configuration is valid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	cmd.Flags().Int("graph-size-limit", graph.DefaultSizeLimit, "fail when the chunk graph grows past this many chunks")

	return cmd
}

func runValidate(opts *RootOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	v, err := optionViper(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid options", err)
	}

	formatter.VerboseLog("Compiling %s", configPath)
	spec, err := compiler.CompileFile(configPath)
	if err != nil {
		_ = formatter.SetupError(err)
		return setupExitError("invalid configuration", err)
	}
	formatter.VerboseLog("Compiled %d method(s), %d music type(s)", len(spec.Methods), len(spec.Music))

	g, err := graph.Build(spec, graph.Options{SizeLimit: v.GetInt("graph_size_limit")})
	if err != nil {
		_ = formatter.SetupError(err)
		return setupExitError("failed to build search tables", err)
	}

	hash, err := ir.SearchHash(spec)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to hash search", err)
	}

	result := ValidationResult{
		Valid:      true,
		Methods:    len(g.Methods),
		Calls:      g.Calls.Len(),
		Music:      len(spec.Music),
		Parts:      g.Parts(),
		Chunks:     len(g.Chunks),
		Starts:     len(g.Starts),
		SearchHash: hash,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	okColor.Fprintf(formatter.Writer, "✓ %s is valid\n", configPath)
	fmt.Fprintf(formatter.Writer, "  %d method(s), %d part(s), %d chunk(s), %d start(s)\n",
		result.Methods, result.Parts, result.Chunks, result.Starts)
	return nil
}
