// Package main provides the ringer CLI, which searches for change-ringing
// compositions described by a TOML configuration.
//
// Commands:
//   - search   : ringer search <config.toml> [--db results.db] [flags]
//   - validate : ringer validate <config.toml>
//   - methods  : ringer methods [title-filter] [--stage n]
//   - history  : ringer history --db results.db [run-id]
//   - test     : ringer test <scenarios-dir> [--filter glob] [--update]
//
// Exit codes: 0 on success (including a search that finds nothing), 1 on a
// runtime failure, 2 on a configuration error or bad arguments.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/ringer/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	if err == nil {
		return
	}

	// Commands report their own errors; anything else came from argument
	// parsing.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
