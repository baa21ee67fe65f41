package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_RequiresDatabase(t *testing.T) {
	t.Setenv("RINGER_DB", "")

	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "no database given")
}

func TestHistory_DatabaseFromEnvironment(t *testing.T) {
	t.Setenv("RINGER_DB", filepath.Join(t.TempDir(), "results.db"))

	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "No runs archived.\n", buf.String())
}

func TestHistory_UnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "results.db")

	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "no-such-run"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), `run "no-such-run" not found`)
}

func TestHistory_TextListing(t *testing.T) {
	path := writeConfig(t, plainCourseConfig)
	dbPath := filepath.Join(t.TempDir(), "results.db")

	_, _, err := runSearchCommand(t, "text", "--db", dbPath, path)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "RUN")
	assert.Contains(t, buf.String(), "00000000-0000-7000-8000-000000000001")
	assert.Contains(t, buf.String(), "exhausted")

	buf.Reset()
	cmd = NewHistoryCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "00000000-0000-7000-8000-000000000001"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "  1. len: 60, score: 0.00")
}
