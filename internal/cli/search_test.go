package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringer/internal/testutil"
)

const plainCourseConfig = `
length = 60
method = "Plain Bob Minor"
base_calls = "none"
`

const touchesConfig = `
length = { min = 0, max = 120 }
method = "Plain Bob Minor"
`

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "search.toml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

// runSearchCommand executes the search command with a fixed run ID and
// clock, returning stdout and stderr.
func runSearchCommand(t *testing.T, format string, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	opts := &SearchOptions{
		RootOptions:    &RootOptions{Format: format},
		RunIDGenerator: testutil.NewFixedRunIDGenerator(""),
		Now:            testutil.NewStepClock(0).Now,
	}
	cmd := newSearchCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--workers", "2"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSearch_PlainCourse(t *testing.T) {
	path := writeConfig(t, plainCourseConfig)

	out, _, err := runSearchCommand(t, "text", path)
	require.NoError(t, err)

	assert.Contains(t, out, "len: 60, ms: [60], score: 0.00, avg: 0.000000, str: \n")
	assert.Contains(t, out, "search complete: 1 compositions, 1 found")
}

func TestSearch_JSON(t *testing.T) {
	path := writeConfig(t, plainCourseConfig)

	out, _, err := runSearchCommand(t, "json", "--rows", path)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   searchJSON `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, testutil.DefaultRunID, resp.Data.RunID)
	require.Len(t, resp.Data.Compositions, 1)

	c := resp.Data.Compositions[0]
	assert.Equal(t, 60, c.Length)
	assert.Equal(t, []int{60}, c.PartLengths)
	assert.Equal(t, "123456", c.PartHead)
	assert.Equal(t, []int{60}, c.MethodCounts)
	assert.Len(t, c.ID, 64)
	require.Len(t, c.Rows, 60)
	assert.Equal(t, "123456", c.Rows[0])
	assert.Equal(t, "exhausted", resp.Data.Stats.StopReason)
}

func TestSearch_NodeLimitKeepsResults(t *testing.T) {
	path := writeConfig(t, touchesConfig)

	out, errOut, err := runSearchCommand(t, "json", "--node-limit", "1", path)
	require.NoError(t, err)

	var resp struct {
		Data searchJSON `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "nodes", resp.Data.Stats.StopReason)
	assert.Contains(t, errOut, "search limit reached")
}

func TestSearch_CancelledIsGraceful(t *testing.T) {
	path := writeConfig(t, touchesConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &bytes.Buffer{}
	cmd := newSearchCommand(&SearchOptions{RootOptions: &RootOptions{Format: "text"}})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})
	cmd.SetContext(ctx)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "search stopped (cancelled): 0 compositions")
}

func TestSearch_ConfigErrorExitsTwo(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"missing length", `method = "Plain Bob Minor"`, "E001"},
		{"bad place notation", `
length = 60
methods = [{ title = "Broken", place_notation = "x9x", stage = 6 }]
`, "E002"},
		{"bad part head", `
length = 60
method = "Plain Bob Minor"
part_head = "1x3456"
`, "E003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.src)

			out, _, err := runSearchCommand(t, "text", path)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestSearch_MissingFileExitsTwo(t *testing.T) {
	_, _, err := runSearchCommand(t, "text", filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSearch_GraphSizeLimit(t *testing.T) {
	path := writeConfig(t, touchesConfig)

	out, _, err := runSearchCommand(t, "text", "--graph-size-limit", "2", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")
}

func TestSearch_InvalidWorkers(t *testing.T) {
	path := writeConfig(t, plainCourseConfig)

	_, _, err := runSearchCommand(t, "text", "--workers", "0", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSearch_VerboseDumpsMetrics(t *testing.T) {
	path := writeConfig(t, plainCourseConfig)

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newSearchCommand(&SearchOptions{RootOptions: &RootOptions{Format: "text", Verbose: true}})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "ringer_search_nodes_expanded_total")
	assert.NotContains(t, out.String(), "ringer_search")
}

func TestSearch_ArchivesAndHistory(t *testing.T) {
	path := writeConfig(t, touchesConfig)
	dbPath := filepath.Join(t.TempDir(), "results.db")

	out, _, err := runSearchCommand(t, "json", "--db", dbPath, path)
	require.NoError(t, err)
	var resp struct {
		Data searchJSON `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Data.Compositions)

	// Runs list
	histOut := &bytes.Buffer{}
	hist := NewHistoryCommand(&RootOptions{Format: "json"})
	hist.SetOut(histOut)
	hist.SetArgs([]string{"--db", dbPath})
	require.NoError(t, hist.Execute())

	var runs struct {
		Data []runJSON `json:"data"`
	}
	require.NoError(t, json.Unmarshal(histOut.Bytes(), &runs))
	require.Len(t, runs.Data, 1)
	assert.Equal(t, testutil.DefaultRunID, runs.Data[0].ID)
	assert.Equal(t, path, runs.Data[0].ConfigPath)
	assert.Equal(t, "exhausted", runs.Data[0].StopReason)
	assert.Equal(t, testutil.Epoch.Format("2006-01-02T15:04:05Z07:00"), runs.Data[0].StartedAt)

	// One run's compositions, in the order the search ranked them
	histOut.Reset()
	hist = NewHistoryCommand(&RootOptions{Format: "json"})
	hist.SetOut(histOut)
	hist.SetArgs([]string{"--db", dbPath, testutil.DefaultRunID})
	require.NoError(t, hist.Execute())

	var detail struct {
		Data runDetailJSON `json:"data"`
	}
	require.NoError(t, json.Unmarshal(histOut.Bytes(), &detail))
	require.Len(t, detail.Data.Compositions, len(resp.Data.Compositions))
	for i, c := range detail.Data.Compositions {
		assert.Equal(t, i+1, c.Rank)
		assert.Equal(t, resp.Data.Compositions[i].ID, c.ID)
		assert.Equal(t, resp.Data.Compositions[i].CallString, c.CallString)
		assert.Equal(t, 6, c.Stage)
		assert.Equal(t, []string{"Plain Bob Minor"}, c.Methods)
	}
}
