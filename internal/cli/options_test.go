package cli

import (
	"runtime"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringer/internal/engine"
	"github.com/roach88/ringer/internal/graph"
)

func newOptionsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addRuntimeFlags(cmd)
	return cmd
}

func TestLoadRuntimeOptions_Defaults(t *testing.T) {
	opts, err := loadRuntimeOptions(newOptionsCommand())
	require.NoError(t, err)

	assert.Equal(t, RuntimeOptions{
		Workers:        runtime.NumCPU(),
		QueueLimit:     engine.DefaultQueueLimit,
		GraphSizeLimit: graph.DefaultSizeLimit,
	}, opts)
}

func TestLoadRuntimeOptions_Environment(t *testing.T) {
	t.Setenv("RINGER_WORKERS", "3")
	t.Setenv("RINGER_NODE_LIMIT", "5000")
	t.Setenv("RINGER_TIME_LIMIT", "30s")
	t.Setenv("RINGER_DB", "/tmp/results.db")

	opts, err := loadRuntimeOptions(newOptionsCommand())
	require.NoError(t, err)

	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, int64(5000), opts.NodeLimit)
	assert.Equal(t, 30*time.Second, opts.TimeLimit)
	assert.Equal(t, "/tmp/results.db", opts.DB)
}

func TestLoadRuntimeOptions_FlagsWinOverEnvironment(t *testing.T) {
	t.Setenv("RINGER_WORKERS", "3")
	t.Setenv("RINGER_QUEUE_LIMIT", "100")

	cmd := newOptionsCommand()
	require.NoError(t, cmd.Flags().Set("workers", "5"))

	opts, err := loadRuntimeOptions(cmd)
	require.NoError(t, err)

	assert.Equal(t, 5, opts.Workers)
	assert.Equal(t, 100, opts.QueueLimit)
}

func TestLoadRuntimeOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		flag string
		val  string
		want string
	}{
		{"no workers", "workers", "0", "workers must be at least 1"},
		{"negative node limit", "node-limit", "-1", "cannot be negative"},
		{"negative queue limit", "queue-limit", "-5", "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newOptionsCommand()
			require.NoError(t, cmd.Flags().Set(tt.flag, tt.val))

			_, err := loadRuntimeOptions(cmd)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRuntimeOptions_EngineOptions(t *testing.T) {
	opts := RuntimeOptions{Workers: 2, NodeLimit: 10, TimeLimit: time.Second, QueueLimit: 100}
	assert.Len(t, opts.engineOptions(), 4)
}
