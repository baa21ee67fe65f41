package cli

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/ringer/internal/engine"
	"github.com/roach88/ringer/internal/graph"
)

// EnvPrefix is the prefix of environment variables read for runtime
// options, e.g. RINGER_WORKERS.
const EnvPrefix = "RINGER"

// RuntimeOptions are the knobs that change how a search runs but not what
// it finds. They come from flags, then RINGER_* environment variables,
// then defaults.
type RuntimeOptions struct {
	Workers        int
	NodeLimit      int64
	TimeLimit      time.Duration
	QueueLimit     int
	GraphSizeLimit int
	DB             string
}

// runtimeFlag ties a viper key to its flag name.
type runtimeFlag struct {
	key, flag string
}

var runtimeFlags = []runtimeFlag{
	{"workers", "workers"},
	{"node_limit", "node-limit"},
	{"time_limit", "time-limit"},
	{"queue_limit", "queue-limit"},
	{"graph_size_limit", "graph-size-limit"},
	{"db", "db"},
}

// addRuntimeFlags registers the runtime option flags on cmd.
func addRuntimeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("workers", runtime.NumCPU(), "number of search workers")
	f.Int64("node-limit", 0, "stop after expanding this many nodes (0 = unlimited)")
	f.Duration("time-limit", 0, "stop after this much wall-clock time (0 = unlimited)")
	f.Int("queue-limit", engine.DefaultQueueLimit, "stop when this many nodes wait in the frontier (0 = unlimited)")
	f.Int("graph-size-limit", graph.DefaultSizeLimit, "fail when the chunk graph grows past this many chunks")
	f.String("db", "", "archive runs and compositions in this SQLite database")
}

// optionViper binds whichever runtime option flags cmd has to a viper
// instance that also reads RINGER_* environment variables.
func optionViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, rf := range runtimeFlags {
		fl := cmd.Flags().Lookup(rf.flag)
		if fl == nil {
			continue
		}
		if err := v.BindPFlag(rf.key, fl); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", rf.flag, err)
		}
	}
	return v, nil
}

// loadRuntimeOptions resolves the runtime options for cmd. Flags set on
// the command line win over the environment, which wins over defaults.
func loadRuntimeOptions(cmd *cobra.Command) (RuntimeOptions, error) {
	v, err := optionViper(cmd)
	if err != nil {
		return RuntimeOptions{}, err
	}

	opts := RuntimeOptions{
		Workers:        v.GetInt("workers"),
		NodeLimit:      v.GetInt64("node_limit"),
		TimeLimit:      v.GetDuration("time_limit"),
		QueueLimit:     v.GetInt("queue_limit"),
		GraphSizeLimit: v.GetInt("graph_size_limit"),
		DB:             v.GetString("db"),
	}
	if opts.Workers < 1 {
		return RuntimeOptions{}, fmt.Errorf("workers must be at least 1, got %d", opts.Workers)
	}
	if opts.NodeLimit < 0 || opts.TimeLimit < 0 || opts.QueueLimit < 0 || opts.GraphSizeLimit < 0 {
		return RuntimeOptions{}, fmt.Errorf("limits cannot be negative")
	}
	return opts, nil
}

// engineOptions converts the runtime options into engine options.
func (o RuntimeOptions) engineOptions() []engine.Option {
	return []engine.Option{
		engine.WithWorkers(o.Workers),
		engine.WithNodeLimit(o.NodeLimit),
		engine.WithTimeLimit(o.TimeLimit),
		engine.WithQueueLimit(o.QueueLimit),
	}
}
