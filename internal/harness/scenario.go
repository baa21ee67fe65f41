package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a search test scenario.
// A scenario runs one search and asserts on the compositions it finds and
// on what the results archive holds afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the path of a TOML search configuration. Relative paths
	// are resolved against the scenario file's directory.
	Config string `yaml:"config,omitempty"`

	// Search is an inline TOML search configuration, used instead of
	// Config.
	Search string `yaml:"search,omitempty"`

	// Workers is the number of search workers. Defaults to 2.
	Workers int `yaml:"workers,omitempty"`

	// NodeLimit stops the search after this many expansions (0 = unlimited).
	NodeLimit int64 `yaml:"node_limit,omitempty"`

	// Expect specifies how the search should end. If nil, the search must
	// run without a setup error.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the compositions and the archive.
	// Supported types: result_count, result_contains, result_order,
	// lengths, all_true, archived
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run ID for deterministic tests.
	// If empty, defaults to testutil.DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	// BaseDir resolves relative paths inside an inline configuration,
	// such as music_file. Set by LoadScenarioWithBasePath.
	BaseDir string `yaml:"-"`
}

// ExpectClause specifies expected search outcome.
type ExpectClause struct {
	// Status is "ok" (the default) or "error" for a configuration the
	// search must refuse.
	Status string `yaml:"status,omitempty"`

	// ErrorCode is the expected setup error code (e.g., "E003").
	// Only used when Status is "error".
	ErrorCode string `yaml:"error_code,omitempty"`

	// StopReason is the expected reason the search ended.
	StopReason string `yaml:"stop_reason,omitempty"`
}

// Expected outcome statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Assertion validates search results or archive contents.
type Assertion struct {
	// Type specifies the assertion type:
	// - "result_count": Check exactly Count compositions were kept
	// - "result_contains": Check a composition with CallString (and Length) was kept
	// - "result_order": Check call strings appear in this rank order
	// - "lengths": Check every length lies in [Min, Max] and is a multiple of Step
	// - "all_true": Check no composition repeats a row
	// - "archived": Check the archive holds the run's compositions in rank order
	Type string `yaml:"type"`

	// CallString is the expected call string (used by result_contains).
	// A pointer so that the empty call string of a plain course can be asked for.
	CallString *string `yaml:"call_string,omitempty"`

	// Length is the expected composition length (used by result_contains).
	// Zero matches any length.
	Length int `yaml:"length,omitempty"`

	// Count is the expected number of compositions (used by result_count).
	Count int `yaml:"count,omitempty"`

	// CallStrings is the expected rank order (used by result_order).
	CallStrings []string `yaml:"call_strings,omitempty"`

	// Min, Max and Step bound composition lengths (used by lengths).
	Min  int `yaml:"min,omitempty"`
	Max  int `yaml:"max,omitempty"`
	Step int `yaml:"step,omitempty"`
}

// Assertion type constants.
const (
	AssertResultCount    = "result_count"
	AssertResultContains = "result_contains"
	AssertResultOrder    = "result_order"
	AssertLengths        = "lengths"
	AssertAllTrue        = "all_true"
	AssertArchived       = "archived"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the config path relative to the provided base path.
// This is useful when scenario files reference configurations using
// relative paths.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the config path relative to base path BEFORE validation
	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) && basePath != "" {
		scenario.Config = filepath.Join(basePath, scenario.Config)
	}
	scenario.BaseDir = basePath

	// Validate required fields (now with resolved paths)
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// expectsError reports whether the scenario expects a setup error.
func (s *Scenario) expectsError() bool {
	return s.Expect != nil && s.Expect.Status == StatusError
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Config == "" && s.Search == "":
		return fmt.Errorf("one of config or search is required")
	case s.Config != "" && s.Search != "":
		return fmt.Errorf("config and search are mutually exclusive")
	}

	// Validate config path exists
	if s.Config != "" {
		if _, err := os.Stat(s.Config); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", s.Config)
		}
	}

	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if s.NodeLimit < 0 {
		return fmt.Errorf("node_limit must be non-negative")
	}

	if s.Expect != nil {
		switch s.Expect.Status {
		case "", StatusOK:
			if s.Expect.ErrorCode != "" {
				return fmt.Errorf("expect: error_code requires status %q", StatusError)
			}
		case StatusError:
			if s.Expect.ErrorCode == "" {
				return fmt.Errorf("expect: error_code is required when status is %q", StatusError)
			}
			if len(s.Assertions) > 0 {
				return fmt.Errorf("assertions cannot run when the search is expected to fail")
			}
		default:
			return fmt.Errorf("expect: unknown status %q", s.Expect.Status)
		}
	}

	if len(s.Assertions) == 0 && !s.expectsError() {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertResultCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for result_count", index)
		}
	case AssertResultContains:
		if a.CallString == nil {
			return fmt.Errorf("assertions[%d]: call_string is required for result_contains", index)
		}
	case AssertResultOrder:
		if len(a.CallStrings) == 0 {
			return fmt.Errorf("assertions[%d]: call_strings list is required for result_order", index)
		}
	case AssertLengths:
		if a.Max != 0 && a.Min > a.Max {
			return fmt.Errorf("assertions[%d]: min exceeds max for lengths", index)
		}
		if a.Step < 0 {
			return fmt.Errorf("assertions[%d]: step must be non-negative for lengths", index)
		}
	case AssertAllTrue, AssertArchived:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
