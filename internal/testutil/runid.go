package testutil

// FixedRunIDGenerator returns the same run ID every time.
//
// This keeps archived runs and JSON output byte-identical between test
// runs, so they can be compared against golden files.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// DefaultRunID is used when NewFixedRunIDGenerator is given an empty ID.
const DefaultRunID = "00000000-0000-7000-8000-000000000001"

// NewFixedRunIDGenerator creates a generator that always returns id.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID.
//
// Implements ir.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
