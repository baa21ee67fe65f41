package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run record with minimal required fields.
func createTestRun(id, searchHash string) Run {
	return Run{
		ID:            id,
		ConfigPath:    "search.toml",
		SearchHash:    searchHash,
		StartedAt:     testutil.Epoch,
		Elapsed:       1500 * time.Millisecond,
		Nodes:         12345,
		StopReason:    "exhausted",
		EngineVersion: ir.EngineVersion,
	}
}

// createTestComposition creates a Plain Bob Minor composition whose ID is
// its real content hash.
func createTestComposition(callString string, length, rank int, score float64) Composition {
	methods := []string{"Plain Bob Minor"}
	return Composition{
		ID:           ir.MustCompositionID(6, "123456", methods, 0, callString, length),
		Stage:        6,
		PartHead:     "123456",
		Methods:      methods,
		Length:       length,
		CallString:   callString,
		Rank:         rank,
		Score:        score,
		AvgScore:     score / float64(length),
		MethodCounts: []int{length},
		MusicCounts:  []int{3, 1},
	}
}
