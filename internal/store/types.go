package store

import "time"

// Run is one archived search.
type Run struct {
	// ID is the UUIDv7 run identifier.
	ID         string
	ConfigPath string
	// SearchHash groups runs of the same search (see ir.SearchHash).
	SearchHash    string
	StartedAt     time.Time
	Elapsed       time.Duration
	Nodes         int64
	StopReason    string
	EngineVersion string
}

// Composition is one composition as found by one run.
type Composition struct {
	// ID is the content hash shared by every run that found it.
	ID         string
	Stage      int
	PartHead   string
	Methods    []string
	Length     int
	CallString string

	// The fields below belong to the run: they depend on its music and
	// weights.
	Rank         int
	Score        float64
	AvgScore     float64
	MethodCounts []int
	MusicCounts  []int
}
