package ir

// Version constants.
const (
	// SchemaVersion is the results archive schema version.
	SchemaVersion = "1"

	// EngineVersion is the ringer search engine version.
	EngineVersion = "0.1.0"
)
