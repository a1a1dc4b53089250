package ir

// Version constants for the manifest and engine.
const (
	// ManifestVersion is the contract manifest schema version.
	ManifestVersion = "1"

	// EngineVersion is the bookledger engine version.
	EngineVersion = "0.1.0"
)
