package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - Written files, errors with hints, unmockable signatures, final status
//	1 (-v)      - + Generation stages, dropped declarations, duplicates
//	2 (-vv)     - + Config values, header lookup, parse cache hits
//	3 (-vvv)    - + Every parsed declaration

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputFiles      OutputCategory = iota // Files written
	OutputErrors                           // Errors with hints
	OutputUserStatus                       // Final success/failure status
	OutputUnmockable                       // Signatures omitted from the mock document

	// Level 1 (-v) - Informational
	OutputStages     // Generation stage announcements
	OutputDropped    // Declarations skipped by the normalizer
	OutputDuplicates // Duplicate function names (first discovered wins)

	// Level 2 (-vv) - Detailed
	OutputConfig       // Config values loaded/applied
	OutputHeaderLookup // Include-path lookups
	OutputCache        // Parse cache hits and misses

	// Level 3 (-vvv) - Trace
	OutputDeclarations // Every parsed declaration
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputFiles:      VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,
	OutputUnmockable: VerbosityUser,

	OutputStages:     VerbosityInfo,
	OutputDropped:    VerbosityInfo,
	OutputDuplicates: VerbosityInfo,

	OutputConfig:       VerbosityDebug,
	OutputHeaderLookup: VerbosityDebug,
	OutputCache:        VerbosityDebug,

	OutputDeclarations: VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputFiles:        "files",
	OutputErrors:       "errors",
	OutputUserStatus:   "status",
	OutputStages:       "stages",
	OutputDropped:      "dropped",
	OutputDuplicates:   "duplicates",
	OutputUnmockable:   "unmockable",
	OutputConfig:       "config",
	OutputHeaderLookup: "header-lookup",
	OutputCache:        "cache",
	OutputDeclarations: "declarations",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
