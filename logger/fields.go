package logger

// Standard field names for consistent structured logging across cfw.
// Use these constants instead of raw strings to ensure consistency.
const (
	FieldComponent = "component"
	FieldStage     = "stage"

	// Declarations
	FieldFunction  = "function"
	FieldAggregate = "aggregate"
	FieldReason    = "reason"

	// Files and paths
	FieldFile    = "file"
	FieldLine    = "line"
	FieldHeader  = "header"
	FieldInclude = "include"
	FieldPath    = "path"

	// Counts and timing
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"
)
