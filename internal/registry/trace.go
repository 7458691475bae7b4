// Package registry provides tracing interfaces for parser debugging.
package registry

import "notam_mapper/internal/notam"

// TraceResult contains trace information from a parser's attempt to parse a message.
type TraceResult struct {
	ParserName string        // Name of the parser.
	QuickCheck *QuickCheck   // QuickCheck result (nil if not applicable).
	Formats    []FormatTrace // Format/pattern match attempts.
	Extractors []Extractor   // Per-occurrence decode results.
	Matched    bool          // Whether the parser produced at least one shape.
}

// QuickCheck contains the result of a parser's quick check.
type QuickCheck struct {
	Passed bool   // Whether the quick check passed.
	Reason string // Optional reason for the result.
}

// FormatTrace contains debug information about a format/pattern match attempt.
type FormatTrace struct {
	Name     string            // Format or pattern name.
	Matched  bool              // Whether the pattern matched.
	Pattern  string            // The regex pattern used.
	Captures map[string]string // Captured groups of the first occurrence (if matched).
	Count    int               // Occurrences found.
}

// Extractor contains debug information about decoding one occurrence.
type Extractor struct {
	Name    string // Occurrence label, e.g. "circle@12".
	Pattern string // Text that was decoded.
	Matched bool   // Whether decoding succeeded.
	Value   string // Decoded record, or the error.
}

// Traceable is implemented by parsers that support debug tracing.
// This allows the debug command to show detailed information about
// why a parser did or didn't find shapes in a message.
type Traceable interface {
	// ParseWithTrace attempts to parse the message and returns detailed trace information.
	ParseWithTrace(msg *notam.Message) *TraceResult
}
