// Package patterns provides shared regex patterns and helper functions for NOTAM parsing.
// This file contains grok-style base patterns for use with the Compiler.

package patterns

// BasePatterns defines reusable regex components for grok-style pattern composition.
// These are referenced in format patterns using {PATTERN_NAME} syntax.
var BasePatterns = map[string]string{
	// Item E) marker opening the free-text field. It must start a token so
	// words such as "(ACTIVE)" never open a field.
	"ITEM_E": `(?:^|\s)E\)`,

	// Coordinates. Tokens are DDMM[SS[.s]] / DDDMM[SS[.s]]; the decoder
	// enforces the field widths, the pattern only requires digits.
	"LAT":     `\d+(?:\.\d+)?`,
	"LAT_DIR": `[NS]`,
	"LON":     `\d+(?:\.\d+)?`,
	"LON_DIR": `[EW]`,

	// Separator before a boundary pair: optional dash, optional space.
	// e.g. "401200N 0734500W - 402000N 0740000W"
	"PAIR_SEP": `(?:\s*-)?\s?`,

	// Radius and unit. NM is listed before M so "NM" never matches as "M";
	// any other word is captured so the converter can reject it.
	"RADIUS": `\d+(?:\.\d*)?|\.\d+`,
	"UNIT":   `NM|KM|M|[A-Z]+`,
}
