// Package polygon provides grok-style pattern definitions for bounded NOTAM areas.
package polygon

import "notam_mapper/internal/patterns"

// Formats defines the polygon dialect. The boundary capture holds only the
// coordinate pairs; it is rescanned with the vertex format.
var Formats = []patterns.Format{
	// Example: E) TEMPO RESTRICTED AREA BOUNDED BY LINES JOINING: 401200N 0734500W - 402000N 0740000W
	// Groups: prefix, keyword, boundary
	{
		Name: "polygon",
		Pattern: `{ITEM_E}(?P<prefix>.*?)(?P<keyword>AREA BOUNDED BY LINES JOINING:)` +
			`(?P<boundary>(?:{PAIR_SEP}{LAT}{LAT_DIR} ?{LON}{LON_DIR})*)`,
		Fields: []string{"prefix", "keyword", "boundary"},
	},
	patterns.VertexFormat,
}
