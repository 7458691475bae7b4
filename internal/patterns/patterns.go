// Package patterns provides shared regex patterns and helper functions for NOTAM parsing.
package patterns

// Literal phrases of the two shape dialects.
const (
	ItemEMarker    = "E)"
	CirclePhrase   = "AREA CIRCLE WITH RADIUS"
	CenteredPhrase = "CENTERED ON"
	BoundaryPhrase = "AREA BOUNDED BY LINES JOINING:"
)

// VertexFormat matches one boundary pair. Parsers scan a captured boundary
// with it to recover vertices in text order.
var VertexFormat = Format{
	Name:    "vertex",
	Pattern: `{PAIR_SEP}(?P<lat>{LAT})(?P<lat_dir>{LAT_DIR}) ?(?P<lon>{LON})(?P<lon_dir>{LON_DIR})`,
	Fields:  []string{"lat", "lat_dir", "lon", "lon_dir"},
}
