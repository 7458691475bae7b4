// Package circle provides grok-style pattern definitions for circular NOTAM areas.
package circle

import "notam_mapper/internal/patterns"

// Formats defines the circle dialect.
var Formats = []patterns.Format{
	// Example: E) PARACHUTE JUMPING AREA CIRCLE WITH RADIUS 5 NM CENTERED ON 401200N 0734500W
	// Groups: prefix, keyword, radius, unit, centered, lat, lat_dir, lon, lon_dir
	{
		Name: "circle",
		Pattern: `{ITEM_E}(?P<prefix>.*?)(?P<keyword>AREA CIRCLE WITH RADIUS) ` +
			`(?P<radius>{RADIUS}) ?(?P<unit>{UNIT}) (?P<centered>CENTERED ON) ` +
			`(?P<lat>{LAT}) ?(?P<lat_dir>{LAT_DIR}) ?(?P<lon>{LON}) ?(?P<lon_dir>{LON_DIR})`,
		Fields: []string{"prefix", "keyword", "radius", "unit", "centered", "lat", "lat_dir", "lon", "lon_dir"},
	},
}
