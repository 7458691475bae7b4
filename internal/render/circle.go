package render

import (
	geo "github.com/kellydunn/golang-geo"

	"notam_mapper/internal/geometry"
)

// DefaultCircleSegments is the number of ring segments used to approximate a circle.
const DefaultCircleSegments = 64

// CircleRing approximates a circle with a closed great-circle ring of the
// given number of segments. The first vertex is repeated at the end.
func CircleRing(c *geometry.Circle, segments int) []geometry.Coordinate {
	if segments < 3 {
		segments = DefaultCircleSegments
	}

	center := geo.NewPoint(c.Center.Lat, c.Center.Lon)
	radiusKm := c.RadiusMeters / 1000

	ring := make([]geometry.Coordinate, 0, segments+1)
	for i := 0; i < segments; i++ {
		bearing := 360 * float64(i) / float64(segments)
		p := center.PointAtDistanceAndBearing(radiusKm, bearing)
		ring = append(ring, geometry.Coordinate{Lat: p.Lat(), Lon: p.Lng()})
	}
	ring = append(ring, ring[0])

	return ring
}
