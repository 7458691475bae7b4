package render

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/gansidui/geohash"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"notam_mapper/internal/geometry"
)

// GeohashPrecision is the geohash length attached to features (about 150 m cells).
const GeohashPrecision = 7

// GeoJSONOptions controls feature output.
type GeoJSONOptions struct {
	// CircleSegments > 0 emits circles as polygons with that many segments
	// instead of center points carrying a radius property.
	CircleSegments int
}

// FeatureCollection builds one feature per shape, circles first, each in
// text order. Every feature carries its name as the "label" property.
func FeatureCollection(l geometry.List, opts GeoJSONOptions) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	var all orb.Collection

	for _, c := range l.Circles {
		var g orb.Geometry = toPoint(c.Center)
		if opts.CircleSegments > 0 {
			g = orb.Polygon{toRing(CircleRing(c, opts.CircleSegments))}
		}

		f := geojson.NewFeature(g)
		f.Properties["kind"] = c.Kind()
		f.Properties["label"] = c.Name
		f.Properties["radius_m"] = c.RadiusMeters
		f.Properties["radius"] = humanize.SIWithDigits(c.RadiusMeters, 2, "m")
		f.Properties["geohash"] = hash(c.Center)
		fc.Append(f)
		all = append(all, g)
	}

	for _, p := range l.Polygons {
		g := polygonGeometry(p.Vertices)
		if g == nil {
			continue
		}

		f := geojson.NewFeature(g)
		f.Properties["kind"] = p.Kind()
		f.Properties["label"] = p.Name
		f.Properties["vertices"] = len(p.Vertices)
		f.Properties["geohash"] = hash(p.Vertices[0])
		if poly, ok := g.(orb.Polygon); ok {
			f.Properties["area_m2"] = math.Abs(geo.Area(poly))
			centroid, _ := planar.CentroidArea(poly)
			f.Properties["label_point"] = []float64{centroid.Lon(), centroid.Lat()}
		}
		fc.Append(f)
		all = append(all, g)
	}

	if len(all) > 0 {
		fc.BBox = geojson.NewBBox(all.Bound())
	}

	return fc
}

// GeoJSON marshals the feature collection for l.
func GeoJSON(l geometry.List, opts GeoJSONOptions) ([]byte, error) {
	return FeatureCollection(l, opts).MarshalJSON()
}

// polygonGeometry degrades gracefully: one vertex is a point, two are a
// line, three or more a closed polygon.
func polygonGeometry(vertices []geometry.Coordinate) orb.Geometry {
	switch len(vertices) {
	case 0:
		return nil
	case 1:
		return toPoint(vertices[0])
	case 2:
		return orb.LineString{toPoint(vertices[0]), toPoint(vertices[1])}
	default:
		return orb.Polygon{toRing(vertices)}
	}
}

func toPoint(c geometry.Coordinate) orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// toRing closes the ring if the text did not repeat the first vertex.
func toRing(vertices []geometry.Coordinate) orb.Ring {
	ring := make(orb.Ring, 0, len(vertices)+1)
	for _, v := range vertices {
		ring = append(ring, toPoint(v))
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

func hash(c geometry.Coordinate) string {
	h, _ := geohash.Encode(c.Lat, c.Lon, GeohashPrecision)
	return h
}
