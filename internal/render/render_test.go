package render

import (
	"encoding/json"
	"strings"
	"testing"

	geo "github.com/kellydunn/golang-geo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notam_mapper/internal/geometry"
)

func sampleList() geometry.List {
	l := geometry.NewList()
	l.Add(&geometry.Circle{Name: "TEST AREA CIRCLE WITH RADIUS 5 NM", Center: geometry.Coordinate{Lat: 40.2, Lon: -73.75}, RadiusMeters: 9260.005})
	l.Add(&geometry.Polygon{Name: "TRIANGLE", Vertices: []geometry.Coordinate{
		{Lat: 40.2, Lon: -73.75}, {Lat: 40.3, Lon: -74}, {Lat: 40.5, Lon: -74.5},
	}})
	l.Add(&geometry.Polygon{Name: "POINT", Vertices: []geometry.Coordinate{{Lat: 41, Lon: -75}}})
	return l
}

func TestCenter(t *testing.T) {
	l := geometry.NewList()
	for _, c := range []geometry.Coordinate{{Lat: 10, Lon: -1}, {Lat: 30, Lon: -5}, {Lat: 20, Lon: -3}} {
		l.Add(&geometry.Circle{Name: "c", Center: c, RadiusMeters: 1})
	}
	l.Add(&geometry.Polygon{Name: "p", Vertices: []geometry.Coordinate{{Lat: 50, Lon: 50}}})

	c, err := Center(l)
	require.NoError(t, err)
	assert.Equal(t, geometry.Coordinate{Lat: 20, Lon: -3}, c)
}

func TestCenterEvenCount(t *testing.T) {
	l := geometry.NewList()
	l.Add(&geometry.Circle{Name: "a", Center: geometry.Coordinate{Lat: 10, Lon: 0}, RadiusMeters: 1})
	l.Add(&geometry.Circle{Name: "b", Center: geometry.Coordinate{Lat: 20, Lon: 4}, RadiusMeters: 1})

	c, err := Center(l)
	require.NoError(t, err)
	assert.InDelta(t, 15, c.Lat, 1e-12)
	assert.InDelta(t, 2, c.Lon, 1e-12)
}

func TestCenterPolygonFallback(t *testing.T) {
	l := geometry.NewList()
	l.Add(&geometry.Polygon{Name: "p", Vertices: []geometry.Coordinate{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}})

	c, err := Center(l)
	require.NoError(t, err)
	assert.Equal(t, geometry.Coordinate{Lat: 1, Lon: 2}, c)
}

func TestCenterNothingToDraw(t *testing.T) {
	_, err := Center(geometry.NewList())
	assert.ErrorIs(t, err, geometry.ErrAmbiguousMapCenter)
}

func TestCircleRing(t *testing.T) {
	c := &geometry.Circle{Center: geometry.Coordinate{Lat: 40.2, Lon: -73.75}, RadiusMeters: 9260.005}

	ring := CircleRing(c, 32)
	require.Len(t, ring, 33)
	assert.Equal(t, ring[0], ring[32])

	center := geo.NewPoint(c.Center.Lat, c.Center.Lon)
	for i, v := range ring {
		d := center.GreatCircleDistance(geo.NewPoint(v.Lat, v.Lon))
		assert.InDelta(t, 9.260005, d, 0.01, "vertex %d", i)
	}

	// North first.
	assert.Greater(t, ring[0].Lat, c.Center.Lat)
	assert.Len(t, CircleRing(c, 0), DefaultCircleSegments+1)
}

func TestFeatureCollection(t *testing.T) {
	fc := FeatureCollection(sampleList(), GeoJSONOptions{})
	require.Len(t, fc.Features, 3)

	circle := fc.Features[0]
	assert.Equal(t, "Point", circle.Geometry.GeoJSONType())
	assert.Equal(t, orb.Point{-73.75, 40.2}, circle.Geometry)
	assert.Equal(t, "TEST AREA CIRCLE WITH RADIUS 5 NM", circle.Properties["label"])
	assert.Equal(t, 9260.005, circle.Properties["radius_m"])
	assert.Equal(t, "9.26 km", circle.Properties["radius"])
	assert.Len(t, circle.Properties["geohash"], GeohashPrecision)

	triangle := fc.Features[1]
	poly, ok := triangle.Geometry.(orb.Polygon)
	require.True(t, ok, "expected polygon, got %T", triangle.Geometry)
	require.Len(t, poly[0], 4)
	assert.True(t, poly[0].Closed())
	assert.Greater(t, triangle.Properties["area_m2"], 0.0)
	assert.Equal(t, "TRIANGLE", triangle.Properties["label"])
	assert.Contains(t, triangle.Properties, "label_point")

	point := fc.Features[2]
	assert.Equal(t, "Point", point.Geometry.GeoJSONType())

	require.NotNil(t, fc.BBox)
	assert.Equal(t, geojson.BBox{-75, 40.2, -73.75, 41}, fc.BBox)
}

func TestFeatureCollectionTwoVerticesIsLine(t *testing.T) {
	l := geometry.NewList()
	l.Add(&geometry.Polygon{Name: "LINE", Vertices: []geometry.Coordinate{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}})

	fc := FeatureCollection(l, GeoJSONOptions{})
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.GeoJSONType())
}

func TestFeatureCollectionCircleAsPolygon(t *testing.T) {
	fc := FeatureCollection(sampleList(), GeoJSONOptions{CircleSegments: 16})
	poly, ok := fc.Features[0].Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Len(t, poly[0], 17)
}

func TestGeoJSONRoundTrip(t *testing.T) {
	b, err := GeoJSON(sampleList(), GeoJSONOptions{})
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(b)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)
	assert.Equal(t, "TRIANGLE", fc.Features[1].Properties.MustString("label"))
}

func TestGeoJSONEmpty(t *testing.T) {
	b, err := GeoJSON(geometry.NewList(), GeoJSONOptions{})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "FeatureCollection", raw["type"])
	assert.Empty(t, raw["features"])
	assert.NotContains(t, raw, "bbox")
}

func TestMarshalKML(t *testing.T) {
	l := sampleList()
	l.Add(&geometry.Polygon{Name: "LINE", Vertices: []geometry.Coordinate{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}})

	b, err := MarshalKML(l, "NOTAM Map", 8)
	require.NoError(t, err)
	out := string(b)

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<kml xmlns="http://www.opengis.net/kml/2.2">`)
	assert.Equal(t, 4, strings.Count(out, "<Placemark>"))
	assert.Equal(t, 2, strings.Count(out, "<LinearRing>"))
	assert.Equal(t, 1, strings.Count(out, "<LineString>"))
	assert.Equal(t, 1, strings.Count(out, "<Point>"))
	assert.Contains(t, out, "<name>TEST AREA CIRCLE WITH RADIUS 5 NM</name>")
	assert.Contains(t, out, "Radius 9.26 km")
	assert.Contains(t, out, "<LookAt>")

	// The triangle ring is closed on output.
	assert.Contains(t, out, "-73.750000,40.200000,0 -74.000000,40.300000,0 -74.500000,40.500000,0 -73.750000,40.200000,0")
}

func TestBuildKMLEmpty(t *testing.T) {
	k := BuildKML(geometry.NewList(), "empty", 0)
	assert.Empty(t, k.Document.Placemarks)
	assert.Nil(t, k.Document.LookAt)
}
