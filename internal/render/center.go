// Package render turns a geometry list into map artefacts: a view center,
// GeoJSON and KML.
package render

import (
	"sort"

	"notam_mapper/internal/geometry"
)

// Center returns the point a map view should open on: the median of the
// circle centers, else the first vertex of the first polygon.
func Center(l geometry.List) (geometry.Coordinate, error) {
	if len(l.Circles) > 0 {
		lats := make([]float64, len(l.Circles))
		lons := make([]float64, len(l.Circles))
		for i, c := range l.Circles {
			lats[i] = c.Center.Lat
			lons[i] = c.Center.Lon
		}
		return geometry.Coordinate{Lat: median(lats), Lon: median(lons)}, nil
	}

	for _, p := range l.Polygons {
		if len(p.Vertices) > 0 {
			return p.Vertices[0], nil
		}
	}

	return geometry.Coordinate{}, geometry.ErrAmbiguousMapCenter
}

// median sorts vs in place. Even counts average the two middle values.
func median(vs []float64) float64 {
	sort.Float64s(vs)
	n := len(vs)
	if n%2 == 1 {
		return vs[n/2]
	}
	return (vs[n/2-1] + vs[n/2]) / 2
}
