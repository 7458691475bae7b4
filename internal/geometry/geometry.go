// Package geometry holds the records produced by the NOTAM shape parsers.
// Records are plain values: they are built once and never modified.
package geometry

import "fmt"

// Coordinate is a WGS-84 position in signed decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the coordinate lies within the valid lat/lon ranges.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %.6f out of range", ErrMalformedCoordinate, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %.6f out of range", ErrMalformedCoordinate, c.Lon)
	}
	return nil
}

// String formats the coordinate as "lat,lon" with six decimals.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Shape is implemented by every geometry record.
type Shape interface {
	Kind() string
	Label() string
}

// Circle is a named circular area.
type Circle struct {
	Name         string     `json:"name"`
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_m"`
}

func (c *Circle) Kind() string  { return "circle" }
func (c *Circle) Label() string { return c.Name }

// Polygon is a named area bounded by straight lines between vertices.
// A single-vertex polygon is kept as-is; renderers decide how to draw it.
type Polygon struct {
	Name     string       `json:"name"`
	Vertices []Coordinate `json:"vertices"`
}

func (p *Polygon) Kind() string  { return "polygon" }
func (p *Polygon) Label() string { return p.Name }

// List is the ordered output of one parse: circles and polygons in the
// order they appear in the text.
type List struct {
	Circles  []*Circle  `json:"circles"`
	Polygons []*Polygon `json:"polygons"`
}

// NewList returns a List with empty, non-nil collections.
func NewList() List {
	return List{
		Circles:  []*Circle{},
		Polygons: []*Polygon{},
	}
}

// Add appends a shape to the matching collection.
func (l *List) Add(s Shape) {
	switch v := s.(type) {
	case *Circle:
		l.Circles = append(l.Circles, v)
	case *Polygon:
		l.Polygons = append(l.Polygons, v)
	}
}

// Len returns the total number of shapes.
func (l List) Len() int {
	return len(l.Circles) + len(l.Polygons)
}

// Empty reports whether neither collection holds a shape.
func (l List) Empty() bool {
	return l.Len() == 0
}
