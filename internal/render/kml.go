package render

import (
	"encoding/xml"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb/geo"

	"notam_mapper/internal/geometry"
)

// KML structures for XML marshalling.
// These follow the KML 2.2 specification: https://developers.google.com/kml/documentation/kmlreference

// KML is the root element of a KML document.
type KML struct {
	XMLName   xml.Name `xml:"kml"`
	Namespace string   `xml:"xmlns,attr"`
	Document  Document `xml:"Document"`
}

// Document contains the document metadata and features.
type Document struct {
	Name        string      `xml:"name"`
	Description string      `xml:"description,omitempty"`
	LookAt      *LookAt     `xml:"LookAt,omitempty"`
	Styles      []Style     `xml:"Style,omitempty"`
	Placemarks  []Placemark `xml:"Placemark"`
}

// LookAt opens the view on the map center.
type LookAt struct {
	Longitude float64 `xml:"longitude"`
	Latitude  float64 `xml:"latitude"`
	Range     float64 `xml:"range"`
}

// Style defines the visual appearance of areas.
type Style struct {
	ID        string    `xml:"id,attr"`
	LineStyle LineStyle `xml:"LineStyle"`
	PolyStyle PolyStyle `xml:"PolyStyle"`
}

// LineStyle sets the outline colour (aabbggrr) and width.
type LineStyle struct {
	Color string  `xml:"color"`
	Width float64 `xml:"width"`
}

// PolyStyle sets the fill colour (aabbggrr).
type PolyStyle struct {
	Color string `xml:"color"`
}

// Placemark represents a named area. Exactly one geometry is set.
type Placemark struct {
	Name         string        `xml:"name"`
	Description  string        `xml:"description,omitempty"`
	StyleURL     string        `xml:"styleUrl,omitempty"`
	Point        *Point        `xml:"Point,omitempty"`
	LineString   *LineString   `xml:"LineString,omitempty"`
	Polygon      *Polygon      `xml:"Polygon,omitempty"`
	ExtendedData *ExtendedData `xml:"ExtendedData,omitempty"`
}

// Point represents a geographic location.
type Point struct {
	Coordinates string `xml:"coordinates"` // Format: lon,lat,altitude
}

// LineString is an open path.
type LineString struct {
	Coordinates string `xml:"coordinates"`
}

// Polygon is a closed area with an outer boundary.
type Polygon struct {
	OuterBoundaryIs OuterBoundary `xml:"outerBoundaryIs"`
}

// OuterBoundary wraps the outer ring.
type OuterBoundary struct {
	LinearRing LinearRing `xml:"LinearRing"`
}

// LinearRing is a closed list of coordinates.
type LinearRing struct {
	Coordinates string `xml:"coordinates"`
}

// ExtendedData holds custom data associated with a placemark.
type ExtendedData struct {
	Data []Data `xml:"Data"`
}

// Data represents a single piece of extended data.
type Data struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

// BuildKML converts a geometry list into a KML document. Circles are drawn as
// polygons approximated with segments great-circle steps.
func BuildKML(l geometry.List, name string, segments int) *KML {
	doc := Document{
		Name:        name,
		Description: fmt.Sprintf("%d circles, %d polygons", len(l.Circles), len(l.Polygons)),
		Styles: []Style{
			{ID: "circle", LineStyle: LineStyle{Color: "ff0000ff", Width: 2}, PolyStyle: PolyStyle{Color: "400000ff"}},
			{ID: "polygon", LineStyle: LineStyle{Color: "ffff0000", Width: 2}, PolyStyle: PolyStyle{Color: "40ff0000"}},
		},
		Placemarks: []Placemark{},
	}

	if center, err := Center(l); err == nil {
		doc.LookAt = &LookAt{Longitude: center.Lon, Latitude: center.Lat, Range: 100000}
	}

	for _, c := range l.Circles {
		ring := CircleRing(c, segments)
		doc.Placemarks = append(doc.Placemarks, Placemark{
			Name:        c.Name,
			Description: "Radius " + humanize.SIWithDigits(c.RadiusMeters, 2, "m"),
			StyleURL:    "#circle",
			Polygon:     &Polygon{OuterBoundaryIs: OuterBoundary{LinearRing: LinearRing{Coordinates: coordinates(ring)}}},
			ExtendedData: &ExtendedData{Data: []Data{
				{Name: "center", Value: c.Center.String()},
				{Name: "radius_m", Value: fmt.Sprintf("%.3f", c.RadiusMeters)},
				{Name: "geohash", Value: hash(c.Center)},
			}},
		})
	}

	for _, p := range l.Polygons {
		pm := Placemark{
			Name:     p.Name,
			StyleURL: "#polygon",
			ExtendedData: &ExtendedData{Data: []Data{
				{Name: "vertices", Value: fmt.Sprintf("%d", len(p.Vertices))},
			}},
		}

		switch len(p.Vertices) {
		case 0:
			continue
		case 1:
			pm.Point = &Point{Coordinates: coordinates(p.Vertices)}
		case 2:
			pm.LineString = &LineString{Coordinates: coordinates(p.Vertices)}
		default:
			pm.Polygon = &Polygon{OuterBoundaryIs: OuterBoundary{LinearRing: LinearRing{Coordinates: coordinates(closeRing(p.Vertices))}}}
			area := math.Abs(geo.Area(polygonGeometry(p.Vertices)))
			pm.Description = "Area " + humanize.Commaf(math.Round(area/1e4)/100) + " km²"
		}

		doc.Placemarks = append(doc.Placemarks, pm)
	}

	return &KML{
		Namespace: "http://www.opengis.net/kml/2.2",
		Document:  doc,
	}
}

// MarshalKML renders l as an indented KML file with the XML header.
func MarshalKML(l geometry.List, name string, segments int) ([]byte, error) {
	data, err := xml.MarshalIndent(BuildKML(l, name, segments), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal kml: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

func coordinates(cs []geometry.Coordinate) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%.6f,%.6f,0", c.Lon, c.Lat)
	}
	return strings.Join(parts, " ")
}

func closeRing(vs []geometry.Coordinate) []geometry.Coordinate {
	if len(vs) > 0 && vs[0] != vs[len(vs)-1] {
		return append(append([]geometry.Coordinate{}, vs...), vs[0])
	}
	return vs
}
