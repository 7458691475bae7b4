package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"notam_mapper/internal/geometry"
	"notam_mapper/internal/notam"
	"notam_mapper/internal/observability"
	_ "notam_mapper/internal/parsers"
	"notam_mapper/internal/registry"
)

const (
	circleText  = "E) TEST AREA CIRCLE WITH RADIUS 5 NM CENTERED ON 401200N 0734500W"
	polygonText = "E) RESTRICTED AREA BOUNDED BY LINES JOINING: 401200N 0734500W 402000N 0740000W 403000N 0743000W"
)

func TestExtractCircle(t *testing.T) {
	res, err := Extract(context.Background(), circleText, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Geometry.Circles) != 1 || len(res.Geometry.Polygons) != 0 {
		t.Fatalf("got %d circles, %d polygons", len(res.Geometry.Circles), len(res.Geometry.Polygons))
	}

	c := res.Geometry.Circles[0]
	if math.Abs(c.RadiusMeters-9260.005) > 1e-9 {
		t.Errorf("radius = %v, want 9260.005", c.RadiusMeters)
	}
	if math.Abs(c.Center.Lat-40.2) > 1e-9 || math.Abs(c.Center.Lon-(-73.75)) > 1e-9 {
		t.Errorf("center = %v, want (40.2, -73.75)", c.Center)
	}
}

// Western and southern positions used to be plotted unsigned, which put
// American NOTAMs in Asia. They are negative now.
func TestHemisphereSignCorrection(t *testing.T) {
	res, err := Extract(context.Background(),
		"E) X AREA CIRCLE WITH RADIUS 1 KM CENTERED ON 335200S 0734500W", Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	c := res.Geometry.Circles[0]
	if c.Center.Lat >= 0 {
		t.Errorf("southern latitude should be negative, got %v", c.Center.Lat)
	}
	if c.Center.Lon >= 0 {
		t.Errorf("western longitude should be negative, got %v", c.Center.Lon)
	}
}

func TestExtractMixedInTextOrder(t *testing.T) {
	text := circleText + "\n" + polygonText + "\n" +
		"E) SECOND AREA CIRCLE WITH RADIUS 1 KM CENTERED ON 402000N 0740000W"

	res, err := Extract(context.Background(), text, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Geometry.Circles) != 2 {
		t.Fatalf("got %d circles, want 2", len(res.Geometry.Circles))
	}
	if res.Geometry.Circles[0].Name != "TEST AREA CIRCLE WITH RADIUS 5 NM" ||
		res.Geometry.Circles[1].Name != "SECOND AREA CIRCLE WITH RADIUS 1 KM" {
		t.Errorf("circles out of order: %q, %q", res.Geometry.Circles[0].Name, res.Geometry.Circles[1].Name)
	}
	if len(res.Geometry.Polygons) != 1 || len(res.Geometry.Polygons[0].Vertices) != 3 {
		t.Fatalf("unexpected polygons: %+v", res.Geometry.Polygons)
	}
	if res.Geometry.Polygons[0].Name != "RESTRICTED AREA BOUNDED BY LINES JOINING:" {
		t.Errorf("polygon name = %q", res.Geometry.Polygons[0].Name)
	}
	if res.Summary() != "3 events found" {
		t.Errorf("Summary = %q", res.Summary())
	}
}

func TestExtractNoItemE(t *testing.T) {
	res, err := Extract(context.Background(), "AREA CIRCLE WITH RADIUS 5 NM CENTERED ON 401200N 0734500W", Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !res.Empty() || res.Partial() {
		t.Errorf("expected an empty, clean result: %+v", res)
	}
	if !errors.Is(res.Err(), geometry.ErrNoShapesFound) {
		t.Errorf("Err = %v, want ErrNoShapesFound", res.Err())
	}
	if res.Summary() != "No events found" {
		t.Errorf("Summary = %q", res.Summary())
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"geometry":{"circles":[],"polygons":[]},"diagnostics":[]}` {
		t.Errorf("JSON = %s", b)
	}
}

func TestExtractMarkerMustStartToken(t *testing.T) {
	testCases := []struct {
		name    string
		text    string
		circles int
	}{
		{"marker inside word", "Q) EGTT/QRRCA A) EGTT (REF ACTIVE) AREA CIRCLE WITH RADIUS 5 NM CENTERED ON 401200N 0734500W", 0},
		{"marker after dash", "A) EGTT -E) AREA CIRCLE WITH RADIUS 5 NM CENTERED ON 401200N 0734500W", 0},
		{"real marker after parenthesised word", "A) EGTT (REF ACTIVE) E) AREA CIRCLE WITH RADIUS 5 NM CENTERED ON 401200N 0734500W", 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Extract(context.Background(), tc.text, Options{})
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got := len(res.Geometry.Circles); got != tc.circles {
				t.Errorf("got %d circles, want %d", got, tc.circles)
			}
			if len(res.Diagnostics) != 0 {
				t.Errorf("unexpected diagnostics: %+v", res.Diagnostics)
			}
		})
	}
}

func TestExtractSkipsInvalid(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	metrics := observability.NewMetricsForTesting()

	text := "E) BAD AREA CIRCLE WITH RADIUS 5 NM CENTERED ON 401N 0734500W " + circleText
	res, err := Extract(context.Background(), text, Options{Logger: &logger, Metrics: metrics})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Geometry.Circles) != 1 {
		t.Fatalf("got %d circles, want 1", len(res.Geometry.Circles))
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(res.Diagnostics))
	}

	d := res.Diagnostics[0]
	if d.Parser != "circle" || d.Offset != len("E) BAD ") || d.Class != "malformed_coordinate" {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
	if !errors.Is(d.Err, geometry.ErrMalformedCoordinate) {
		t.Errorf("diagnostic error %v does not wrap ErrMalformedCoordinate", d.Err)
	}
	if !res.Partial() {
		t.Error("expected Partial")
	}
	if res.Summary() != "1 events found; 1 events could not be parsed" {
		t.Errorf("Summary = %q", res.Summary())
	}

	if !strings.Contains(logs.String(), `"level":"warn"`) || !strings.Contains(logs.String(), `"parser":"circle"`) {
		t.Errorf("expected a warn log for the skipped shape, got %s", logs.String())
	}

	if got := testutil.ToFloat64(metrics.Diagnostics.WithLabelValues("malformed_coordinate")); got != 1 {
		t.Errorf("diagnostics metric = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.ShapesExtracted.WithLabelValues("circle")); got != 1 {
		t.Errorf("shapes metric = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.TextsParsed); got != 1 {
		t.Errorf("texts metric = %v, want 1", got)
	}
}

func TestExtractAbortOnError(t *testing.T) {
	text := circleText + " E) BAD AREA BOUNDED BY LINES JOINING: 401200N 0734500W 951200N 0740000W" +
		" E) WORSE AREA CIRCLE WITH RADIUS 5 FT CENTERED ON 401200N 0734500W"

	_, err := Extract(context.Background(), text, Options{Policy: AbortOnError})
	if err == nil {
		t.Fatal("expected an error")
	}
	// The polygon comes first in the text, so its error wins.
	if !errors.Is(err, geometry.ErrMalformedCoordinate) {
		t.Errorf("err = %v, want ErrMalformedCoordinate", err)
	}
	if !strings.HasPrefix(err.Error(), "polygon at offset") {
		t.Errorf("err = %q", err)
	}
}

func TestExtractIdempotent(t *testing.T) {
	text := circleText + "\r\n" + polygonText + " E) X AREA CIRCLE WITH RADIUS 0 NM CENTERED ON 401200N 0734500W"

	first, err := Extract(context.Background(), text, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	second, err := Extract(context.Background(), text, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Errorf("runs differ:\n%s\n%s", a, b)
	}
}

func TestExtractLineBreakInvariant(t *testing.T) {
	a, _ := Extract(context.Background(), "E) TEST AREA CIRCLE WITH RADIUS 5 NM\nCENTERED ON 401200N 0734500W", Options{})
	b, _ := Extract(context.Background(), "E) TEST AREA CIRCLE WITH RADIUS 5 NM CENTERED ON 401200N 0734500W", Options{})

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Errorf("line break changed the result:\n%s\n%s", ja, jb)
	}
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Extract(ctx, circleText, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type stubParser struct {
	name  string
	prio  int
	calls *[]string
}

func (s stubParser) Name() string           { return s.name }
func (s stubParser) Priority() int          { return s.prio }
func (s stubParser) QuickCheck(string) bool { return true }
func (s stubParser) Parse(*notam.Message) ([]geometry.Shape, []registry.Failure) {
	*s.calls = append(*s.calls, s.name)
	return []geometry.Shape{&geometry.Circle{Name: s.name, RadiusMeters: 1}}, nil
}

func TestExtractCustomRegistryOrder(t *testing.T) {
	var calls []string
	reg := registry.New()
	reg.Register(stubParser{name: "late", prio: 50, calls: &calls})
	reg.Register(stubParser{name: "early", prio: 5, calls: &calls})

	res, err := Extract(context.Background(), "anything", Options{Registry: reg})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strings.Join(calls, ",") != "early,late" {
		t.Errorf("dispatch order = %v", calls)
	}
	if len(res.Geometry.Circles) != 2 || res.Geometry.Circles[0].Name != "early" {
		t.Errorf("unexpected circles: %+v", res.Geometry.Circles)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", SkipInvalid, false},
		{"skip", SkipInvalid, false},
		{"ABORT", AbortOnError, false},
		{"halt", SkipInvalid, true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if AbortOnError.String() != "abort" || SkipInvalid.String() != "skip" {
		t.Error("unexpected policy names")
	}
}
