package patterns

import "testing"

func TestCompilerFindAll(t *testing.T) {
	c := NewCompiler([]Format{VertexFormat}, nil)
	if err := c.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	matches := c.FindAll(" 401200N 0734500W - 402000n 0740000W 403000N0750000W", "vertex")
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}

	want := []struct{ lat, latDir, lon, lonDir string }{
		{"401200", "N", "0734500", "W"},
		{"402000", "N", "0740000", "W"},
		{"403000", "N", "0750000", "W"},
	}
	for i, w := range want {
		m := matches[i]
		if m.Captures["lat"] != w.lat || m.Captures["lat_dir"] != w.latDir ||
			m.Captures["lon"] != w.lon || m.Captures["lon_dir"] != w.lonDir {
			t.Errorf("match %d = %v, want %+v", i, m.Captures, w)
		}
	}
	if matches[0].Offset != 0 {
		t.Errorf("first offset = %d, want 0", matches[0].Offset)
	}
	if matches[1].Offset <= matches[0].Offset {
		t.Errorf("offsets not increasing: %d, %d", matches[0].Offset, matches[1].Offset)
	}
}

func TestCompilerUnknownFormat(t *testing.T) {
	c := MustCompile([]Format{VertexFormat}, nil)
	if got := c.FindAll("401200N 0734500W", "circle"); len(got) != 0 {
		t.Errorf("unknown format returned %d matches", len(got))
	}
}

func TestCompilerLocalPatternOverride(t *testing.T) {
	c := MustCompile([]Format{{Name: "unit", Pattern: `(?P<unit>{UNIT})`}}, map[string]string{"UNIT": "FT"})
	matches := c.FindAll("100 FT", "unit")
	if len(matches) != 1 || matches[0].GetCapture("unit", "") != "FT" {
		t.Fatalf("local override not applied: %+v", matches)
	}
}

func TestCompileError(t *testing.T) {
	c := NewCompiler([]Format{{Name: "bad", Pattern: `(?P<x>`}}, nil)
	if err := c.Compile(); err == nil {
		t.Error("expected compile error")
	}
}

func TestParseWithTrace(t *testing.T) {
	c := MustCompile([]Format{VertexFormat}, nil)

	trace := c.ParseWithTrace("401200N 0734500W 402000N 0740000W")
	if len(trace.Formats) != 1 || !trace.Formats[0].Matched || trace.Formats[0].Count != 2 {
		t.Errorf("unexpected trace: %+v", trace.Formats)
	}
	if trace.Match == nil || trace.Match.GetCapture("lat", "") != "401200" {
		t.Errorf("trace match = %+v", trace.Match)
	}

	trace = c.ParseWithTrace("NOTHING HERE")
	if trace.Match != nil || trace.Formats[0].Matched {
		t.Error("expected no match")
	}
}

func TestGetCaptureNil(t *testing.T) {
	var m *Match
	if m.GetCapture("x", "def") != "def" {
		t.Error("nil match should return default")
	}
}
