// Package circle parses "AREA CIRCLE WITH RADIUS" shapes from NOTAM Item E text.
package circle

import (
	"fmt"
	"strings"
	"sync"

	"notam_mapper/internal/geometry"
	"notam_mapper/internal/notam"
	"notam_mapper/internal/patterns"
	"notam_mapper/internal/registry"
)

const snippetLen = 96

// Parser extracts circles.
type Parser struct{}

// Grok compiler singleton.
var (
	grokCompiler *patterns.Compiler
	grokOnce     sync.Once
)

// getCompiler returns the singleton grok compiler. The formats are fixed at
// build time, so a bad pattern panics on first use.
func getCompiler() *patterns.Compiler {
	grokOnce.Do(func() {
		grokCompiler = patterns.MustCompile(Formats, nil)
	})
	return grokCompiler
}

func init() {
	registry.Register(&Parser{})
}

func (p *Parser) Name() string  { return "circle" }
func (p *Parser) Priority() int { return 10 }

// QuickCheck looks for the circle keyword.
func (p *Parser) QuickCheck(text string) bool {
	return strings.Contains(strings.ToUpper(text), patterns.CirclePhrase)
}

// Parse returns every circle in the message in text order.
func (p *Parser) Parse(msg *notam.Message) ([]geometry.Shape, []registry.Failure) {
	if msg.Text == "" {
		return nil, nil
	}

	compiler := getCompiler()

	var shapes []geometry.Shape
	var failures []registry.Failure

	for _, m := range compiler.FindAll(msg.Text, "circle") {
		c, err := build(m)
		if err != nil {
			offset, excerpt := locate(m)
			failures = append(failures, registry.Failure{
				Parser:  p.Name(),
				Offset:  offset,
				Snippet: excerpt,
				Err:     err,
			})
			continue
		}
		shapes = append(shapes, c)
	}

	return shapes, failures
}

// build turns one match into a record. The name keeps the radius and unit
// but drops the center, which the record carries as numbers.
func build(m *patterns.Match) (*geometry.Circle, error) {
	radius, err := geometry.ParseRadius(m.GetCapture("radius", ""), m.GetCapture("unit", ""))
	if err != nil {
		return nil, err
	}

	center, err := patterns.ParseCoordinate(
		m.GetCapture("lat", ""), m.GetCapture("lat_dir", ""),
		m.GetCapture("lon", ""), m.GetCapture("lon_dir", ""),
	)
	if err != nil {
		return nil, err
	}

	name := patterns.EventName(m.GetCapture("prefix", ""),
		m.GetCapture("keyword", ""), m.GetCapture("radius", ""), m.GetCapture("unit", ""))

	return &geometry.Circle{
		Name:         name,
		Center:       center,
		RadiusMeters: radius,
	}, nil
}

// locate returns the text offset of the shape keyword and an excerpt
// starting there, so diagnostics point at the shape rather than the prefix.
func locate(m *patterns.Match) (int, string) {
	idx := strings.LastIndex(m.Text, patterns.CirclePhrase)
	if idx < 0 {
		idx = 0
	}
	return m.Offset + idx, patterns.Snippet(m.Text, idx, snippetLen)
}

// ParseWithTrace implements registry.Traceable for detailed debugging.
func (p *Parser) ParseWithTrace(msg *notam.Message) *registry.TraceResult {
	trace := &registry.TraceResult{
		ParserName: p.Name(),
	}

	quickCheckPassed := p.QuickCheck(msg.Text)
	trace.QuickCheck = &registry.QuickCheck{
		Passed: quickCheckPassed,
	}

	if !quickCheckPassed {
		trace.QuickCheck.Reason = "No AREA CIRCLE keyword found"
		return trace
	}

	compiler := getCompiler()

	compilerTrace := compiler.ParseWithTrace(msg.Text)
	for _, ft := range compilerTrace.Formats {
		trace.Formats = append(trace.Formats, registry.FormatTrace{
			Name:     ft.Name,
			Matched:  ft.Matched,
			Pattern:  ft.Pattern,
			Captures: ft.Captures,
			Count:    ft.Count,
		})
	}

	for _, m := range compiler.FindAll(msg.Text, "circle") {
		offset, excerpt := locate(m)
		ex := registry.Extractor{
			Name:    fmt.Sprintf("circle@%d", offset),
			Pattern: excerpt,
		}
		if c, err := build(m); err != nil {
			ex.Value = err.Error()
		} else {
			ex.Matched = true
			ex.Value = fmt.Sprintf("%s r=%.3fm", c.Center, c.RadiusMeters)
			trace.Matched = true
		}
		trace.Extractors = append(trace.Extractors, ex)
	}

	return trace
}
