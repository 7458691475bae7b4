// Package polygon parses "AREA BOUNDED BY LINES JOINING:" shapes from NOTAM Item E text.
package polygon

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

// Parser extracts polygons.
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

func (p *Parser) Name() string  { return "polygon" }
func (p *Parser) Priority() int { return 20 }

// QuickCheck looks for the boundary keyword.
func (p *Parser) QuickCheck(text string) bool {
	return strings.Contains(strings.ToUpper(text), patterns.BoundaryPhrase)
}

// Parse returns every polygon in the message in text order.
func (p *Parser) Parse(msg *notam.Message) ([]geometry.Shape, []registry.Failure) {
	if msg.Text == "" {
		return nil, nil
	}

	compiler := getCompiler()

	var shapes []geometry.Shape
	var failures []registry.Failure

	for _, m := range compiler.FindAll(msg.Text, "polygon") {
		poly, err := build(compiler, m)
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
		shapes = append(shapes, poly)
	}

	return shapes, failures
}

// build decodes the boundary pairs of one match. Any undecodable pair
// rejects the whole polygon.
func build(compiler *patterns.Compiler, m *patterns.Match) (*geometry.Polygon, error) {
	pairs := compiler.FindAll(m.GetCapture("boundary", ""), "vertex")
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: boundary has no coordinate pairs", geometry.ErrMalformedCoordinate)
	}

	vertices := make([]geometry.Coordinate, 0, len(pairs))
	for i, pair := range pairs {
		c, err := patterns.ParseCoordinate(
			pair.GetCapture("lat", ""), pair.GetCapture("lat_dir", ""),
			pair.GetCapture("lon", ""), pair.GetCapture("lon_dir", ""),
		)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i+1, err)
		}
		vertices = append(vertices, c)
	}

	return &geometry.Polygon{
		Name:     patterns.EventName(m.GetCapture("prefix", ""), m.GetCapture("keyword", "")),
		Vertices: vertices,
	}, nil
}

// locate returns the text offset of the shape keyword and an excerpt
// starting there, so diagnostics point at the shape rather than the prefix.
func locate(m *patterns.Match) (int, string) {
	idx := strings.LastIndex(m.Text, patterns.BoundaryPhrase)
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
		trace.QuickCheck.Reason = "No AREA BOUNDED BY keyword found"
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

	for _, m := range compiler.FindAll(msg.Text, "polygon") {
		offset, excerpt := locate(m)
		ex := registry.Extractor{
			Name:    fmt.Sprintf("polygon@%d", offset),
			Pattern: excerpt,
		}
		if poly, err := build(compiler, m); err != nil {
			ex.Value = err.Error()
		} else {
			ex.Matched = true
			ex.Value = fmt.Sprintf("%d vertices from %s", len(poly.Vertices), poly.Vertices[0])
			trace.Matched = true
		}
		trace.Extractors = append(trace.Extractors, ex)
	}

	return trace
}
