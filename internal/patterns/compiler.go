// Package patterns provides shared regex patterns and helper functions for NOTAM parsing.
// This file contains the grok-style pattern compiler.

package patterns

import (
	"fmt"
	"regexp"
	"strings"
)

// Format represents a shape dialect with named capture groups.
type Format struct {
	Name     string         // Format name for identification
	Pattern  string         // Pattern with {PLACEHOLDER} syntax
	Compiled *regexp.Regexp // Compiled regex (populated by Compile)
	Fields   []string       // Field names in capture order (for documentation)
}

// Compiler manages pattern compilation and matching for a set of formats.
type Compiler struct {
	basePatterns map[string]string
	formats      []Format
}

// NewCompiler creates a new pattern compiler with the given formats.
// It merges the provided base patterns with the global BasePatterns,
// allowing local patterns to override global ones.
func NewCompiler(formats []Format, localPatterns map[string]string) *Compiler {
	c := &Compiler{
		basePatterns: make(map[string]string),
		formats:      make([]Format, len(formats)),
	}

	// Copy global base patterns.
	for k, v := range BasePatterns {
		c.basePatterns[k] = v
	}

	// Overlay local patterns (can override global ones).
	for k, v := range localPatterns {
		c.basePatterns[k] = v
	}

	copy(c.formats, formats)

	return c
}

// MustCompile builds and compiles a compiler, panicking on a bad pattern.
// Intended for package-level parser setup.
func MustCompile(formats []Format, localPatterns map[string]string) *Compiler {
	c := NewCompiler(formats, localPatterns)
	if err := c.Compile(); err != nil {
		panic(err)
	}
	return c
}

// Compile expands all {PLACEHOLDER} references and compiles regexes.
func (c *Compiler) Compile() error {
	for i := range c.formats {
		expanded := c.expand(c.formats[i].Pattern)
		re, err := regexp.Compile(expanded)
		if err != nil {
			return fmt.Errorf("compile format %s: %w", c.formats[i].Name, err)
		}
		c.formats[i].Compiled = re
	}
	return nil
}

// expand replaces {PLACEHOLDER} with actual regex patterns.
func (c *Compiler) expand(pattern string) string {
	result := pattern
	for name, regex := range c.basePatterns {
		placeholder := "{" + name + "}"
		result = strings.ReplaceAll(result, placeholder, regex)
	}
	return result
}

// Match represents one occurrence of a format in the text.
type Match struct {
	FormatName string            // Name of the matched format
	Captures   map[string]string // Named capture group values
	Offset     int               // Byte offset of the match in the searched text
	Text       string            // Full matched text
}

// FindAll finds all non-overlapping occurrences of the named format, left to right.
func (c *Compiler) FindAll(text string, formatName string) []*Match {
	upperText := strings.ToUpper(text)
	var results []*Match

	for _, format := range c.formats {
		if format.Name != formatName || format.Compiled == nil {
			continue
		}

		for _, loc := range format.Compiled.FindAllStringSubmatchIndex(upperText, -1) {
			results = append(results, newMatch(format, upperText, loc))
		}
		break
	}

	return results
}

func newMatch(format Format, text string, loc []int) *Match {
	m := &Match{
		FormatName: format.Name,
		Captures:   make(map[string]string),
		Offset:     loc[0],
		Text:       text[loc[0]:loc[1]],
	}

	// Extract named groups; unmatched optional groups are left empty.
	for i, name := range format.Compiled.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		if start, end := loc[2*i], loc[2*i+1]; start >= 0 {
			m.Captures[name] = text[start:end]
		} else {
			m.Captures[name] = ""
		}
	}

	return m
}

// GetCapture is a helper to safely get a capture value with a default.
func (m *Match) GetCapture(name string, defaultVal string) string {
	if m == nil {
		return defaultVal
	}
	if val, ok := m.Captures[name]; ok && val != "" {
		return val
	}
	return defaultVal
}

// FormatTrace contains debug information about a format match attempt.
type FormatTrace struct {
	Name     string            // Format name
	Matched  bool              // Whether the pattern matched
	Pattern  string            // The expanded regex pattern
	Captures map[string]string // Captured groups of the first match (if matched)
	Count    int               // Number of occurrences in the text
}

// ParseTrace contains complete trace information for a parse attempt.
type ParseTrace struct {
	Formats []FormatTrace // All format match attempts
	Match   *Match        // The first successful match (if any)
}

// ParseWithTrace matches text against every format and returns detailed trace information.
// This is useful for debugging why patterns don't match.
func (c *Compiler) ParseWithTrace(text string) *ParseTrace {
	trace := &ParseTrace{
		Formats: make([]FormatTrace, 0, len(c.formats)),
	}

	for _, format := range c.formats {
		ft := FormatTrace{
			Name:    format.Name,
			Pattern: c.expand(format.Pattern),
		}

		if format.Compiled == nil {
			trace.Formats = append(trace.Formats, ft)
			continue
		}

		matches := c.FindAll(text, format.Name)
		if len(matches) == 0 {
			trace.Formats = append(trace.Formats, ft)
			continue
		}

		ft.Matched = true
		ft.Captures = matches[0].Captures
		ft.Count = len(matches)
		trace.Formats = append(trace.Formats, ft)

		if trace.Match == nil {
			trace.Match = matches[0]
		}
	}

	return trace
}
