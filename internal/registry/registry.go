// Package registry provides a shape parser registry for dispatching
// NOTAM text to the dialect parsers.
package registry

import (
	"context"
	"sort"
	"sync"

	"notam_mapper/internal/geometry"
	"notam_mapper/internal/notam"
)

// Failure records one shape occurrence a parser matched but could not turn
// into a record.
type Failure struct {
	Parser  string // Parser that produced the failure.
	Offset  int    // Byte offset of the match in the normalised text.
	Snippet string // Short excerpt of the offending text.
	Err     error  // Wraps one of the geometry sentinels.
}

func (f Failure) Error() string {
	return f.Parser + ": " + f.Err.Error()
}

func (f Failure) Unwrap() error { return f.Err }

// Result is what one parser found in one message.
type Result struct {
	Parser   string
	Shapes   []geometry.Shape
	Failures []Failure
}

// Parser is implemented by each shape dialect.
type Parser interface {
	// Name returns the parser's unique identifier.
	Name() string

	// QuickCheck performs a fast string check before expensive regex.
	// Returns true if the message MIGHT contain the dialect (false = definitely skip).
	// This should use strings.Contains/HasPrefix, NOT regex.
	QuickCheck(text string) bool

	// Priority determines dispatch order. Lower number = checked first.
	Priority() int

	// Parse returns every shape of its dialect in text order, plus a
	// Failure for each occurrence that could not be decoded.
	Parse(msg *notam.Message) ([]geometry.Shape, []Failure)
}

// Registry holds all registered parsers in dispatch order.
type Registry struct {
	mu      sync.RWMutex
	parsers []Parser
	sorted  bool
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{}
}

// Global default registry.
var defaultRegistry = New()

// Default returns the global registry instance.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a parser to the default registry.
// Called during init() in each parser package.
func Register(p Parser) {
	defaultRegistry.Register(p)
}

// Register adds a parser to the registry. A parser with the same name
// replaces the earlier registration.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.parsers {
		if existing.Name() == p.Name() {
			r.parsers[i] = p
			r.sorted = false
			return
		}
	}
	r.parsers = append(r.parsers, p)
	r.sorted = false
}

// Sort sorts parsers by priority. Call before dispatching.
func (r *Registry) Sort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sorted {
		return
	}

	sort.SliceStable(r.parsers, func(i, j int) bool {
		return r.parsers[i].Priority() < r.parsers[j].Priority()
	})
	r.sorted = true
}

// Dispatch runs every parser whose QuickCheck passes and returns their
// results in priority order. The context is checked between parsers.
// Note: Sort() should be called before Dispatch(); otherwise parsers run in
// registration order.
func (r *Registry) Dispatch(ctx context.Context, msg *notam.Message) ([]Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []Result

	for _, p := range r.parsers {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if !p.QuickCheck(msg.Text) {
			continue
		}
		shapes, failures := p.Parse(msg)
		if len(shapes) == 0 && len(failures) == 0 {
			continue
		}
		results = append(results, Result{Parser: p.Name(), Shapes: shapes, Failures: failures})
	}

	return results, nil
}

// Lookup returns the parser registered under name.
func (r *Registry) Lookup(name string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.parsers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// ParserCount returns the number of registered parsers.
func (r *Registry) ParserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.parsers)
}

// AllParsers returns all registered parsers in their current order.
// This is useful for debugging and listing available parsers.
func (r *Registry) AllParsers() []Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Parser, len(r.parsers))
	copy(result, r.parsers)
	return result
}
