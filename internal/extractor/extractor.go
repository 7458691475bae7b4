// Package extractor turns NOTAM text into a geometry list.
// It runs every registered shape parser and applies the error policy; it is
// storage- and transport-agnostic so every shell shares it.
package extractor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"notam_mapper/internal/geometry"
	"notam_mapper/internal/notam"
	"notam_mapper/internal/observability"
	"notam_mapper/internal/registry"
)

// Policy selects what happens when a shape occurrence cannot be decoded.
type Policy int

const (
	// SkipInvalid records a diagnostic and keeps the other shapes.
	SkipInvalid Policy = iota
	// AbortOnError fails the whole extraction on the first bad occurrence.
	AbortOnError
)

func (p Policy) String() string {
	if p == AbortOnError {
		return "abort"
	}
	return "skip"
}

// ParsePolicy accepts "skip" or "abort" (case-insensitive). Empty means skip.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipInvalid, nil
	case "abort":
		return AbortOnError, nil
	default:
		return SkipInvalid, fmt.Errorf("unknown policy %q (want skip or abort)", s)
	}
}

// Options configures an extraction. The zero value skips invalid shapes,
// logs nothing and uses the default registry.
type Options struct {
	Policy   Policy
	Logger   *zerolog.Logger
	Registry *registry.Registry
	Metrics  *observability.Metrics
}

func (o Options) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}

func (o Options) registryOrDefault() *registry.Registry {
	if o.Registry == nil {
		return registry.Default()
	}
	return o.Registry
}

// Diagnostic describes one skipped shape occurrence.
type Diagnostic struct {
	Parser  string `json:"parser"`
	Offset  int    `json:"offset"`
	Snippet string `json:"snippet"`
	Class   string `json:"class"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func newDiagnostic(f registry.Failure) Diagnostic {
	return Diagnostic{
		Parser:  f.Parser,
		Offset:  f.Offset,
		Snippet: f.Snippet,
		Class:   geometry.Class(f.Err),
		Message: f.Err.Error(),
		Err:     f.Err,
	}
}

// Result is the outcome of one extraction.
type Result struct {
	Geometry    geometry.List `json:"geometry"`
	Diagnostics []Diagnostic  `json:"diagnostics"`
}

// Empty reports whether no shape was found.
func (r *Result) Empty() bool {
	return r.Geometry.Empty()
}

// Partial reports whether some occurrences were skipped.
func (r *Result) Partial() bool {
	return len(r.Diagnostics) > 0
}

// Err returns geometry.ErrNoShapesFound for an empty result, nil otherwise.
func (r *Result) Err() error {
	if r.Empty() {
		return geometry.ErrNoShapesFound
	}
	return nil
}

// Summary is the one-line user message every shell prints. "No events found"
// is kept distinct from occurrences that were found but could not be parsed.
func (r *Result) Summary() string {
	found, failed := r.Geometry.Len(), len(r.Diagnostics)
	switch {
	case found == 0 && failed == 0:
		return "No events found"
	case found == 0:
		return fmt.Sprintf("No events found; %d events could not be parsed", failed)
	case failed > 0:
		return fmt.Sprintf("%d events found; %d events could not be parsed", found, failed)
	default:
		return fmt.Sprintf("%d events found", found)
	}
}

// Extract normalises raw text and extracts its shapes.
func Extract(ctx context.Context, raw string, opts Options) (*Result, error) {
	return ExtractMessage(ctx, notam.NewMessage("text", raw), opts)
}

// ExtractMessage extracts the shapes of an already normalised message.
// Under SkipInvalid it only fails when ctx is done; under AbortOnError the
// earliest bad occurrence in the text is returned as the error.
func ExtractMessage(ctx context.Context, msg *notam.Message, opts Options) (*Result, error) {
	start := time.Now()
	log := opts.logger().With().Str("notam", msg.Label()).Logger()

	reg := opts.registryOrDefault()
	reg.Sort()

	outcomes, err := reg.Dispatch(ctx, msg)
	if err != nil {
		return nil, err
	}

	var failures []registry.Failure
	for _, o := range outcomes {
		failures = append(failures, o.Failures...)
	}
	sort.SliceStable(failures, func(i, j int) bool {
		return failures[i].Offset < failures[j].Offset
	})

	if opts.Policy == AbortOnError && len(failures) > 0 {
		f := failures[0]
		return nil, fmt.Errorf("%s at offset %d: %w", f.Parser, f.Offset, f.Err)
	}

	result := &Result{
		Geometry:    geometry.NewList(),
		Diagnostics: make([]Diagnostic, 0, len(failures)),
	}

	for _, o := range outcomes {
		for _, s := range o.Shapes {
			result.Geometry.Add(s)
			if opts.Metrics != nil {
				opts.Metrics.ShapesExtracted.WithLabelValues(s.Kind()).Inc()
			}
		}
	}

	for _, f := range failures {
		d := newDiagnostic(f)
		result.Diagnostics = append(result.Diagnostics, d)
		log.Warn().
			Str("parser", d.Parser).
			Int("offset", d.Offset).
			Str("snippet", d.Snippet).
			Err(d.Err).
			Msg("skipping shape")
		if opts.Metrics != nil {
			opts.Metrics.Diagnostics.WithLabelValues(d.Class).Inc()
		}
	}

	if opts.Metrics != nil {
		opts.Metrics.TextsParsed.Inc()
		opts.Metrics.ParseDuration.Observe(time.Since(start).Seconds())
		if result.Empty() {
			opts.Metrics.EmptyResults.Inc()
		}
	}

	log.Debug().
		Int("circles", len(result.Geometry.Circles)).
		Int("polygons", len(result.Geometry.Polygons)).
		Int("skipped", len(result.Diagnostics)).
		Dur("took", time.Since(start)).
		Msg("extracted")

	return result, nil
}
