package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"notam_mapper/internal/notam"
	"notam_mapper/internal/registry"
)

// runDebug prints, per parser, the quick check, each format's match and
// every decoded occurrence.
func runDebug(args []string) {
	fs := flag.NewFlagSet("debug", flag.ExitOnError)
	inPath := fs.String("input", "", "Input NOTAM text file (default: stdin)")
	isHTML := fs.Bool("html", false, "Input is an HTML page")
	asJSON := fs.Bool("json", false, "Print traces as JSON")
	only := fs.String("parser", "", "Trace only the named parser")
	_ = fs.Parse(args)

	raw, source, err := readInput(context.Background(), *inPath, "", *isHTML)
	if err != nil {
		fatalf("Failed to read input: %v", err)
	}
	msg := notam.NewMessage(source, raw)

	traces, err := collectTraces(registry.Default(), msg, *only)
	if err != nil {
		fatalf("%v", err)
	}

	if *asJSON {
		b, err := marshalJSON(traces, true)
		if err != nil {
			fatalf("JSON encode error: %v", err)
		}
		fmt.Println(string(b))
		return
	}

	fmt.Printf("Text: %q\n\n", msg.Text)
	for _, t := range traces {
		printTrace(os.Stdout, t)
	}
}

// collectTraces traces msg through every traceable parser, or through the
// parser called only when it is set.
func collectTraces(reg *registry.Registry, msg *notam.Message, only string) ([]*registry.TraceResult, error) {
	var parsers []registry.Parser
	if only != "" {
		p, ok := reg.Lookup(only)
		if !ok {
			return nil, fmt.Errorf("unknown parser %q", only)
		}
		parsers = []registry.Parser{p}
	} else {
		reg.Sort()
		parsers = reg.AllParsers()
	}

	var traces []*registry.TraceResult
	for _, p := range parsers {
		tp, ok := p.(registry.Traceable)
		if !ok {
			continue
		}
		traces = append(traces, tp.ParseWithTrace(msg))
	}
	return traces, nil
}

func printTrace(w io.Writer, t *registry.TraceResult) {
	fmt.Fprintf(w, "== %s (matched=%v)\n", t.ParserName, t.Matched)
	if t.QuickCheck != nil {
		fmt.Fprintf(w, "   quick check: passed=%v %s\n", t.QuickCheck.Passed, t.QuickCheck.Reason)
	}
	for _, f := range t.Formats {
		fmt.Fprintf(w, "   format %s: matched=%v count=%d\n", f.Name, f.Matched, f.Count)
		fmt.Fprintf(w, "     pattern: %s\n", f.Pattern)
		for k, v := range f.Captures {
			fmt.Fprintf(w, "     %s = %q\n", k, v)
		}
	}
	for _, e := range t.Extractors {
		fmt.Fprintf(w, "   %s: ok=%v %s\n", e.Name, e.Matched, e.Value)
	}
	fmt.Fprintln(w)
}
