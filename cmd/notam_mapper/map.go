package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TwiN/go-color"
	"github.com/dustin/go-humanize"

	"notam_mapper/internal/extractor"
	"notam_mapper/internal/notam"
	"notam_mapper/internal/render"
	"notam_mapper/internal/webclient"
)

const defaultMapName = "NOTAM Map"

func runMap(args []string) {
	fs := flag.NewFlagSet("map", flag.ExitOnError)
	inPath := fs.String("input", "", "Input NOTAM text file (default: stdin)")
	pageURL := fs.String("url", "", "Fetch the NOTAM from an AIS web page")
	isHTML := fs.Bool("html", false, "Input is an HTML page; extract its NOTAM text")
	outPath := fs.String("output", "", "Output file, - for stdout (default: \"NOTAM Map.<format>\")")
	format := fs.String("format", "", "Output format: json, geojson or kml (default: from -output, else geojson)")
	policyName := fs.String("policy", envOrDefault("NOTAM_POLICY", "skip"), "Invalid shape policy: skip or abort")
	segments := fs.Int("segments", render.DefaultCircleSegments, "Segments used to draw circles as polygons (0 keeps points)")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	logs := addLogFlags(fs)
	archive := addArchiveFlags(fs)
	_ = fs.Parse(args)

	log := logs.logger()
	ctx := context.Background()

	policy, err := extractor.ParsePolicy(*policyName)
	if err != nil {
		fatalf("%v", err)
	}

	outFormat, err := resolveFormat(*format, *outPath)
	if err != nil {
		fatalf("%v", err)
	}
	target := resolveOutput(*outPath, outFormat)

	raw, source, err := readInput(ctx, *inPath, *pageURL, *isHTML)
	if err != nil {
		fatalf("Failed to read input: %v", err)
	}

	start := time.Now()
	msg := notam.NewMessage(source, raw)
	res, err := extractor.ExtractMessage(ctx, msg, extractor.Options{Policy: policy, Logger: &log})
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Ize(color.Red, "Extraction aborted: "+err.Error()))
		os.Exit(1)
	}

	archiver, err := archive.open(ctx, log, nil)
	if err != nil {
		fatalf("Failed to open archive: %v", err)
	}
	if archiver != nil {
		defer func() { _ = archiver.Close() }()
		if _, err := archiver.Archive(ctx, msg, res); err != nil {
			fatalf("Failed to archive result: %v", err)
		}
	}

	fmt.Fprintln(os.Stderr, summaryLine(res))
	for _, d := range res.Diagnostics {
		fmt.Fprintf(os.Stderr, "  %s at offset %d: %s\n", d.Parser, d.Offset, d.Message)
	}

	// Nothing to draw: no map file.
	if res.Empty() && outFormat != "json" {
		return
	}

	body, err := renderOutput(res, outFormat, *segments, *pretty)
	if err != nil {
		fatalf("Render error: %v", err)
	}

	if err := writeOutput(target, body); err != nil {
		fatalf("Failed to write output: %v", err)
	}

	if target != "-" {
		fmt.Fprintf(os.Stderr, "Wrote %s (%s) in %s\n",
			target, humanize.Bytes(uint64(len(body))), time.Since(start).Round(time.Microsecond))
	}
}

// readInput returns the NOTAM text and a source label for logs.
func readInput(ctx context.Context, inPath, pageURL string, isHTML bool) (string, string, error) {
	if pageURL != "" {
		c, err := webclient.New(60 * time.Second)
		if err != nil {
			return "", "", err
		}
		text, err := c.FetchText(ctx, pageURL)
		return text, "url", err
	}

	var r io.Reader = os.Stdin
	source := "stdin"
	if inPath != "" {
		f, err := os.Open(inPath)
		if err != nil {
			return "", "", err
		}
		defer f.Close()
		r = f
		source = filepath.Base(inPath)
	}

	if isHTML {
		text, err := webclient.ExtractText(r)
		return text, source, err
	}

	b, err := io.ReadAll(r)
	return string(b), source, err
}

// resolveFormat picks the output format from -format, else from the
// extension of -output, else geojson.
func resolveFormat(format, outPath string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(outPath)) {
		case ".kml":
			format = "kml"
		case ".json":
			format = "json"
		default:
			format = "geojson"
		}
	}

	switch f := strings.ToLower(format); f {
	case "json", "geojson", "kml":
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, geojson or kml)", format)
	}
}

// resolveOutput defaults the map artefact to "NOTAM Map.<format>"; JSON
// results go to stdout.
func resolveOutput(outPath, format string) string {
	if outPath != "" {
		return outPath
	}
	if format == "json" {
		return "-"
	}
	return defaultMapName + "." + format
}

func renderOutput(res *extractor.Result, format string, segments int, pretty bool) ([]byte, error) {
	switch format {
	case "kml":
		return render.MarshalKML(res.Geometry, defaultMapName, segments)
	case "geojson":
		if pretty {
			return marshalJSON(render.FeatureCollection(res.Geometry, render.GeoJSONOptions{CircleSegments: segments}), true)
		}
		return render.GeoJSON(res.Geometry, render.GeoJSONOptions{CircleSegments: segments})
	default:
		return marshalJSON(res, pretty)
	}
}

func writeOutput(target string, body []byte) error {
	if target == "-" {
		_, err := os.Stdout.Write(append(body, '\n'))
		return err
	}
	return os.WriteFile(target, body, 0o644)
}

// summaryLine colours the result summary: green when every occurrence was
// drawn, yellow when some were skipped, red when nothing was found.
func summaryLine(res *extractor.Result) string {
	switch {
	case res.Empty():
		return color.Ize(color.Red, res.Summary())
	case res.Partial():
		return color.Ize(color.Yellow, res.Summary())
	default:
		return color.Ize(color.Green, res.Summary())
	}
}
