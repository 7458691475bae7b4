// Command-line entry point for the NOTAM mapper.
//
// The mapper finds the areas a NOTAM describes in its E) item and draws them:
//   - circles:  "AREA CIRCLE WITH RADIUS 5 NM CENTERED ON 401200N 0734500W"
//   - polygons: "AREA BOUNDED BY LINES JOINING: 401200N 0734500W - ..."
//
// Subcommands share one extractor; they only differ in where the text comes
// from and where the result goes.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	_ "notam_mapper/internal/parsers" // register all parsers via init()
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "notam_mapper - commands:")
	fmt.Fprintln(w, "  map        - extract shapes from one NOTAM and write a map file")
	fmt.Fprintln(w, "  serve      - run the HTTP API")
	fmt.Fprintln(w, "  subscribe  - extract shapes from NOTAMs received over NATS")
	fmt.Fprintln(w, "  debug      - show how each parser sees a NOTAM")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  notam_mapper map [-input notam.txt | -url URL] [-html] [-output \"NOTAM Map.geojson\"] [-format json|geojson|kml] [-policy skip|abort] [-sqlite notams.db]")
	fmt.Fprintln(w, "  notam_mapper serve [-port 8080] [-policy skip|abort] [-archive sqlite|postgres|clickhouse|mongo]")
	fmt.Fprintln(w, "  notam_mapper subscribe [-nats-url nats://localhost:4222] [-in notam.text] [-out notam.shapes]")
	fmt.Fprintln(w, "  notam_mapper debug [-input notam.txt] [-parser circle]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - Without -input or -url the NOTAM is read from stdin.")
	fmt.Fprintln(w, "  - Line breaks inside the NOTAM are ignored.")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "map":
		runMap(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "subscribe":
		runSubscribe(os.Args[2:])
	case "debug":
		runDebug(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
