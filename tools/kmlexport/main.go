// Package main exports archived NOTAM shapes to one KML file.
// KML (Keyhole Markup Language) files can be viewed in Google Earth, Google Maps, and
// other mapping applications.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"

	"notam_mapper/internal/geometry"
	"notam_mapper/internal/render"
	"notam_mapper/internal/storage"
)

func main() {
	def := storage.DefaultConfig()
	cfg := def

	flag.StringVar(&cfg.Backend, "archive", "sqlite", "Archive backend (sqlite, postgres, clickhouse, mongo)")
	flag.StringVar(&cfg.SQLitePath, "sqlite", def.SQLitePath, "SQLite archive path")

	// PostgreSQL connection flags.
	flag.StringVar(&cfg.Postgres.Host, "pg-host", def.Postgres.Host, "PostgreSQL host")
	flag.IntVar(&cfg.Postgres.Port, "pg-port", def.Postgres.Port, "PostgreSQL port")
	flag.StringVar(&cfg.Postgres.User, "pg-user", def.Postgres.User, "PostgreSQL user")
	flag.StringVar(&cfg.Postgres.Password, "pg-password", def.Postgres.Password, "PostgreSQL password")
	flag.StringVar(&cfg.Postgres.Database, "pg-db", def.Postgres.Database, "PostgreSQL database")

	flag.StringVar(&cfg.ClickHouse.Host, "ch-host", def.ClickHouse.Host, "ClickHouse host")
	flag.IntVar(&cfg.ClickHouse.Port, "ch-port", def.ClickHouse.Port, "ClickHouse native port")
	flag.StringVar(&cfg.Mongo.URI, "mongo-uri", def.Mongo.URI, "MongoDB URI")

	output := flag.String("output", "", "Output KML file (default: stdout)")
	limit := flag.Int("limit", 100, "Number of most recent records to export")
	segments := flag.Int("segments", render.DefaultCircleSegments, "Segments used to draw circles")
	showStats := flag.Bool("stats", false, "Show statistics only, don't export")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Parse()

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening archive: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	records, err := store.Recent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying records: %v\n", err)
		os.Exit(1)
	}

	// Show stats mode.
	if *showStats {
		showArchiveStats(ctx, store, records)
		return
	}

	shapes, skipped := mergeRecords(records)
	if shapes.Empty() {
		fmt.Fprintf(os.Stderr, "No events found\n")
		os.Exit(0)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "Exporting %d circles and %d polygons from %d records (%d unreadable)\n",
			len(shapes.Circles), len(shapes.Polygons), len(records), skipped)
	}

	xmlOutput, err := render.MarshalKML(shapes, "Archived NOTAM areas", *segments)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating KML: %v\n", err)
		os.Exit(1)
	}

	// Write output.
	if *output != "" {
		if err := os.WriteFile(*output, xmlOutput, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s (%s)\n", *output, humanize.Bytes(uint64(len(xmlOutput))))
		}
	} else {
		fmt.Println(string(xmlOutput))
	}
}

// mergeRecords collects the shapes of every record, oldest first. Records
// whose stored result cannot be decoded are counted and skipped.
func mergeRecords(records []*storage.Record) (geometry.List, int) {
	merged := geometry.NewList()
	skipped := 0

	for i := len(records) - 1; i >= 0; i-- {
		res, err := records[i].Decode()
		if err != nil {
			skipped++
			continue
		}
		for _, c := range res.Geometry.Circles {
			merged.Add(c)
		}
		for _, p := range res.Geometry.Polygons {
			merged.Add(p)
		}
	}

	return merged, skipped
}

// showArchiveStats displays statistics about the archived records.
func showArchiveStats(ctx context.Context, store storage.Store, records []*storage.Record) {
	var circles, polygons, skipped int
	for _, r := range records {
		circles += r.Circles
		polygons += r.Polygons
		skipped += r.Skipped
	}

	fmt.Println("Archive Statistics")
	fmt.Println("──────────────────")
	fmt.Printf("Backend:             %s\n", store.Backend())
	fmt.Printf("Records examined:    %d\n", len(records))
	fmt.Printf("Circles:             %s\n", humanize.Comma(int64(circles)))
	fmt.Printf("Polygons:            %s\n", humanize.Comma(int64(polygons)))
	fmt.Printf("Skipped occurrences: %s\n", humanize.Comma(int64(skipped)))
	if len(records) > 0 {
		newest, oldest := records[0].ParsedAt, records[len(records)-1].ParsedAt
		fmt.Printf("Date range:          %s to %s (%s)\n",
			oldest.Format("2006-01-02"), newest.Format("2006-01-02"), humanize.RelTime(oldest, newest, "earlier", "later"))
	}

	// Geohash distribution, where the backend can aggregate it.
	buckets := map[string]uint64{}
	switch s := store.(type) {
	case *storage.ClickHouseDB:
		counts, err := s.CountByGeohash(ctx, 3)
		if err != nil {
			fmt.Fprintf(os.Stderr, "geohash counts: %v\n", err)
			return
		}
		buckets = counts
	case *storage.SQLiteDB:
		for _, r := range records {
			if len(r.Geohash) < 3 {
				continue
			}
			prefix := r.Geohash[:3]
			if _, seen := buckets[prefix]; seen {
				continue
			}
			n, err := s.CountByGeohash(ctx, prefix)
			if err != nil {
				fmt.Fprintf(os.Stderr, "geohash counts: %v\n", err)
				return
			}
			buckets[prefix] = uint64(n)
		}
	default:
		return
	}

	prefixes := make([]string, 0, len(buckets))
	for p := range buckets {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	fmt.Println("\nGeohash Distribution:")
	fmt.Printf("%-10s %10s\n", "Cell", "Count")
	for _, p := range prefixes {
		fmt.Printf("%-10s %10d\n", p, buckets[p])
	}
}
