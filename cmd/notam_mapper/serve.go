package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"notam_mapper/internal/api"
	"notam_mapper/internal/extractor"
	"notam_mapper/internal/observability"
)

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", envOrDefaultInt("HTTP_PORT", 8080), "HTTP port for API server")
	policyName := fs.String("policy", envOrDefault("NOTAM_POLICY", "skip"), "Default invalid shape policy: skip or abort")
	segments := fs.Int("segments", 0, "Segments used to draw circles (default 64)")
	authEnabled := fs.Bool("auth", false, "Enable API key authentication")
	apiKeys := fs.String("api-keys", envOrDefault("API_KEYS", ""), "Comma-separated list of valid API keys (when auth enabled)")
	logs := addLogFlags(fs)
	archive := addArchiveFlags(fs)
	_ = fs.Parse(args)

	log := logs.logger()

	policy, err := extractor.ParsePolicy(*policyName)
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	archiver, err := archive.open(ctx, log, metrics)
	if err != nil {
		fatalf("Error opening archive: %v", err)
	}
	if archiver != nil {
		defer func() { _ = archiver.Close() }()
	}

	// Parse API keys.
	var keys []string
	if *apiKeys != "" {
		keys = strings.Split(*apiKeys, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
	}

	server := api.NewServer(api.Config{
		Port:           *port,
		Policy:         policy,
		CircleSegments: *segments,
		AuthEnabled:    *authEnabled,
		APIKeys:        keys,
	}, log, metrics, archiver)

	if err := server.Run(ctx); err != nil {
		fatalf("Server error: %v", err)
	}
}
