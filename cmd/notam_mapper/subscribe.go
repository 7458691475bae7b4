package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notam_mapper/internal/bus"
	"notam_mapper/internal/extractor"
	"notam_mapper/internal/observability"
)

func runSubscribe(args []string) {
	fs := flag.NewFlagSet("subscribe", flag.ExitOnError)
	natsURL := fs.String("nats-url", envOrDefault("NATS_URL", nats.DefaultURL), "NATS server URL")
	in := fs.String("in", envOrDefault("NATS_SUBJECT_IN", "notam.text"), "Subject to consume NOTAM text from")
	out := fs.String("out", envOrDefault("NATS_SUBJECT_OUT", "notam.shapes"), "Subject to publish results to (empty: reply only)")
	queue := fs.String("queue", envOrDefault("NATS_QUEUE", ""), "Queue group for load sharing")
	policyName := fs.String("policy", envOrDefault("NOTAM_POLICY", "skip"), "Invalid shape policy: skip or abort")
	metricsAddr := fs.String("metrics-addr", envOrDefault("METRICS_ADDR", ""), "Serve /metrics on this address (e.g. :9102)")
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
	if *metricsAddr != "" {
		srv := &http.Server{Addr: *metricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	archiver, err := archive.open(ctx, log, metrics)
	if err != nil {
		fatalf("Error opening archive: %v", err)
	}
	if archiver != nil {
		defer func() { _ = archiver.Close() }()
	}

	nc, err := bus.Connect(*natsURL, "notam_mapper", log)
	if err != nil {
		fatalf("%v", err)
	}
	defer func() { _ = nc.Drain() }()

	w := bus.NewWorker(bus.Config{
		SubjectIn:  *in,
		SubjectOut: *out,
		Queue:      *queue,
		Policy:     policy,
	}, nc, log, metrics, archiver)

	if err := w.Run(ctx, nc); err != nil {
		fatalf("Worker error: %v", err)
	}
}
