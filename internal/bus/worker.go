// Package bus runs the extractor behind a NATS subscription: NOTAM text in,
// JSON results out.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"notam_mapper/internal/extractor"
	"notam_mapper/internal/notam"
	"notam_mapper/internal/observability"
	"notam_mapper/internal/storage"
)

// Publisher is the part of *nats.Conn the worker writes through.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Config holds the subjects and policy of a worker.
type Config struct {
	SubjectIn  string
	SubjectOut string // Empty only answers request/reply messages.
	Queue      string // Optional queue group for load sharing.
	Policy     extractor.Policy
}

// Output is the JSON document published for each input message.
type Output struct {
	ID        notam.FlexString  `json:"id,omitempty"`
	Source    string            `json:"source"`
	Summary   string            `json:"summary"`
	Result    *extractor.Result `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	ArchiveID string            `json:"archive_id,omitempty"`
}

// Worker consumes NOTAM messages and publishes extraction results.
type Worker struct {
	cfg      Config
	pub      Publisher
	log      zerolog.Logger
	metrics  *observability.Metrics
	archiver *storage.Archiver
	handled  atomic.Int64
}

// NewWorker creates a worker. metrics and archiver may be nil.
func NewWorker(cfg Config, pub Publisher, log zerolog.Logger, metrics *observability.Metrics, archiver *storage.Archiver) *Worker {
	return &Worker{
		cfg:      cfg,
		pub:      pub,
		log:      log.With().Str("component", "bus").Str("in", cfg.SubjectIn).Logger(),
		metrics:  metrics,
		archiver: archiver,
	}
}

// Connect dials NATS with unlimited reconnects, logging connection changes.
func Connect(url, name string, log zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

// Handled returns the number of messages processed so far.
func (w *Worker) Handled() int64 {
	return w.handled.Load()
}

// Run subscribes to the input subject and handles messages until ctx is done.
func (w *Worker) Run(ctx context.Context, nc *nats.Conn) error {
	if w.cfg.SubjectIn == "" {
		return errors.New("no input subject")
	}

	ch := make(chan *nats.Msg, 64)
	var (
		sub *nats.Subscription
		err error
	)
	if w.cfg.Queue != "" {
		sub, err = nc.ChanQueueSubscribe(w.cfg.SubjectIn, w.cfg.Queue, ch)
	} else {
		sub, err = nc.ChanSubscribe(w.cfg.SubjectIn, ch)
	}
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", w.cfg.SubjectIn, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	w.log.Info().Str("out", w.cfg.SubjectOut).Str("queue", w.cfg.Queue).Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Int64("handled", w.Handled()).Msg("worker stopping")
			return nil
		case m := <-ch:
			w.Handle(ctx, m)
		}
	}
}

// Handle processes one message and publishes the output to the reply subject
// (if any) and the output subject (if configured).
func (w *Worker) Handle(ctx context.Context, m *nats.Msg) {
	w.handled.Add(1)

	out, err := w.Process(ctx, m.Data)
	if err != nil {
		w.log.Warn().Err(err).Str("subject", m.Subject).Msg("message not extracted")
		w.count("in", "error")
	} else {
		w.count("in", "success")
	}

	for _, subject := range []string{m.Reply, w.cfg.SubjectOut} {
		if subject == "" {
			continue
		}
		if err := w.pub.Publish(subject, out); err != nil {
			w.log.Error().Err(err).Str("subject", subject).Msg("publish failed")
			w.count("out", "error")
			continue
		}
		w.count("out", "success")
	}
}

// Process decodes one payload, extracts its shapes and renders the Output
// document. The document is always returned; err reports an extraction or
// archive failure that is also carried in Output.Error.
func (w *Worker) Process(ctx context.Context, data []byte) ([]byte, error) {
	msg := notam.Decode("nats", data)
	out := Output{ID: msg.ID, Source: msg.Source}

	log := w.log
	res, err := extractor.ExtractMessage(ctx, msg, extractor.Options{
		Policy:  w.cfg.Policy,
		Logger:  &log,
		Metrics: w.metrics,
	})
	if err != nil {
		out.Summary = "Extraction failed"
		out.Error = err.Error()
		return marshal(out), err
	}

	out.Result = res
	out.Summary = res.Summary()

	if w.archiver != nil {
		rec, aerr := w.archiver.Archive(ctx, msg, res)
		if aerr != nil {
			out.Error = "archive: " + aerr.Error()
			return marshal(out), aerr
		}
		out.ArchiveID = rec.ID.String()
	}

	return marshal(out), nil
}

func (w *Worker) count(direction, outcome string) {
	if w.metrics != nil {
		w.metrics.BusMessages.WithLabelValues(direction, outcome).Inc()
	}
}

func marshal(out Output) []byte {
	b, err := json.Marshal(out)
	if err != nil {
		return []byte(`{"error":"marshal output"}`)
	}
	return b
}
