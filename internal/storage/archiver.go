package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gansidui/geohash"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"notam_mapper/internal/extractor"
	"notam_mapper/internal/notam"
	"notam_mapper/internal/observability"
	"notam_mapper/internal/render"
)

// GeohashPrecision is the geohash length stored for map centers.
const GeohashPrecision = 6

// Archiver turns extraction results into records and writes them to a Store.
type Archiver struct {
	store   Store
	clock   clockwork.Clock
	log     zerolog.Logger
	metrics *observability.Metrics
}

// NewArchiver wraps store. metrics may be nil.
func NewArchiver(store Store, clock clockwork.Clock, log zerolog.Logger, metrics *observability.Metrics) *Archiver {
	return &Archiver{
		store:   store,
		clock:   clock,
		log:     log.With().Str("backend", store.Backend()).Logger(),
		metrics: metrics,
	}
}

// Store returns the wrapped store.
func (a *Archiver) Store() Store {
	return a.store
}

// Archive records one extraction. The record ID is fresh for every call, so
// archiving the same text twice keeps two rows.
func (a *Archiver) Archive(ctx context.Context, msg *notam.Message, res *extractor.Result) (*Record, error) {
	body, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	r := &Record{
		ID:       uuid.New(),
		Source:   msg.Source,
		NotamID:  string(msg.ID),
		RawText:  msg.Raw,
		ParsedAt: a.clock.Now().UTC(),
		Circles:  len(res.Geometry.Circles),
		Polygons: len(res.Geometry.Polygons),
		Skipped:  len(res.Diagnostics),
		Result:   body,
	}
	if center, err := render.Center(res.Geometry); err == nil {
		r.Geohash, _ = geohash.Encode(center.Lat, center.Lon, GeohashPrecision)
	}

	if err := a.store.Save(ctx, r); err != nil {
		a.count("error")
		a.log.Error().Err(err).Str("notam", msg.Label()).Msg("archive failed")
		return nil, err
	}

	a.count("success")
	a.log.Debug().Str("id", r.ID.String()).Str("geohash", r.Geohash).Msg("archived")
	return r, nil
}

// Recent proxies to the store.
func (a *Archiver) Recent(ctx context.Context, limit int) ([]*Record, error) {
	return a.store.Recent(ctx, limit)
}

// Close closes the store.
func (a *Archiver) Close() error {
	return a.store.Close()
}

func (a *Archiver) count(outcome string) {
	if a.metrics != nil {
		a.metrics.ArchiveWrites.WithLabelValues(a.store.Backend(), outcome).Inc()
	}
}

// Decode returns the extraction result stored in r.
func (r *Record) Decode() (*extractor.Result, error) {
	var res extractor.Result
	if err := json.Unmarshal(r.Result, &res); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	return &res, nil
}
