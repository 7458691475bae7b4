// Package api provides the REST API for NOTAM shape extraction.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"notam_mapper/internal/extractor"
	"notam_mapper/internal/notam"
	"notam_mapper/internal/observability"
	"notam_mapper/internal/registry"
	"notam_mapper/internal/render"
	"notam_mapper/internal/storage"
)

const (
	maxBodyBytes        = 1 << 20
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// Server provides REST API access to the extractor.
type Server struct {
	port        int
	policy      extractor.Policy
	segments    int
	authEnabled bool
	apiKeys     map[string]bool // Simple API key auth (when enabled).

	log      zerolog.Logger
	metrics  *observability.Metrics
	archiver *storage.Archiver
}

// Config holds configuration for the API server.
type Config struct {
	Port           int
	Policy         extractor.Policy
	CircleSegments int
	AuthEnabled    bool
	APIKeys        []string // List of valid API keys.
}

// NewServer creates a new API server. metrics and archiver may be nil; the
// history endpoint is only mounted when an archiver is given.
func NewServer(cfg Config, log zerolog.Logger, metrics *observability.Metrics, archiver *storage.Archiver) *Server {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	segments := cfg.CircleSegments
	if segments <= 0 {
		segments = render.DefaultCircleSegments
	}

	return &Server{
		port:        cfg.Port,
		policy:      cfg.Policy,
		segments:    segments,
		authEnabled: cfg.AuthEnabled,
		apiKeys:     keys,
		log:         log.With().Str("component", "api").Logger(),
		metrics:     metrics,
		archiver:    archiver,
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().
			Str("addr", srv.Addr).
			Bool("auth", s.authEnabled).
			Bool("archive", s.archiver != nil).
			Msg("API starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the configured chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for browser access.
	r.Use(corsMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required).
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			if s.authEnabled {
				r.Use(s.authMiddleware)
			}

			r.Post("/parse", s.handleParse)
			r.Post("/parse.geojson", s.handleParseGeoJSON)
			r.Post("/parse.kml", s.handleParseKML)

			if s.archiver != nil {
				r.Get("/history", s.handleHistory)
			}
		})
	})

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ParseRequest is the JSON request body accepted by the parse endpoints.
// A plain text body is treated as Text.
type ParseRequest struct {
	ID     notam.FlexString `json:"id,omitempty"`
	Source string           `json:"source,omitempty"`
	Text   string           `json:"text"`
	Policy string           `json:"policy,omitempty"`
}

// ParseResponse is the JSON response of POST /parse.
type ParseResponse struct {
	*extractor.Result
	Summary   string `json:"summary"`
	ArchiveID string `json:"archive_id,omitempty"`
}

// HistoryResponse is the JSON response of GET /history.
type HistoryResponse struct {
	Backend string            `json:"backend"`
	Records []*storage.Record `json:"records"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"parsers": registry.Default().ParserCount(),
	}
	if s.archiver != nil {
		resp["archive"] = s.archiver.Store().Backend()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	msg, res, ok := s.extract(w, r)
	if !ok {
		return
	}

	resp := ParseResponse{Result: res, Summary: res.Summary()}
	if s.archiver != nil {
		rec, err := s.archiver.Archive(r.Context(), msg, res)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "archive: "+err.Error())
			return
		}
		resp.ArchiveID = rec.ID.String()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleParseGeoJSON(w http.ResponseWriter, r *http.Request) {
	_, res, ok := s.extract(w, r)
	if !ok {
		return
	}

	body, err := render.GeoJSON(res.Geometry, render.GeoJSONOptions{CircleSegments: s.segments})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("X-Notam-Summary", res.Summary())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleParseKML(w http.ResponseWriter, r *http.Request) {
	_, res, ok := s.extract(w, r)
	if !ok {
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "NOTAM Map"
	}
	body, err := render.MarshalKML(res.Geometry, name, s.segments)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.Header().Set("X-Notam-Summary", res.Summary())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.archiver.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*storage.Record{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		Backend: s.archiver.Store().Backend(),
		Records: records,
	})
}

// extract reads the request and runs the extractor. On failure it has already
// written the error response.
func (s *Server) extract(w http.ResponseWriter, r *http.Request) (*notam.Message, *extractor.Result, bool) {
	req, err := readParseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return nil, nil, false
	}

	policy := s.policy
	if p := firstNonEmpty(r.URL.Query().Get("policy"), req.Policy); p != "" {
		if policy, err = extractor.ParsePolicy(p); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, nil, false
		}
	}

	msg := notam.NewMessage(firstNonEmpty(req.Source, "api"), req.Text)
	msg.ID = req.ID

	log := s.log
	res, err := extractor.ExtractMessage(r.Context(), msg, extractor.Options{
		Policy:  policy,
		Logger:  &log,
		Metrics: s.metrics,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, nil, false
	}

	return msg, res, true
}

func readParseRequest(r *http.Request) (*ParseRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodyBytes {
		return nil, errors.New("body too large")
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return &ParseRequest{Text: string(body)}, nil
	}

	var req ParseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.New("Invalid JSON: " + err.Error())
	}
	return &req, nil
}

// Helper functions.

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
