package http

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/emissions-dashboard/internal/adapter/boundary"
	"github.com/couchcryptid/emissions-dashboard/internal/adapter/chart"
	"github.com/couchcryptid/emissions-dashboard/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed web/index.html
var webFS embed.FS

var indexTmpl = template.Must(template.ParseFS(webFS, "web/index.html"))

// Dashboard is the core API the presentation layer drives.
type Dashboard interface {
	ListPollutants() []string
	Has(name string) bool
	SelectPollutant(ctx context.Context, name string) domain.Report
	CheckReadiness(ctx context.Context) error
}

// MapSettings controls the initial map view.
type MapSettings struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Zoom      int     `json:"zoom"`
}

// Options holds the optional layers behind the dashboard page. A nil
// Boundary hides the boundary layer and a nil Geocoder disables search.
type Options struct {
	Map      MapSettings
	Boundary *boundary.Boundary
	Geocoder domain.Geocoder
}

// Server exposes the dashboard page, its JSON API, and health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dashboard  Dashboard
	opts       Options
	logger     *slog.Logger
}

// NewServer creates the dashboard HTTP server.
func NewServer(addr string, dashboard Dashboard, opts Options, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dashboard: dashboard,
		opts:      opts,
		logger:    logger,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/pollutants", s.handlePollutants)
	mux.HandleFunc("GET /api/pollutants/{name}/report", s.handleReport)
	mux.HandleFunc("GET /api/pollutants/{name}/chart.png", s.handleChart)
	mux.HandleFunc("GET /api/boundary", s.handleBoundary)
	mux.HandleFunc("GET /api/geocode", s.handleGeocode)
	mux.HandleFunc("GET /api/map", s.handleMap)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(dashboard))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type indexData struct {
	Pollutants    []string
	Selected      string
	Map           MapSettings
	HasBoundary   bool
	SearchEnabled bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	pollutants := s.dashboard.ListPollutants()
	data := indexData{
		Pollutants:    pollutants,
		Map:           s.opts.Map,
		HasBoundary:   s.opts.Boundary != nil,
		SearchEnabled: s.opts.Geocoder != nil,
	}
	if q := r.URL.Query().Get("pollutant"); q != "" && s.dashboard.Has(q) {
		data.Selected = q
	} else if len(pollutants) > 0 {
		data.Selected = pollutants[0]
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		s.logger.Error("render index failed", "error", err)
		writeError(w, http.StatusInternalServerError, "render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handlePollutants(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"pollutants": s.dashboard.ListPollutants()})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.dashboard.Has(name) {
		writeError(w, http.StatusNotFound, "unknown pollutant: "+name)
		return
	}
	writeJSON(w, http.StatusOK, s.dashboard.SelectPollutant(r.Context(), name))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.dashboard.Has(name) {
		writeError(w, http.StatusNotFound, "unknown pollutant: "+name)
		return
	}
	report := s.dashboard.SelectPollutant(r.Context(), name)

	var buf bytes.Buffer
	if err := chart.RenderSummary(&buf, report.Summary); err != nil {
		s.logger.Error("render chart failed", "pollutant", name, "error", err)
		writeError(w, http.StatusInternalServerError, "render chart")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleBoundary(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Boundary == nil {
		writeError(w, http.StatusNotFound, "no boundary configured")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(s.opts.Boundary.GeoJSON())
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	if s.opts.Geocoder == nil {
		writeError(w, http.StatusServiceUnavailable, "geocoding is disabled")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := s.opts.Geocoder.ForwardGeocode(ctx, q)
	if err != nil {
		s.logger.Warn("geocode failed", "query", q, "error", err)
		writeError(w, http.StatusBadGateway, "geocoding failed")
		return
	}
	if result.FormattedAddress == "" {
		writeError(w, http.StatusNotFound, "no match for "+q)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type mapResponse struct {
	MapSettings
	Bounds *[2][2]float64 `json:"bounds,omitempty"` // [[south, west], [north, east]]
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	resp := mapResponse{MapSettings: s.opts.Map}
	if s.opts.Boundary != nil {
		b := s.opts.Boundary.Bound()
		resp.Bounds = &[2][2]float64{
			{b.Min.Lat(), b.Min.Lon()},
			{b.Max.Lat(), b.Max.Lon()},
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
