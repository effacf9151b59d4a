// Package server exposes route evaluation and station lookups over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"
	"github.com/rubiojr/fuelroute/internal/fuelroute"
	"github.com/rubiojr/fuelroute/internal/geocode"
	"github.com/rubiojr/fuelroute/internal/metrics"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second

	errMissingLocations = "Start and end locations are required"
	errProviderFailed   = "Google Maps API failed"
)

// NearbyFinder lists the stations around a point, cheapest first.
type NearbyFinder interface {
	NearbyStations(ctx context.Context, point fuelroute.Coordinate, radius float64) ([]fuelroute.StationDistance, error)
}

type Options struct {
	Planner  *fuelroute.Planner
	Stations NearbyFinder
	// Geocoder resolves ?location= on nearby lookups; optional.
	Geocoder geocode.Geocoder
	Metrics  *metrics.Collector
	Logger   *httplog.Logger
	// Requests per minute and client IP, 0 disables the limiter.
	RateLimit int
}

type Server struct {
	planner   *fuelroute.Planner
	stations  NearbyFinder
	geocoder  geocode.Geocoder
	metrics   *metrics.Collector
	logger    *httplog.Logger
	rateLimit int
}

// RouteRequest is the body of POST /route.
type RouteRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NearbyResponse is returned by GET /stations/nearby.
type NearbyResponse struct {
	Location fuelroute.Coordinate        `json:"location"`
	Radius   float64                     `json:"radius_miles"`
	Cheapest fuelroute.StationDistance   `json:"cheapest"`
	Stations []fuelroute.StationDistance `json:"stations"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = httplog.NewLogger("fuelroute", httplog.Options{
			LogLevel: slog.LevelError,
			Concise:  true,
		})
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Server{
		planner:   opts.Planner,
		stations:  opts.Stations,
		geocoder:  opts.Geocoder,
		metrics:   m,
		logger:    logger,
		rateLimit: opts.RateLimit,
	}
}

// Handler returns the router with all middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if s.rateLimit > 0 {
		r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
	}

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Post("/route", s.handleRoute)
	r.Post("/route/", s.handleRoute)
	r.Get("/stations/nearby", s.handleNearby)

	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.metrics.ObserveEvaluation(metrics.OutcomeMissingInput, 0, 0, 0)
		writeError(w, http.StatusBadRequest, errMissingLocations)
		return
	}

	start := time.Now()
	report, err := s.planner.Evaluate(r.Context(), req.Start, req.End)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, fuelroute.ErrMissingInput):
		s.metrics.ObserveEvaluation(metrics.OutcomeMissingInput, elapsed, 0, 0)
		writeError(w, http.StatusBadRequest, errMissingLocations)
	case errors.Is(err, fuelroute.ErrProviderFailure):
		s.metrics.ObserveEvaluation(metrics.OutcomeProviderFailure, elapsed, 0, 0)
		s.logger.Warn("Route provider failed", "start", req.Start, "end", req.End, "error", err)
		writeError(w, http.StatusInternalServerError, errProviderFailed)
	case err != nil:
		s.metrics.ObserveEvaluation(metrics.OutcomeError, elapsed, 0, 0)
		s.logger.Error("Error evaluating route", "error", err)
		writeError(w, http.StatusInternalServerError, "Error evaluating route")
	default:
		s.metrics.ObserveEvaluation(metrics.OutcomeOK, elapsed, len(report.FuelStopPoints), len(report.FuelStops))
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	radius := s.planner.Config().SearchRadiusMiles
	if radiusStr := query.Get("radius"); radiusStr != "" {
		v, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid radius value")
			return
		}
		radius = v
	}

	var point fuelroute.Coordinate
	if location := strings.TrimSpace(query.Get("location")); location != "" {
		if s.geocoder == nil {
			writeError(w, http.StatusBadRequest, "Location search is not available")
			return
		}
		loc, err := s.geocoder.Geocode(r.Context(), location)
		if err != nil {
			s.logger.Warn("Geocoding failed", "location", location, "error", err)
			writeError(w, http.StatusNotFound, "Location not found")
			return
		}
		point = loc
	} else {
		lat, err := strconv.ParseFloat(query.Get("lat"), 64)
		if err != nil || lat < -90 || lat > 90 {
			writeError(w, http.StatusBadRequest, "Invalid latitude value")
			return
		}
		lng, err := strconv.ParseFloat(query.Get("lng"), 64)
		if err != nil || lng < -180 || lng > 180 {
			writeError(w, http.StatusBadRequest, "Invalid longitude value")
			return
		}
		point = fuelroute.Coordinate{Lat: lat, Lng: lng}
	}

	nearby, err := s.stations.NearbyStations(r.Context(), point, radius)
	if err != nil {
		s.logger.Error("Error finding nearby stations", "error", err)
		writeError(w, http.StatusInternalServerError, "Error finding nearby stations")
		return
	}

	s.metrics.ObserveNearby(len(nearby) > 0)
	if len(nearby) == 0 {
		writeError(w, http.StatusNotFound, "No stations within radius")
		return
	}

	writeJSON(w, http.StatusOK, NearbyResponse{
		Location: point,
		Radius:   radius,
		Cheapest: nearby[0],
		Stations: nearby,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
