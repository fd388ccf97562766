package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coastalmesh/geocode-gateway/internal/domain"
	"github.com/coastalmesh/geocode-gateway/internal/resolve"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolver performs synchronous geocode lookups for the HTTP layer.
type Resolver interface {
	Forward(ctx context.Context, query string, proximity *domain.Coordinate) ([]domain.PlaceRecord, error)
	Reverse(ctx context.Context, coord domain.Coordinate) ([]domain.PlaceRecord, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the lookup, health, readiness, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	resolver   Resolver
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/forward, /v1/reverse, /healthz,
// /readyz, and /metrics routes.
func NewServer(addr string, resolver Resolver, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		resolver: resolver,
		logger:   logger,
	}

	mux.HandleFunc("GET /v1/forward", s.handleForward)
	mux.HandleFunc("GET /v1/reverse", s.handleReverse)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
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

// lookupResponse is the JSON shape of a successful lookup. Places carry the
// raw upstream feature payloads.
type lookupResponse struct {
	Query  string               `json:"query"`
	Count  int                  `json:"count"`
	Places []domain.PlaceRecord `json:"places"`
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing required query parameter q"})
		return
	}

	var proximity *domain.Coordinate
	if raw := r.URL.Query().Get("proximity"); raw != "" {
		coord, err := parseLonLat(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid proximity, expected lon,lat"})
			return
		}
		proximity = &coord
	}

	places, err := s.resolver.Forward(r.Context(), query, proximity)
	if err != nil {
		s.writeLookupError(w, "forward", err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{Query: query, Count: len(places), Places: places})
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lon are required numeric parameters"})
		return
	}

	coord := domain.Coordinate{Lat: lat, Lon: lon}
	places, err := s.resolver.Reverse(r.Context(), coord)
	if err != nil {
		s.writeLookupError(w, "reverse", err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{Query: coord.String(), Count: len(places), Places: places})
}

// writeLookupError maps resolver failures onto HTTP statuses: the caller's
// fault is 4xx, the upstream's fault is 502, a garbled upstream body is 500,
// and contention for the single exchange slot is 503.
func (s *Server) writeLookupError(w http.ResponseWriter, kind string, err error) {
	status := http.StatusInternalServerError

	var gerr *domain.GeocodeError
	switch {
	case errors.Is(err, resolve.ErrBusy), errors.Is(err, resolve.ErrDraining):
		status = http.StatusServiceUnavailable
	case errors.As(err, &gerr):
		if gerr.Kind == domain.ErrorKindConnection || gerr.Kind == domain.ErrorKindHTTPStatus {
			status = http.StatusBadGateway
		}
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	s.logger.Warn("lookup failed", "kind", kind, "status", status, "error", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseLonLat parses a "lon,lat" pair, the order the upstream API uses.
func parseLonLat(raw string) (domain.Coordinate, error) {
	lonStr, latStr, ok := strings.Cut(raw, ",")
	if !ok {
		return domain.Coordinate{}, errors.New("expected lon,lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return domain.Coordinate{}, err
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return domain.Coordinate{}, err
	}
	return domain.Coordinate{Lat: lat, Lon: lon}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
