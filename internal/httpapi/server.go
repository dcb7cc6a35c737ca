// Package httpapi serves the read-only operational surface: the active
// signal snapshot, health, and Prometheus metrics. It never mutates the
// registry.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tradeforge/signalcore/internal/domain/signal"
)

// Server exposes the engine over HTTP.
type Server struct {
	registry *signal.Registry
	gatherer prometheus.Gatherer
	log      zerolog.Logger
	clock    func() time.Time
	http     *http.Server
}

func NewServer(addr string, registry *signal.Registry, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	s := &Server{
		registry: registry,
		gatherer: gatherer,
		log:      log.With().Str("component", "httpapi").Logger(),
		clock:    time.Now,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/signals", s.handleSignals).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	now := s.clock()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"active_signals": s.registry.LiveCount(now),
		"time":           now.UTC().Format(time.RFC3339),
	})
}

type signalsResponse struct {
	AsOf    time.Time       `json:"as_of"`
	Count   int             `json:"count"`
	Signals []signal.Signal `json:"signals"`
}

func (s *Server) handleSignals(w http.ResponseWriter, _ *http.Request) {
	now := s.clock()
	live := s.registry.Snapshot(now)
	s.writeJSON(w, http.StatusOK, signalsResponse{
		AsOf:    now.UTC(),
		Count:   len(live),
		Signals: live,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}
