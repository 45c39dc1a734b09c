// Package status serves health, metrics and scan statistics over HTTP.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sjsage522/pricewatcher/config"
	"sjsage522/pricewatcher/logger"
	"sjsage522/pricewatcher/services/metrics"
	"sjsage522/pricewatcher/services/worker"
)

// StatsSource exposes the orchestrator state shown by the API
type StatsSource interface {
	LastSummary() (worker.CycleSummary, bool)
	SeenKeys() int
}

// Stats is the /api/v1/stats response
type Stats struct {
	Site      string               `json:"site"`
	BaseURL   string               `json:"base_url"`
	MaxPrice  float64              `json:"max_price"`
	SeenKeys  int                  `json:"seen_keys"`
	LastCycle *worker.CycleSummary `json:"last_cycle"`
}

// Server is the status HTTP server
type Server struct {
	cfg     *config.Config
	source  StatsSource
	metrics *metrics.Metrics
	server  *http.Server
	log     *logger.Logger
}

// NewServer creates a server listening on cfg.StatusAddr
func NewServer(cfg *config.Config, source StatsSource, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		source:  source,
		metrics: m,
		log:     logger.ForServer(),
	}
	s.server = &http.Server{
		Addr:              cfg.StatusAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", s.stats)
	})
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msg("Status server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("Status server stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	stats := Stats{
		Site:     s.cfg.SiteName,
		BaseURL:  s.cfg.BaseURL,
		MaxPrice: s.cfg.MaxPrice,
		SeenKeys: s.source.SeenKeys(),
	}
	if last, ok := s.source.LastSummary(); ok {
		stats.LastCycle = &last
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Handled request")
	})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
