// Package server exposes the analysis service over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"chainscope/internal/analysis"
	"chainscope/internal/config"
)

// Server wraps the HTTP transport around the analysis service.
type Server struct {
	svc    *analysis.Service
	cfg    config.ServerConfig
	logger zerolog.Logger
	http   *http.Server
}

// New creates a configured server with all routes registered.
func New(svc *analysis.Service, cfg config.ServerConfig, logger zerolog.Logger) *Server {
	s := &Server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}

	router := mux.NewRouter()
	router.Use(s.requestLogger)

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/options-risk", s.handleRisk).Methods(http.MethodPost)
	router.HandleFunc("/api/options-summary", s.handleSummary).Methods(http.MethodPost)
	router.HandleFunc("/api/options-vehicle", s.handleVehicle).Methods(http.MethodPost)
	router.HandleFunc("/api/options-compare", s.handleCompare).Methods(http.MethodPost)
	router.HandleFunc("/api/spread-trade", s.handleSpreadTrade).Methods(http.MethodPost)
	router.HandleFunc("/api/snapshots/{symbol}", s.handleSnapshots).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the route tree, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("HTTP server shutting down")
	return s.http.Shutdown(shutdownCtx)
}

// requestLogger logs each request with its duration and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
