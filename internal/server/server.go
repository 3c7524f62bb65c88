// Package server exposes the operator operations over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fgeck/gomssql-backup/internal/services/operator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

// Server represents the HTTP server.
type Server struct {
	router   *chi.Mux
	operator operator.Service
	logger   zerolog.Logger
}

// New creates and configures the HTTP server.
func New(logger zerolog.Logger, op operator.Service) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		operator: op,
		logger:   logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.StripSlashes)

	s.router.Get("/health", s.health)

	s.router.Route("/api/v1/sql", func(r chi.Router) {
		r.Post("/test-connection", s.testConnection)
		r.Post("/databases", s.listDatabases)
		r.Post("/backups", s.backupDatabases)
	})

	return s
}

// Router returns the chi router.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
