// Package server exposes the layout manager over HTTP.
//
// Callers identify the user with X-User-ID, X-User-Roles and
// X-User-Permissions headers (comma separated lists). Requests without
// X-User-ID are anonymous. Authentication is left to a proxy in front of
// the service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-layouts/internal/app"
	"github.com/goliatone/go-layouts/pkg/authz"
)

// User headers.
const (
	HeaderUserID          = "X-User-ID"
	HeaderUserRoles       = "X-User-Roles"
	HeaderUserPermissions = "X-User-Permissions"
	HeaderRequestID       = "X-Request-ID"
)

// Server serves layouts, cache administration, device detection and
// metrics.
type Server struct {
	app    *app.App
	logger zerolog.Logger
	router chi.Router
}

// New builds the router for a.
func New(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger.With().Str("component", "http").Logger(),
		router: chi.NewRouter(),
	}

	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.accessLog)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/device", s.handleDevice)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.Metrics.Registry(), promhttp.HandlerOpts{}))

	s.router.Route("/layouts", func(r chi.Router) {
		r.Get("/", s.handleListLayouts)
		r.Get("/{module}/{context}", s.handleGetLayout)
	})

	s.router.Route("/cache", func(r chi.Router) {
		r.Delete("/", s.handleClearAll)
		r.Delete("/users/{id}", s.handleClearUser)
		r.Delete("/layouts/{module}/{context}", s.handleClearLayout)
	})

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("layout server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info().Msg("layout server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// UserFromRequest reads the user headers. It returns nil for anonymous
// requests.
func UserFromRequest(r *http.Request) *authz.User {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return nil
	}
	return &authz.User{
		ID:          id,
		Roles:       splitList(r.Header.Get(HeaderUserRoles)),
		Permissions: splitList(r.Header.Get(HeaderUserPermissions)),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(started)).
			Str("request_id", w.Header().Get(HeaderRequestID)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
