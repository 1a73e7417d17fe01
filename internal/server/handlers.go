package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Response headers describing the requesting device.
const (
	HeaderDevice     = "X-Layout-Device"
	HeaderBreakpoint = "X-Layout-Breakpoint"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Detector.DetectRequest(r))
}

func (s *Server) handleListLayouts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"layouts": s.app.Manager.Registry().Keys()})
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	module := chi.URLParam(r, "module")
	name := chi.URLParam(r, "context")
	user := UserFromRequest(r)

	renderer, err := s.app.Renderers.Negotiate(r.URL.Query().Get("format"), r.Header.Get("Accept"), "json")
	if err != nil {
		writeError(w, http.StatusNotAcceptable, "unsupported_format", err.Error())
		return
	}

	get := s.app.Manager.Get
	if fresh, _ := strconv.ParseBool(r.URL.Query().Get("fresh")); fresh {
		get = s.app.Manager.Fresh
	}
	l, found, err := get(ctx, module, name, user)
	if err != nil {
		s.logger.Error().Err(err).
			Str("module", module).
			Str("context", name).
			Msg("layout build failed")
		writeError(w, http.StatusInternalServerError, "build_failed", "layout could not be built")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "no layout registered for "+module+"."+name)
		return
	}

	body, err := renderer.Render(ctx, s.app.Manager.Render(ctx, l))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render_failed", err.Error())
		return
	}

	detected := s.app.Detector.DetectRequest(r)
	w.Header().Set(HeaderDevice, string(detected.Type))
	w.Header().Set(HeaderBreakpoint, detected.Breakpoint)
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Add("Vary", "Accept, User-Agent, "+HeaderUserID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	removed, err := s.app.Manager.ClearAllCache(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "cache_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleClearUser(w http.ResponseWriter, r *http.Request) {
	removed, err := s.app.Manager.ClearUserCache(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadGateway, "cache_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleClearLayout(w http.ResponseWriter, r *http.Request) {
	err := s.app.Manager.ClearCache(r.Context(), chi.URLParam(r, "module"), chi.URLParam(r, "context"), UserFromRequest(r))
	if err != nil {
		writeError(w, http.StatusBadGateway, "cache_unavailable", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
