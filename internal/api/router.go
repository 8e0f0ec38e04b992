package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

const healthCheckTimeout = 3 * time.Second

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", s.handleListConnections)
			r.Post("/", s.handleCreateConnection)
			r.Get("/export", s.handleExportConnections)
			r.Get("/{id}", s.handleGetConnection)
			r.Delete("/{id}", s.handleDeleteConnection)
		})

		r.Post("/paths", s.handleFindPaths)
		r.Post("/routes", s.handleRoute)

		r.Get("/controls", s.handleListControls)
		r.Route("/switchers/{device}/{control}", func(r chi.Router) {
			r.Get("/routes", s.handleSwitcherRoutes)
			r.Delete("/outputs/{output}", s.handleClearOutput)
		})
	})

	return r
}

// handleHealth reports "ok", or "degraded" with 503 when any dependency fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.health))
	for name := range s.health {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ok", http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.health[name].HealthCheck(ctx); err != nil {
			checks[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":      status,
		"version":     s.version,
		"checks":      checks,
		"connections": s.graph.Connections().Len(),
		"controls":    s.graph.Registry().Len(),
	})
}
