/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. requestLogger: zerolog structured request logging
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/reports/*     Report catalog (filterable via query parameters)
  /api/entities/*    Intermediary-type scoped reports
  /api/data/*        Browse, ingest, delete, export, filter options
  /api/chat          Assistant relay

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Report catalog
		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.GetSummary)
			r.Get("/monthly-comparison", h.GetMonthlyComparison)
			r.Get("/quarterly-comparison", h.GetQuarterlyComparison)
			r.Get("/class-comparison", h.GetClassComparison)
			r.Get("/weekly-monthly", h.GetWeeklyByMonth)
			r.Get("/class", h.GetClassBreakdown)
			r.Get("/branch", h.GetBranchBreakdown)
			r.Get("/trend", h.GetTrend)
			r.Get("/quarterly", h.GetQuarterlyProgress)
		})

		// Entity-scoped reports
		r.Route("/entities/{type}", func(r chi.Router) {
			r.Get("/summary", h.GetEntitySummary)
			r.Get("/monthly", h.GetEntityMonthly)
			r.Get("/quarterly", h.GetEntityQuarterly)
			r.Get("/rankings", h.GetEntityRankings)
			r.Get("/intermediaries", h.GetEntityIntermediaries)
		})

		// Data management
		r.Route("/data", func(r chi.Router) {
			r.Get("/", h.ListData)
			r.Post("/", h.IngestData)
			r.Delete("/", h.DeleteData)
			r.Get("/export", h.ExportData)
			r.Get("/options", h.GetFilterOptions)
		})

		// Assistant
		r.Post("/chat", h.Chat)
	})

	return r
}

// requestLogger logs each request with its method, path, status and
// duration through the handler's logger.
func requestLogger(h *Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			h.Log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
