/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Wires URLs to handlers and sets up the middleware stack. Everything under
  /api is read-only: the dataset is loaded once at startup.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in logs
  2. Logger:     zerolog line per request (method, route, status, latency)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Timeout:    Per-request deadline from REQUEST_TIMEOUT
  5. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /healthz                 Liveness and dataset counts
  /api/kpis                Dashboard KPIs
  /api/charts/*            Revenue, top clients, callback trends
  /api/alerts              Opportunity lists
  /api/technicians/*       Technician metrics and team summary
  /api/clients/*           Client metrics
  /api/tables/*            Listings: search, filter, sort, page, export

SEE ALSO:
  - handlers.go: metric and chart endpoints
  - tables.go: listing endpoints
  - cmd/server/main.go: server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterConfig carries the transport settings that come from config.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/kpis", h.GetKPIs)
		r.Get("/alerts", h.GetAlerts)

		r.Route("/charts", func(r chi.Router) {
			r.Get("/revenue", h.GetRevenueChart)
			r.Get("/top-clients", h.GetTopClients)
			r.Get("/callbacks", h.GetCallbackTrends)
		})

		r.Route("/technicians", func(r chi.Router) {
			r.Get("/summary", h.GetTeamSummary)
			r.Get("/{id}/metrics", h.GetTechnicianMetrics)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/{id}/metrics", h.GetClientMetrics)
		})

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", h.ListTables)
			r.Get("/{name}", h.GetTablePage)
			r.Get("/{name}/export.csv", h.ExportTableCSV)
			r.Get("/{name}/export.xlsx", h.ExportTableXLSX)
		})
	})

	return r
}

// requestLogger logs one line per request after it completes.
func requestLogger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			l.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", route).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("request")
		})
	}
}
