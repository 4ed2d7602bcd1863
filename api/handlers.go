/*
handlers.go - HTTP API handlers for the HVAC analytics

PURPOSE:
  Exposes the metrics Engine over REST. Handlers parse query parameters,
  delegate to the Engine and serialize DTOs. Nothing here computes a metric.

ENDPOINTS:
  GET /healthz                        Dataset counts
  GET /api/kpis?as_of=                KPIMetrics
  GET /api/alerts?as_of=              Equipment, renewal and client alerts
  GET /api/charts/revenue?months=     Revenue and margin per month, from January
  GET /api/charts/top-clients?limit=  Clients ranked by 6-month revenue
  GET /api/charts/callbacks?as_of=    Callback counts by reason
  GET /api/technicians/summary        Team averages and coaching list
  GET /api/technicians/{id}/metrics   TechnicianMetrics
  GET /api/clients/{id}/metrics       ClientMetrics

  as_of is RFC3339 or YYYY-MM-DD (server local time). Omitted means the
  engine clock.

ERROR HANDLING:
  Errors are returned as JSON with an HTTP status:
  - 400: malformed query parameter, unknown table column
  - 404: unknown technician, client or table
  - 500: anything else

SEE ALSO:
  - dto.go: response types
  - tables.go: listing endpoints
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/hvac-insights/generic"
	"github.com/warp/hvac-insights/hvac"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// errBadParam marks a query parameter that could not be parsed.
var errBadParam = errors.New("invalid query parameter")

// maxPageSize bounds page_size on table requests.
const maxPageSize = 500

// Handler holds the current engine and the table catalog. The engine is
// replaced whole when a Reloader swaps in a new dataset.
type Handler struct {
	engine   atomic.Pointer[hvac.Engine]
	reloader *Reloader
	log      zerolog.Logger
	pageSize int
	tables   map[string]tableView
	catalog  []tableView
}

type HandlerOption func(*Handler)

func WithLogger(l zerolog.Logger) HandlerOption {
	return func(h *Handler) { h.log = l.With().Str("component", "api").Logger() }
}

// WithDefaultPageSize sets the table page size used when a request has no
// page_size.
func WithDefaultPageSize(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

func NewHandler(engine *hvac.Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		log:      zerolog.Nop(),
		pageSize: generic.DefaultPageSize,
	}
	h.engine.Store(engine)
	for _, opt := range opts {
		opt(h)
	}
	h.catalog = tableCatalog()
	h.tables = make(map[string]tableView, len(h.catalog))
	for _, t := range h.catalog {
		h.tables[t.Name()] = t
	}
	return h
}

// =============================================================================
// METRICS ENDPOINTS
// =============================================================================

// Engine returns the engine serving requests right now.
func (h *Handler) Engine() *hvac.Engine { return h.engine.Load() }

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	out := HealthDTO{Status: "ok", Counts: h.Engine().Store().Counts()}
	if h.reloader != nil {
		if run, ok := h.reloader.LastRun(); ok {
			out.LastReload = &run
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// GetKPIs handles GET /api/kpis
func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toKPIMetricsDTO(h.Engine().KPIMetrics(asOf)))
}

func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAlertsDTO(h.Engine().Alerts(asOf)))
}

func (h *Handler) GetRevenueChart(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	months, err := intParam(r, "months", hvac.DefaultChartMonths, 12)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	series := h.Engine().RevenueByMonth(asOf, months)
	out := make([]MonthlyRevenueDTO, len(series))
	for i, m := range series {
		out[i] = MonthlyRevenueDTO{Month: m.Month, Revenue: money(m.Revenue), Margin: money(m.Margin)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetTopClients(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", hvac.DefaultTopClients, 100)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	top := h.Engine().TopClientsByRevenue(limit, asOf)
	out := make([]ClientRevenueDTO, len(top))
	for i, c := range top {
		out[i] = ClientRevenueDTO{ClientID: c.Client.ID, Name: c.Client.Name, Revenue: money(c.Revenue), Margin: money(c.Margin)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetCallbackTrends(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	trends := h.Engine().CallbackTrends(asOf)
	if trends == nil {
		trends = []hvac.CallbackTrend{}
	}
	writeJSON(w, http.StatusOK, trends)
}

func (h *Handler) GetTeamSummary(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	engine := h.Engine()
	s := engine.TeamSummary(asOf)
	out := TeamSummaryDTO{
		AvgEfficiency:   s.AvgEfficiency,
		AvgFTF:          s.AvgFTF,
		AvgCallbackRate: s.AvgCallbackRate,
		NeedsCoaching:   s.NeedsCoaching,
		Technicians:     make([]TechnicianMetricsDTO, len(s.Technicians)),
	}
	for i, m := range s.Technicians {
		name := ""
		if t, ok := engine.Store().TechnicianByID(m.TechnicianID); ok {
			name = t.Name
		}
		out.Technicians[i] = toTechnicianMetricsDTO(m, name)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetTechnicianMetrics handles GET /api/technicians/{id}/metrics
func (h *Handler) GetTechnicianMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	engine := h.Engine()
	tech, ok := engine.Store().TechnicianByID(id)
	if !ok {
		h.respondError(w, r, fmt.Errorf("technician %q: %w", id, generic.ErrNotFound))
		return
	}
	asOf, err := parseAsOf(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTechnicianMetricsDTO(engine.TechnicianMetrics(id, asOf), tech.Name))
}

// GetClientMetrics handles GET /api/clients/{id}/metrics
func (h *Handler) GetClientMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	engine := h.Engine()
	client, ok := engine.Store().ClientByID(id)
	if !ok {
		h.respondError(w, r, fmt.Errorf("client %q: %w", id, generic.ErrNotFound))
		return
	}
	asOf, err := parseAsOf(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientMetricsDTO(engine.ClientMetrics(id, asOf), client.Name))
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

// parseAsOf reads ?as_of=. The zero time lets the engine use its clock.
func parseAsOf(r *http.Request) (time.Time, error) {
	s := r.URL.Query().Get("as_of")
	if s == "" {
		return time.Time{}, nil
	}
	return generic.ParseDate(s, time.Local)
}

// intParam reads a positive integer query parameter, capped at ceiling.
func intParam(r *http.Request, name string, def, ceiling int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s=%q must be a positive integer", errBadParam, name, s)
	}
	if n > ceiling {
		n = ceiling
	}
	return n, nil
}

// =============================================================================
// RESPONSES
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// respondError maps err to a status and writes it. Server errors are logged.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case generic.IsClientError(err), errors.Is(err, errBadParam):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}
