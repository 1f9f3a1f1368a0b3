/*
handlers.go - HTTP handler implementations

PURPOSE:
  Implements every endpoint of the analytics API: report catalog,
  entity-scoped reports, data browse/ingest/delete/export, filter
  options and the assistant relay.

FILTER PARSING:
  All report and data endpoints accept the same query parameters.
  Multi-select dimensions repeat the parameter (?year=2025&year=2026).
  Unknown parameters are ignored; numeric parameters that fail to parse
  are dropped rather than rejected, so a stale dashboard URL still
  renders with the remaining constraints.

ERROR MAPPING:
  - Client-caused failures (unknown entity, schema mismatch, bad
    identifiers) map to 400/404.
  - Everything else is a 500 with the wrapped cause in details.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - analytics/engine.go: Report implementations
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/insight-engine/analytics"
	"github.com/warp/insight-engine/assistant"
	"github.com/warp/insight-engine/export"
	"github.com/warp/insight-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers. Agent may be nil
// when no model API key is configured; the chat endpoint then returns
// 503 instead of relaying.
type Handler struct {
	Store  *sqlite.Store
	Engine *analytics.Engine
	Agent  *assistant.Agent
	Log    zerolog.Logger

	now func() time.Time
}

// NewHandler creates a handler over the given store and engine.
func NewHandler(store *sqlite.Store, engine *analytics.Engine, agent *assistant.Agent, log zerolog.Logger) *Handler {
	return &Handler{
		Store:  store,
		Engine: engine,
		Agent:  agent,
		Log:    log,
		now:    time.Now,
	}
}

// =============================================================================
// FILTER PARSING
// =============================================================================

// parseFilter builds the filter selection from query parameters.
func parseFilter(values url.Values) analytics.Filter {
	return analytics.Filter{
		Years:             intParams(values, "year"),
		Months:            intParams(values, "month"),
		MonthName:         values.Get("month_name"),
		Quarter:           intParam(values, "quarter"),
		Weeks:             intParams(values, "week"),
		Branches:          values["branch"],
		Classes:           values["class"],
		TransType:         values.Get("trans_type"),
		IntermediaryTypes: values["intermediary_type"],
		Intermediaries:    values["intermediary"],
		Marketer:          values.Get("marketer"),
		Currency:          values.Get("currency"),
	}
}

// intParams collects every parseable integer value of a repeated
// parameter, dropping the rest.
func intParams(values url.Values, key string) []int {
	var out []int
	for _, raw := range values[key] {
		if n, err := strconv.Atoi(raw); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func intParam(values url.Values, key string) int {
	n, err := strconv.Atoi(values.Get(key))
	if err != nil {
		return 0
	}
	return n
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

// GetSummary returns the three premium summary cards.
// GET /api/reports/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Engine.Summary(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// GetMonthlyComparison returns the month-by-month year-over-year table.
// GET /api/reports/monthly-comparison
func (h *Handler) GetMonthlyComparison(w http.ResponseWriter, r *http.Request) {
	rows, years, err := h.Engine.MonthlyComparison(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "monthly comparison", err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonDTO(rows, years))
}

// GetQuarterlyComparison returns the quarter year-over-year table.
// GET /api/reports/quarterly-comparison
func (h *Handler) GetQuarterlyComparison(w http.ResponseWriter, r *http.Request) {
	rows, years, err := h.Engine.QuarterlyComparison(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "quarterly comparison", err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonDTO(rows, years))
}

// GetClassComparison returns the per-class year-over-year table.
// GET /api/reports/class-comparison
func (h *Handler) GetClassComparison(w http.ResponseWriter, r *http.Request) {
	rows, years, err := h.Engine.ClassComparison(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "class comparison", err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonDTO(rows, years))
}

// GetWeeklyByMonth returns the week-by-month premium pivot.
// GET /api/reports/weekly-monthly
func (h *Handler) GetWeeklyByMonth(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Engine.WeeklyByMonth(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "weekly pivot", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeeklyDTOs(rows))
}

// GetClassBreakdown returns premium grouped by class.
// GET /api/reports/class
func (h *Handler) GetClassBreakdown(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Engine.ClassBreakdown(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "class breakdown", err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTOs(rows))
}

// GetBranchBreakdown returns premium grouped by branch.
// GET /api/reports/branch
func (h *Handler) GetBranchBreakdown(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Engine.BranchBreakdown(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "branch breakdown", err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTOs(rows))
}

// GetTrend returns the monthly premium trend series.
// GET /api/reports/trend
func (h *Handler) GetTrend(w http.ResponseWriter, r *http.Request) {
	points, err := h.Engine.Trend(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "trend", err)
		return
	}
	writeJSON(w, http.StatusOK, toTrendDTOs(points))
}

// GetQuarterlyProgress returns the quarterly progress series.
// GET /api/reports/quarterly
func (h *Handler) GetQuarterlyProgress(w http.ResponseWriter, r *http.Request) {
	points, err := h.Engine.QuarterlyProgress(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "quarterly progress", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuarterDTOs(points))
}

// =============================================================================
// ENTITY ENDPOINTS
// =============================================================================

// entityReport resolves the {type} path parameter to a scoped report.
func (h *Handler) entityReport(w http.ResponseWriter, r *http.Request) (*analytics.EntityReport, bool) {
	report, err := analytics.EntityReportFor(h.Engine, chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown entity type", err)
		return nil, false
	}
	return report, true
}

// GetEntitySummary returns the summary cards scoped to one
// intermediary type.
// GET /api/entities/{type}/summary
func (h *Handler) GetEntitySummary(w http.ResponseWriter, r *http.Request) {
	report, ok := h.entityReport(w, r)
	if !ok {
		return
	}
	summary, err := report.Summary(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "entity summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// GetEntityMonthly returns the entity-scoped monthly comparison.
// GET /api/entities/{type}/monthly
func (h *Handler) GetEntityMonthly(w http.ResponseWriter, r *http.Request) {
	report, ok := h.entityReport(w, r)
	if !ok {
		return
	}
	rows, years, err := report.MonthlyComparison(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "entity monthly comparison", err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonDTO(rows, years))
}

// GetEntityQuarterly returns the entity-scoped quarterly comparison.
// GET /api/entities/{type}/quarterly
func (h *Handler) GetEntityQuarterly(w http.ResponseWriter, r *http.Request) {
	report, ok := h.entityReport(w, r)
	if !ok {
		return
	}
	rows, years, err := report.QuarterlyComparison(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "entity quarterly comparison", err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonDTO(rows, years))
}

// GetEntityRankings returns the intermediary ranking for one type.
// GET /api/entities/{type}/rankings
func (h *Handler) GetEntityRankings(w http.ResponseWriter, r *http.Request) {
	report, ok := h.entityReport(w, r)
	if !ok {
		return
	}
	rows, err := report.Rankings(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "entity rankings", err)
		return
	}
	writeJSON(w, http.StatusOK, toRankingDTOs(rows))
}

// GetEntityIntermediaries lists the distinct intermediaries of one type.
// GET /api/entities/{type}/intermediaries
func (h *Handler) GetEntityIntermediaries(w http.ResponseWriter, r *http.Request) {
	report, ok := h.entityReport(w, r)
	if !ok {
		return
	}
	names, err := report.Intermediaries(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		h.reportError(w, "entity intermediaries", err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// =============================================================================
// DATA ENDPOINTS
// =============================================================================

// ListData returns the filtered raw rows for the data browse page.
// GET /api/data
func (h *Handler) ListData(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.Rows(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list data", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// IngestData bulk-inserts uploaded rows atomically.
// POST /api/data
func (h *Handler) IngestData(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "No rows provided", nil)
		return
	}

	rows := make([]sqlite.RowMap, len(req.Rows))
	for i, m := range req.Rows {
		rows[i] = sqlite.RowMap(m)
	}

	inserted, err := h.Store.BulkInsert(r.Context(), rows)
	if err != nil {
		if errors.Is(err, analytics.ErrSchemaMismatch) {
			writeError(w, http.StatusBadRequest, "Rows do not match the expected schema", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to insert rows", err)
		return
	}

	batchID := uuid.NewString()
	h.Log.Info().Str("batch_id", batchID).Int("inserted", inserted).Msg("bulk insert complete")
	writeJSON(w, http.StatusCreated, IngestResponse{BatchID: batchID, Inserted: inserted})
}

// DeleteData removes every row matching the filter. With no filter it
// empties the table; the UI confirms before calling.
// DELETE /api/data
func (h *Handler) DeleteData(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r.URL.Query())
	deleted, err := h.Store.DeleteWhere(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete rows", err)
		return
	}
	h.Log.Info().Int64("deleted", deleted).Bool("unfiltered", f.IsZero()).Msg("bulk delete complete")
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: deleted})
}

// ExportData streams the filtered rows as a styled workbook.
// GET /api/data/export
func (h *Handler) ExportData(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.Rows(r.Context(), parseFilter(r.URL.Query()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rows", err)
		return
	}

	filename := export.Filename(h.now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	if err := export.WriteXLSX(w, records); err != nil {
		// Headers are already sent; log and drop the connection.
		h.Log.Error().Err(err).Msg("export write failed")
	}
}

// GetFilterOptions returns the distinct values per filter dimension.
// GET /api/data/options
func (h *Handler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.Store.FilterOptions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load filter options", err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// =============================================================================
// ASSISTANT ENDPOINT
// =============================================================================

// Chat relays one question to the assistant.
// POST /api/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.Agent == nil {
		writeError(w, http.StatusServiceUnavailable, "Assistant is not configured", nil)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required", nil)
		return
	}

	answer, err := h.Agent.Ask(r.Context(), req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Assistant request failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: answer})
}

// =============================================================================
// HELPERS
// =============================================================================

// reportError maps an engine failure to a response.
func (h *Handler) reportError(w http.ResponseWriter, report string, err error) {
	if analytics.IsClientError(err) {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}
	h.Log.Error().Err(err).Str("report", report).Msg("report failed")
	writeError(w, http.StatusInternalServerError, "Failed to run report", err)
}

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
