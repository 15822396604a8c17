package handler

import (
	"net/http"
	"strconv"

	"github.com/shiva/tripweaver/internal/monitor"
)

// MonitorHandler exposes the Monitor (C8) over HTTP for operators.
type MonitorHandler struct {
	mon *monitor.Monitor
}

// NewMonitorHandler builds a MonitorHandler over mon.
func NewMonitorHandler(mon *monitor.Monitor) *MonitorHandler {
	return &MonitorHandler{mon: mon}
}

// Stats handles GET /api/v1/monitor/stats: a point-in-time counter snapshot.
func (h *MonitorHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mon.Stats())
}

// Report handles GET /api/v1/monitor/report: the aggregated report with
// recommendations.
func (h *MonitorHandler) Report(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mon.Report())
}

// Logs handles GET /api/v1/monitor/logs?limit=N&errorsOnly=true: the most
// recent request traces from the ring buffer.
func (h *MonitorHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	errorsOnly := r.URL.Query().Get("errorsOnly") == "true"

	writeJSON(w, http.StatusOK, h.mon.RecentLogs(limit, errorsOnly))
}

// Reset handles POST /api/v1/monitor/reset: clears all counters and the
// ring buffer. Intended for operator use between load-test runs, not normal
// production traffic.
func (h *MonitorHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mon.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
