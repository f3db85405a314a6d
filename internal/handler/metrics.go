package handler

import (
	"fmt"
	"net/http"

	"github.com/authcore/authcore/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeOutcomes(w, "authcore_registrations_total", snap.Registrations)
	writeOutcomes(w, "authcore_logins_total", snap.Logins)
	writeOutcomes(w, "authcore_refreshes_total", snap.Refreshes)
	writeOutcomes(w, "authcore_logouts_total", snap.Logouts)
	writeOutcomes(w, "authcore_authentications_total", snap.Authentications)

	writeMetric(w, "authcore_password_hash_duration_seconds_count %d\n", snap.PasswordHashCount)
	writeMetric(w, "authcore_password_hash_duration_seconds_sum %.6f\n", float64(snap.PasswordHashDurationTotal)/1e9)
}

func writeOutcomes(w http.ResponseWriter, name string, c metrics.OutcomeCounts) {
	writeMetric(w, "%s{outcome=\"success\"} %d\n", name, c.Success)
	writeMetric(w, "%s{outcome=\"rejected\"} %d\n", name, c.Rejected)
	writeMetric(w, "%s{outcome=\"error\"} %d\n", name, c.Error)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
