package handlers

import (
	"net/http"

	"protiq/internal/history"
	applog "protiq/internal/log"
)

// Statistics recomputes the visitor's summary numbers from the current
// history snapshot. Nothing here is cached or persisted.
func Statistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if records == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	owner, ok := ownerToken(r)
	if !ok {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	entries, err := records.All(r.Context(), owner)
	if err != nil {
		applog.Error(r.Context(), "failed to load history for statistics", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to compute statistics")
		return
	}

	writeJSON(w, http.StatusOK, history.ComputeStatistics(entries))
}
