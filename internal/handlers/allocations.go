package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	applog "protiq/internal/log"
	"protiq/internal/quality"
	"protiq/models"
)

type suggestAllocationRequest struct {
	Sources []string `json:"sources"`
}

type suggestAllocationResponse struct {
	Sources     []models.ProteinSource `json:"sources"`
	Percentages []float64              `json:"percentages"`
}

// SuggestAllocation proposes a default percentage split for the selected
// sources. Purely advisory; the calculator never calls it.
func SuggestAllocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sources == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	var payload suggestAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid allocation payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	selected := make([]models.ProteinSource, 0, len(payload.Sources))
	for idx, id := range payload.Sources {
		source, ok := sources.FindByID(id)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown protein source %q at position %d", id, idx))
			return
		}
		selected = append(selected, source)
	}

	percentages := quality.SuggestAllocation(selected)
	if percentages == nil {
		percentages = []float64{}
	}

	writeJSON(w, http.StatusOK, suggestAllocationResponse{
		Sources:     selected,
		Percentages: percentages,
	})
}
