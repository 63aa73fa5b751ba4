package handlers

import (
	"net/http"
	"strings"

	applog "protiq/internal/log"
	"protiq/models"
)

type preferencesResponse struct {
	PreferredCategory string `json:"preferred_category"`
}

// Preferences reports the visitor's saved filter preferences.
func Preferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sessionManager == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	category, _ := sessionManager.Get(r.Context(), sessionPreferredCategoryKey).(string)
	if category == "" {
		category = string(models.CategoryAll)
	}

	writeJSON(w, http.StatusOK, preferencesResponse{PreferredCategory: category})
}

// UpdatePreferences stores the visitor's preferred category filter on the
// session.
func UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		applog.Debug(r.Context(), "preferences update with unsupported method", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sessionManager == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseForm(); err != nil {
		applog.Error(r.Context(), "failed to parse preferences form", "error", err)
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	category := models.Category(strings.TrimSpace(r.FormValue("category")))
	if category != models.CategoryAll && !models.ValidCategory(category) {
		applog.Debug(r.Context(), "received invalid category preference", "value", category)
		http.Error(w, "invalid category selection", http.StatusBadRequest)
		return
	}

	sessionManager.Put(r.Context(), sessionPreferredCategoryKey, string(category))

	writeJSON(w, http.StatusOK, preferencesResponse{PreferredCategory: string(category)})
}
