package handlers

import (
	"net/http"
	"strconv"
	"strings"

	applog "protiq/internal/log"
	"protiq/models"
)

// SourceResource serves the read-only protein source catalog: the full
// list with category, search, and top-by-quality filters, or a single
// source by id.
func SourceResource(w http.ResponseWriter, r *http.Request) {
	if sources == nil {
		applog.Debug(r.Context(), "source request without catalog")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sources")
	path = strings.Trim(path, "/")

	if path == "" {
		listSources(w, r)
		return
	}

	source, ok := sources.FindByID(path)
	if !ok {
		applog.Debug(r.Context(), "source not found", "id", path)
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, source)
}

func listSources(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if rawTop := strings.TrimSpace(query.Get("top")); rawTop != "" {
		limit, err := strconv.Atoi(rawTop)
		if err != nil || limit <= 0 {
			writeJSONError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		writeJSON(w, http.StatusOK, sources.TopByQuality(limit))
		return
	}

	category := models.Category(strings.TrimSpace(query.Get("category")))
	if category == "" {
		category = models.CategoryAll
	}
	if category != models.CategoryAll && !models.ValidCategory(category) {
		writeJSONError(w, http.StatusBadRequest, "unknown category")
		return
	}

	writeJSON(w, http.StatusOK, sources.Search(query.Get("q"), category))
}
