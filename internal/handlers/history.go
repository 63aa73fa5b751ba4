package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"protiq/internal/history"
	applog "protiq/internal/log"
	"protiq/models"
)

// importBodyLimit caps how much an import upload may carry. A full history
// of 100 records is far below this.
const importBodyLimit = 4 << 20

// HistoryResource handles the visitor's calculation history: listing with
// range and source filters, single and bulk delete, export, and import.
func HistoryResource(w http.ResponseWriter, r *http.Request) {
	if records == nil {
		applog.Debug(r.Context(), "history request without store")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	owner, ok := ownerToken(r)
	if !ok {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/history")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		switch r.Method {
		case http.MethodGet:
			listHistory(w, r, owner)
		case http.MethodDelete:
			clearHistory(w, r, owner)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "export":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		exportHistory(w, r, owner)
	case "import":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		importHistory(w, r, owner)
	default:
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		deleteHistoryRecord(w, r, owner, path)
	}
}

func listHistory(w http.ResponseWriter, r *http.Request, owner string) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		entries []models.CalculationRecord
		err     error
	)

	rawFrom := strings.TrimSpace(query.Get("from"))
	rawTo := strings.TrimSpace(query.Get("to"))
	sourceID := strings.TrimSpace(query.Get("source"))

	switch {
	case rawFrom != "" || rawTo != "":
		from, to, parseErr := parseRange(rawFrom, rawTo)
		if parseErr != nil {
			writeJSONError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		entries, err = records.AllInRange(ctx, owner, from, to)
	case sourceID != "":
		entries, err = records.ForSource(ctx, owner, sourceID)
	default:
		entries, err = records.All(ctx, owner)
	}

	if err != nil {
		applog.Error(ctx, "failed to list history", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load history")
		return
	}

	if entries == nil {
		entries = []models.CalculationRecord{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// parseRange turns the from/to query values into an inclusive interval,
// substituting open ends.
func parseRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC().Add(24 * time.Hour)

	if rawFrom != "" {
		parsed, err := time.Parse(time.RFC3339, rawFrom)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from must be an RFC 3339 timestamp")
		}
		from = parsed
	}
	if rawTo != "" {
		parsed, err := time.Parse(time.RFC3339, rawTo)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to must be an RFC 3339 timestamp")
		}
		to = parsed
	}
	if rawFrom != "" && rawTo != "" && to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to must not precede from")
	}
	return from, to, nil
}

func clearHistory(w http.ResponseWriter, r *http.Request, owner string) {
	if err := records.Clear(r.Context(), owner); err != nil {
		applog.Error(r.Context(), "failed to clear history", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func deleteHistoryRecord(w http.ResponseWriter, r *http.Request, owner, id string) {
	// Absent ids are a no-op so the delete stays idempotent.
	if err := records.Delete(r.Context(), owner, id); err != nil {
		applog.Error(r.Context(), "failed to delete history record", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func exportHistory(w http.ResponseWriter, r *http.Request, owner string) {
	blob, err := records.Export(r.Context(), owner)
	if err != nil {
		applog.Error(r.Context(), "failed to export history", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to export history")
		return
	}

	filename := fmt.Sprintf("protiq-history-%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		applog.Error(r.Context(), "failed to write history export", "error", err)
	}
}

func importHistory(w http.ResponseWriter, r *http.Request, owner string) {
	replace := strings.EqualFold(r.URL.Query().Get("replace"), "true")

	blob, err := io.ReadAll(io.LimitReader(r.Body, importBodyLimit))
	if err != nil {
		applog.Debug(r.Context(), "failed to read import body", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to read import payload")
		return
	}

	imported, err := records.Import(r.Context(), owner, blob, replace)
	if err != nil {
		if errors.Is(err, history.ErrMalformedHistory) {
			applog.Debug(r.Context(), "rejected malformed history import", "error", err)
			writeJSONError(w, http.StatusBadRequest, "the file is not a valid history export")
			return
		}
		applog.Error(r.Context(), "failed to import history", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to import history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"imported": imported,
		"replaced": replace,
	})
}
