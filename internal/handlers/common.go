package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"protiq/internal/catalog"
	"protiq/internal/history"
	applog "protiq/internal/log"
)

const (
	sessionOwnerTokenKey        = "visitor:token"
	sessionPreferredCategoryKey = "prefs:category"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	sources        *catalog.Catalog
	records        *history.Store
)

// Configure installs the shared dependencies used by the HTTP handlers.
// A non-positive historyLimit falls back to the store's default bound.
func Configure(sm *scs.SessionManager, db *gorm.DB, cat *catalog.Catalog, historyLimit int) {
	sessionManager = sm
	database = db
	sources = cat
	records = history.NewStoreWithLimit(db, historyLimit)
}

// ownerToken returns the stable token identifying the visitor's history,
// minting one into the session on first use.
func ownerToken(r *http.Request) (string, bool) {
	if sessionManager == nil {
		return "", false
	}

	token, _ := sessionManager.Get(r.Context(), sessionOwnerTokenKey).(string)
	if token == "" {
		token = uuid.NewString()
		sessionManager.Put(r.Context(), sessionOwnerTokenKey, token)
		applog.Debug(r.Context(), "minted visitor token")
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeValidationError reports per-field validation messages the UI can
// render inline next to the offending control.
func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}
