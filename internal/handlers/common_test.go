package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"protiq/internal/catalog"
	"protiq/internal/history"
	"protiq/models"
)

// withTestHandlers wires the package dependencies to an isolated in-memory
// database and a fresh session manager, restoring the originals afterwards.
func withTestHandlers(t *testing.T) *scs.SessionManager {
	t.Helper()

	originalSM := sessionManager
	originalDB := database
	originalSources := sources
	originalRecords := records

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(&models.CalculationRecord{}, &models.RecordSource{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	sm := scs.New()
	Configure(sm, db, catalog.MustNew(), 0)

	t.Cleanup(func() {
		sessionManager = originalSM
		database = originalDB
		sources = originalSources
		records = originalRecords
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return sm
}

// sessionRequest attaches a loaded session context so handlers can read and
// write session data, optionally pinning the visitor token.
func sessionRequest(t *testing.T, sm *scs.SessionManager, req *http.Request, token string) *http.Request {
	t.Helper()

	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)
	if token != "" {
		sm.Put(req.Context(), sessionOwnerTokenKey, token)
	}
	return req
}

func configuredStore() *history.Store {
	return records
}
