package server

import (
	"context"
	"net/http"

	"protiq/internal/handlers"
	applog "protiq/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	mux.HandleFunc("/api/sources", handlers.SourceResource)
	mux.HandleFunc("/api/sources/", handlers.SourceResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/sources")
	mux.HandleFunc("/api/calculate", handlers.Calculate)
	applog.Debug(context.Background(), "route registered", "path", "/api/calculate")
	mux.HandleFunc("/api/allocations/suggest", handlers.SuggestAllocation)
	applog.Debug(context.Background(), "route registered", "path", "/api/allocations/suggest")
	mux.HandleFunc("/api/history", handlers.HistoryResource)
	mux.HandleFunc("/api/history/", handlers.HistoryResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/history")
	mux.HandleFunc("/api/statistics", handlers.Statistics)
	applog.Debug(context.Background(), "route registered", "path", "/api/statistics")
	mux.HandleFunc("/api/education", handlers.Education)
	applog.Debug(context.Background(), "route registered", "path", "/api/education")
	mux.HandleFunc("/api/preferences", handlers.Preferences)
	mux.HandleFunc("/api/preferences/update", handlers.UpdatePreferences)
	applog.Debug(context.Background(), "route registered", "path", "/api/preferences")
	mux.HandleFunc("/", handlers.Home)
	applog.Debug(context.Background(), "route registered", "path", "/")
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir("web/static"))))
	applog.Debug(context.Background(), "route registered", "path", "/assets/", "static", true)
	return mux
}
