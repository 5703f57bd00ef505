package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gtfisher/esp-collector/pkg/database"
	"github.com/gtfisher/esp-collector/pkg/live"
	"github.com/gtfisher/esp-collector/pkg/metrics"
	"github.com/gtfisher/esp-collector/pkg/query"
)

// RouteManager handles all HTTP routes
type RouteManager struct {
	cfg             *Config
	store           database.Store
	state           *live.State
	engine          *query.Engine
	registryManager *RegistryManager
	metrics         *metrics.Metrics
	Router          *mux.Router
}

// NewRouteManager creates a new RouteManager instance
func NewRouteManager(cfg *Config, store database.Store, state *live.State, registryManager *RegistryManager, m *metrics.Metrics) *RouteManager {
	return &RouteManager{
		cfg:             cfg,
		store:           store,
		state:           state,
		engine:          query.NewEngine(store),
		registryManager: registryManager,
		metrics:         m,
		Router:          mux.NewRouter(),
	}
}

// Setup configures all routes
func (rm *RouteManager) Setup() {
	r := rm.Router
	r.Use(rm.corsMiddleware)

	// Global OPTIONS handler - catches all preflight requests
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.HandleFunc("/health", rm.healthHandler).Methods("GET")
	r.Handle("/metrics", rm.metrics.Handler()).Methods("GET")

	// Today's CSV log
	r.HandleFunc("/history", rm.todayHistoryHandler).Methods("GET")
	r.HandleFunc("/download-today.csv", rm.downloadTodayHandler).Methods("GET")

	// Kept at the root for existing dashboards
	r.HandleFunc("/history.json", rm.historyHandler).Methods("GET")

	if rm.registryManager != nil && rm.registryManager.Hub != nil {
		r.HandleFunc("/ws", rm.registryManager.Hub.ServeWS).Methods("GET")
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	rm.setupAPIRoutes(api)
}

// setupAPIRoutes configures all API v1 routes
func (rm *RouteManager) setupAPIRoutes(api *mux.Router) {
	api.HandleFunc("/latest", rm.latestHandler).Methods("GET")
	api.HandleFunc("/readings", rm.readingsHandler).Methods("GET")
	api.HandleFunc("/history", rm.historyHandler).Methods("GET")
}
