package main

import (
	"net/http"
	"time"

	"github.com/gtfisher/esp-collector/pkg/api"
)

// healthHandler returns server health status
func (rm *RouteManager) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Store:     rm.cfg.StoreDriver,
		Readings:  rm.state.Len(),
	})
}
