package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
)

// latestHandler serves the most recent reading with the running extrema
func (rm *RouteManager) latestHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := rm.state.Snapshot()
	if snapshot.Latest == nil {
		writeError(w, http.StatusNotFound, "no readings yet")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// readingsHandler serves the live buffer, oldest first
func (rm *RouteManager) readingsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, rm.state.Recent(limit))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
