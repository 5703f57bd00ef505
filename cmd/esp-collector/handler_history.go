package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gtfisher/esp-collector/pkg/query"
)

// historyHandler runs the aggregation query over the stored readings
func (rm *RouteManager) historyHandler(w http.ResponseWriter, r *http.Request) {
	params := query.ParseParams(r.URL.Query())

	points, err := rm.engine.Run(r.Context(), params)
	if err != nil {
		log.Printf("❌ Error running history query: %v", err)
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// todayHistoryHandler returns the rows of today's CSV log
func (rm *RouteManager) todayHistoryHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := rm.registryManager.CSV.ReadDay(time.Now())
	if errors.Is(err, os.ErrNotExist) {
		writeJSON(w, http.StatusOK, []map[string]string{})
		return
	}
	if err != nil {
		log.Printf("❌ Error reading today's CSV: %v", err)
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// downloadTodayHandler sends today's CSV log as an attachment
func (rm *RouteManager) downloadTodayHandler(w http.ResponseWriter, r *http.Request) {
	path := rm.registryManager.CSV.TodayPath()
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "No CSV for today", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}
