package handlers

import (
	"net/http"
	"strconv"

	"media-author/internal/catalog"
	"media-author/internal/logging"
)

const defaultListLimit = 100

// ListAssets lists committed assets, newest first. ?class= narrows to a
// single media class and ?limit= caps the result.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	class := r.URL.Query().Get("class")
	limit := defaultListLimit
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	assets, err := h.store.ListAssets(r.Context(), class, limit)
	if err != nil {
		logging.Error("failed to list assets: %v", err)
		writeJSONError(w, "failed to list assets", http.StatusInternalServerError)
		return
	}

	if assets == nil {
		assets = []catalog.Asset{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, assets)
}

// GetUploadHistory returns the most recent upload attempts, successes
// and failures alike.
func (h *Handlers) GetUploadHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	records, err := h.store.RecentUploads(r.Context(), limit)
	if err != nil {
		logging.Error("failed to load upload history: %v", err)
		writeJSONError(w, "failed to load upload history", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []catalog.UploadRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, records)
}

// GetStats returns per-class counts of committed assets.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.store.GetStats()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{
		"books":  stats.Books,
		"audio":  stats.Audio,
		"videos": stats.Videos,
	})
}
