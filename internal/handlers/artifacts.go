package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"media-author/internal/logging"
	"media-author/internal/mediaclass"
	"media-author/internal/streaming"

	"github.com/gorilla/mux"
)

// GetThumbnail serves the winning cover for the current selection. A
// remote winner has no local bytes, so its reference is returned as JSON
// for the console to resolve against the catalogue.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	ref, _ := h.controller.Artifacts()
	if ref == nil {
		writeJSONError(w, "no thumbnail available", http.StatusNotFound)
		return
	}

	if ref.Remote {
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, map[string]string{"remote": ref.Path})
		return
	}

	if _, err := os.Stat(ref.Path); err != nil {
		logging.Warn("thumbnail file missing: %s: %v", ref.Path, err)
		writeJSONError(w, "thumbnail not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, ref.Path)
}

// GetPage serves one rendered page of the selected paged document.
// ?res=high selects the print-quality rendition; the default is the
// screen rendition.
func (h *Handlers) GetPage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil || page < 1 {
		writeJSONError(w, "invalid page number", http.StatusBadRequest)
		return
	}

	_, doc := h.controller.Artifacts()
	if doc == nil {
		writeJSONError(w, "no paged document loaded", http.StatusNotFound)
		return
	}

	var path string
	var ok bool
	if r.URL.Query().Get("res") == "high" {
		path, ok = doc.HighRes(page)
	} else {
		path, ok = doc.LowRes(page)
	}
	if !ok {
		writeJSONError(w, "page out of range", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, path)
}

// StreamSource streams the selected source file for in-console playback.
// Writes are chunked with idle and per-write deadlines so a stalled
// player cannot pin the connection open forever.
func (h *Handlers) StreamSource(w http.ResponseWriter, r *http.Request) {
	snap := h.controller.Snapshot()
	if snap.SourcePath == "" {
		writeJSONError(w, "no asset selected", http.StatusNotFound)
		return
	}

	f, err := os.Open(snap.SourcePath)
	if err != nil {
		logging.Error("failed to open source for streaming: %v", err)
		writeJSONError(w, "source file not readable", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(snap.SourcePath))
	w.Header().Set("Content-Type", mediaclass.MimeType(ext))
	w.Header().Set("Content-Length", strconv.FormatInt(snap.SizeBytes, 10))

	err = streaming.Stream(r.Context(), w, f, streaming.DefaultConfig())
	if err != nil && !errors.Is(err, streaming.ErrClientGone) && !errors.Is(err, streaming.ErrStreamCanceled) {
		logging.Warn("source stream ended with error: %v", err)
	}
}
