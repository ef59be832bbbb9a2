package handlers

import (
	"net/http"
	"os"
	"time"

	"media-author/internal/logging"
	"media-author/internal/pagedoc"
	"media-author/internal/preview"
)

// GetPreview returns a snapshot of the preview lifecycle. The console
// polls this while analysis or an upload is running.
func (h *Handlers) GetPreview(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, h.controller.Snapshot())
}

// SelectAsset replaces the current selection with the file named in the
// request body and kicks off analysis in the background.
func (h *Handlers) SelectAsset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	if err := h.controller.Select(req.Path); err != nil {
		if os.IsNotExist(err) {
			writeJSONError(w, "source file not found", http.StatusNotFound)
			return
		}
		writeControllerError(w, err)
		return
	}
	logging.Debug("Select accepted for %s in %v", req.Path, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, h.controller.Snapshot())
}

// SetCustomCover installs an operator-supplied cover image for the
// current selection.
func (h *Handlers) SetCustomCover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	if err := h.controller.SetCustomCover(req.Path); err != nil {
		if os.IsNotExist(err) {
			writeJSONError(w, "cover file not found", http.StatusNotFound)
			return
		}
		writeControllerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.controller.Snapshot())
}

// SetExternalCover installs a cover reference already hosted by the
// catalogue, identified by its canonical reference string.
func (h *Handlers) SetExternalCover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ref string `json:"ref"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Ref == "" {
		writeJSONError(w, "ref is required", http.StatusBadRequest)
		return
	}

	if err := h.controller.SetExternalCover(req.Ref); err != nil {
		writeControllerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.controller.Snapshot())
}

// StartEdit opens a scratch metadata session.
func (h *Handlers) StartEdit(w http.ResponseWriter, _ *http.Request) {
	if err := h.controller.Edit(); err != nil {
		writeControllerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.controller.Snapshot())
}

// UpdateMetadata replaces the scratch metadata while an edit session is
// open. Nothing is persisted until SaveEdit.
func (h *Handlers) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var meta preview.Metadata
	if !decodeJSONBody(w, r, &meta) {
		return
	}

	if err := h.controller.UpdateMetadata(meta); err != nil {
		writeControllerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.controller.Snapshot())
}

// SaveEdit promotes the scratch metadata onto the selection.
func (h *Handlers) SaveEdit(w http.ResponseWriter, _ *http.Request) {
	if err := h.controller.Save(); err != nil {
		writeControllerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.controller.Snapshot())
}

// CancelEdit discards the scratch metadata.
func (h *Handlers) CancelEdit(w http.ResponseWriter, _ *http.Request) {
	if err := h.controller.CancelEdit(); err != nil {
		writeControllerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.controller.Snapshot())
}

// viewOps are the page-view operations the console may request.
var viewOps = map[string]func(v *pagedoc.ViewState, page int){
	"next":       func(v *pagedoc.ViewState, _ int) { v.NextPage() },
	"prev":       func(v *pagedoc.ViewState, _ int) { v.PrevPage() },
	"jump":       func(v *pagedoc.ViewState, page int) { v.JumpTo(page) },
	"zoom_in":    func(v *pagedoc.ViewState, _ int) { v.ZoomIn() },
	"zoom_out":   func(v *pagedoc.ViewState, _ int) { v.ZoomOut() },
	"zoom_reset": func(v *pagedoc.ViewState, _ int) { v.ZoomReset() },
	"rotate":     func(v *pagedoc.ViewState, _ int) { v.Rotate() },
}

// UpdateView applies a navigation operation to the page view.
func (h *Handlers) UpdateView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Op   string `json:"op"`
		Page int    `json:"page,omitempty"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	op, ok := viewOps[req.Op]
	if !ok {
		writeJSONError(w, "unknown view operation", http.StatusBadRequest)
		return
	}

	if err := h.controller.View(func(v *pagedoc.ViewState) {
		op(v, req.Page)
	}); err != nil {
		writeControllerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.controller.Snapshot())
}

// Commit starts the upload to the catalogue and returns immediately;
// progress is visible through GetPreview.
func (h *Handlers) Commit(w http.ResponseWriter, _ *http.Request) {
	if err := h.controller.Commit(); err != nil {
		writeControllerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, h.controller.Snapshot())
}

// CancelUpload aborts the in-flight upload.
func (h *Handlers) CancelUpload(w http.ResponseWriter, _ *http.Request) {
	if err := h.controller.CancelUpload(); err != nil {
		writeControllerError(w, err)
		return
	}
	writeJSONStatus(w, "cancelling")
}

// CloseSelection drops the current selection and releases everything
// derived for it.
func (h *Handlers) CloseSelection(w http.ResponseWriter, _ *http.Request) {
	h.controller.Close()
	writeJSONStatus(w, "closed")
}
