package handlers

import (
	"github.com/gorilla/mux"
)

// NewRouter wires every console endpoint onto a mux router. Auth,
// logging, metrics and compression middleware are layered on by the
// caller so tests can exercise routes bare.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Preview lifecycle
	api.HandleFunc("/preview", h.GetPreview).Methods("GET")
	api.HandleFunc("/preview/select", h.SelectAsset).Methods("POST")
	api.HandleFunc("/preview/close", h.CloseSelection).Methods("POST")
	api.HandleFunc("/preview/cover", h.SetCustomCover).Methods("POST")
	api.HandleFunc("/preview/cover/external", h.SetExternalCover).Methods("POST")

	// Metadata editing
	api.HandleFunc("/preview/edit", h.StartEdit).Methods("POST")
	api.HandleFunc("/preview/edit", h.UpdateMetadata).Methods("PUT")
	api.HandleFunc("/preview/edit/save", h.SaveEdit).Methods("POST")
	api.HandleFunc("/preview/edit/cancel", h.CancelEdit).Methods("POST")

	// Page view and derived artifacts
	api.HandleFunc("/preview/view", h.UpdateView).Methods("POST")
	api.HandleFunc("/preview/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/preview/page/{page:[0-9]+}", h.GetPage).Methods("GET")
	api.HandleFunc("/preview/source", h.StreamSource).Methods("GET")

	// Commit
	api.HandleFunc("/preview/commit", h.Commit).Methods("POST")
	api.HandleFunc("/preview/commit/cancel", h.CancelUpload).Methods("POST")

	// Catalog
	api.HandleFunc("/catalog", h.ListAssets).Methods("GET")
	api.HandleFunc("/catalog/history", h.GetUploadHistory).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")

	return r
}
