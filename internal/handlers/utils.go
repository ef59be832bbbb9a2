package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"media-author/internal/logging"
	"media-author/internal/preview"
	"media-author/internal/validate"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// writeControllerError maps controller errors onto HTTP status codes:
// validation failures are the client's fault, illegal transitions are a
// conflict with the current lifecycle state, anything else is ours.
func writeControllerError(w http.ResponseWriter, err error) {
	var ve *validate.Error
	if errors.As(err, &ve) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		writeJSON(w, map[string]string{"error": ve.Message, "field": ve.Field})
		return
	}

	var te *preview.TransitionError
	if errors.As(err, &te) {
		writeJSONError(w, te.Error(), http.StatusConflict)
		return
	}

	logging.Error("preview operation failed: %v", err)
	writeJSONError(w, err.Error(), http.StatusInternalServerError)
}

// decodeJSONBody decodes a small JSON request body into v, rejecting
// unknown fields so typos surface as errors instead of silent no-ops.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
