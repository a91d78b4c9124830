package util

import (
	"encoding/json"
	"net/http"
)

// =============================================================================
// HTTP Response Helpers
// =============================================================================

// SetJSONHeaders sets standard headers for JSON responses.
// maxAge is the Cache-Control max-age value in seconds (as string).
func SetJSONHeaders(w http.ResponseWriter, maxAge string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "max-age="+maxAge)
}

// WriteJSON encodes v with the given status code.
// Returns any write error (usually safe to ignore for HTTP handlers).
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteRawJSON writes already encoded JSON with status 200.
func WriteRawJSON(w http.ResponseWriter, data []byte) error {
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write(data)
	return err
}

// =============================================================================
// HTTP Error Helpers
// =============================================================================

type errorBody struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_ = WriteJSON(w, status, errorBody{Error: message})
}

// RespondBadRequest sends a 400 Bad Request error response.
func RespondBadRequest(w http.ResponseWriter, message string) {
	respondError(w, http.StatusBadRequest, message)
}

// RespondNotFound sends a 404 Not Found error response.
func RespondNotFound(w http.ResponseWriter, message string) {
	respondError(w, http.StatusNotFound, message)
}

// RespondMethodNotAllowed sends a 405 Method Not Allowed error response.
func RespondMethodNotAllowed(w http.ResponseWriter, message string) {
	respondError(w, http.StatusMethodNotAllowed, message)
}

// RespondInternalError sends a 500 Internal Server Error response.
func RespondInternalError(w http.ResponseWriter, message string) {
	respondError(w, http.StatusInternalServerError, message)
}

// RespondServiceUnavailable sends a 503 Service Unavailable error response.
func RespondServiceUnavailable(w http.ResponseWriter, message string) {
	respondError(w, http.StatusServiceUnavailable, message)
}
