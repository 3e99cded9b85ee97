package response

import (
	"encoding/json"
	"net/http"

	"github.com/modchat/modchat/internal/domain"
)

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends an error response of the form {"error": message}
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// BadRequest sends a 400 Bad Request response
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// FromError maps an error to its HTTP status and body. Chat errors keep
// their own status and client-facing message; anything else becomes a
// plain 500 whose detail is only exposed when debug is set.
func FromError(w http.ResponseWriter, err error, debug bool) {
	if ce, ok := domain.AsChatError(err); ok {
		msg := ce.Message
		if debug && ce.Detail != "" {
			msg += " (" + ce.Detail + ")"
		}
		Error(w, ce.Status, msg)
		return
	}

	if debug {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	Error(w, http.StatusInternalServerError, "internal server error")
}
