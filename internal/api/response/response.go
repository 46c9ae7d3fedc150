// Package response holds the JSON response helpers shared by all handlers.
package response

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the error body every handler returns. Details carries
// optional context such as the underlying error string.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// RespondJSON writes data as a JSON body with the given status. A nil data
// writes the status alone. Report types carry their own marshalers, so NaN
// fields arrive here already mapped to null.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// RespondError writes a structured ErrorResponse with the given status.
func RespondError(w http.ResponseWriter, status int, message string, details interface{}) {
	RespondJSON(w, status, ErrorResponse{Error: message, Details: details})
}
