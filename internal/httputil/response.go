package httputil

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/redmonkez12/go-tours-api/internal/apperror"
)

// Envelope is the standard response shape: {status, data} for success,
// {status, message} for failures. Lists add a results count and auth flows
// add a token.
type Envelope struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondData sends a success envelope wrapping the given payload.
func RespondData(w http.ResponseWriter, data any, statusCode int) {
	RespondJSON(w, Envelope{Status: "success", Data: data}, statusCode)
}

// RespondList sends a success envelope with a results count. The count
// reflects the returned page, not the total match count.
func RespondList(w http.ResponseWriter, results int, data any) {
	RespondJSON(w, Envelope{Status: "success", Results: &results, Data: data}, http.StatusOK)
}

// RespondToken sends a success envelope carrying a session token alongside
// the payload.
func RespondToken(w http.ResponseWriter, token string, data any, statusCode int) {
	RespondJSON(w, Envelope{Status: "success", Token: token, Data: data}, statusCode)
}

// RespondMessage sends a success envelope with only a human-readable message.
func RespondMessage(w http.ResponseWriter, message string, statusCode int) {
	RespondJSON(w, Envelope{Status: "success", Message: message}, statusCode)
}

// RespondNoContent signals a successful deletion with an empty body.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondError is the single translation point from internal errors to client
// responses. Operational errors map to their taxonomy status; anything else
// degrades to a generic 500 without leaking internals.
func RespondError(w http.ResponseWriter, err error) {
	appErr := apperror.From(err)
	if appErr == nil {
		appErr = apperror.Fatal(err)
	}
	RespondJSON(w, Envelope{Status: appErr.Status(), Message: appErr.Message}, appErr.StatusCode())
}
