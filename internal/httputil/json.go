package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
)

// LoginPath is where clients are sent when a session cannot continue.
const LoginPath = "/login"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// RedirectToLogin writes a 401 telling the client to start over at the login
// page.
func RedirectToLogin(w http.ResponseWriter, message string) {
	JSON(w, http.StatusUnauthorized, ErrorResponse{Error: message, Redirect: LoginPath})
}

// DecodeJSON reads a JSON request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// BadRequestBody reports a body that DecodeJSON could not read. Bodies cut
// off by http.MaxBytesReader get 413.
func BadRequestBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	Error(w, http.StatusBadRequest, "invalid request body")
}
