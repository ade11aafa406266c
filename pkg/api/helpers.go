// Package api writes the JSON bodies returned by the HTTP interface.
package api

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the shape of every error response
type ErrorBody struct {
	Error string `json:"error"`
	// Code is the error category, e.g. VALIDATION or NOT_FOUND
	Code string `json:"code,omitempty"`
}

// Success writes data as JSON. A nil data writes the status alone.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	if data == nil {
		w.WriteHeader(statusCode)
		return
	}
	writeJSON(w, statusCode, data)
}

// Error sends an error message without a category
func Error(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorBody{Error: message})
}

// ErrorWithCode sends an error message tagged with its category
func ErrorWithCode(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, ErrorBody{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	// the status is already sent; an encode failure means the client went away
	_ = json.NewEncoder(w).Encode(body)
}
