// Package envelope defines the uniform success/error JSON wrapper returned
// by every docgate operation, together with the error taxonomy and its
// mapping to HTTP status codes.
//
// Every stage of the pipeline converts its own failure modes into this
// taxonomy before returning; Classify is the single place where an error
// becomes a status code and a user-safe message.
package envelope

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response shape.
// Data is non-nil exactly when Status == StatusSuccess.
type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success builds a success envelope around data.
func Success(data any, message string) Envelope {
	return Envelope{Status: StatusSuccess, Data: data, Message: message}
}

// Error builds an error envelope with a user-safe message.
func Error(message string) Envelope {
	return Envelope{Status: StatusError, Message: message}
}

// WriteJSON serializes an envelope to w with the given HTTP status.
func WriteJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// WriteError classifies err and writes the corresponding error envelope.
func WriteError(w http.ResponseWriter, err error) {
	status, msg := Classify(err)
	WriteJSON(w, status, Error(msg))
}
