// Package api provides standardized helper functions for HTTP API responses.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 10 << 20

// Success sends a standardized successful HTTP response with optional JSON data.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error sends a standardized error response with consistent JSON format.
func Error(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Decode reads a JSON request body into dst. An empty body is an error.
func Decode(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}
