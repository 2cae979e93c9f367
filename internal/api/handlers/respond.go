package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/fxpulse/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps store errors to HTTP status codes
func statusFor(err error) int {
	if errors.Is(err, contracts.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
