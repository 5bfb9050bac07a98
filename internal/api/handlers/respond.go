package handlers

import (
	"encoding/json"
	"net/http"
)

// Every endpoint answers with the same envelope: code 0 plus a data
// payload on success, code -1 plus a message on failure. Clients key
// off code, not the HTTP status alone.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"code": 0,
		"data": data,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"code":    -1,
		"message": message,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
