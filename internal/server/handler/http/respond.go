package http

import (
	"encoding/json"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/atinyakov/GenomePortal/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError replies with the {"detail": ...} body every client expects.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorDetail{Detail: detail})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// sentence upper-cases the first letter of an error message.
func sentence(msg string) string {
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
