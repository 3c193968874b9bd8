package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeUpdate writes u in its wire envelope.
func writeUpdate(w http.ResponseWriter, u wattquiz.Update) {
	data, err := wattquiz.EncodeUpdate(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// parseGameID writes a 400 and reports false for malformed ids.
func parseGameID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed game id")
		return uuid.UUID{}, false
	}
	return id, true
}
