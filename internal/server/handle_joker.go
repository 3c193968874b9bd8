package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/wattquiz/internal/game"
)

type JokerRequest struct {
	GameUUID string `json:"gameUUID"`
	Username string `json:"username"`
}

// JokerResponse echoes the username. Applied is false when the joker was
// already used or does not fit the current question.
type JokerResponse struct {
	Username string `json:"username"`
	Applied  bool   `json:"applied"`
}

func handleJoker(reg *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := game.ParseJoker(chi.URLParam(r, "kind"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req JokerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		id, ok := parseGameID(w, req.GameUUID)
		if !ok {
			return
		}
		s, err := reg.Active(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		applied, err := s.UseJoker(req.Username, kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, JokerResponse{Username: req.Username, Applied: applied})
	}
}
