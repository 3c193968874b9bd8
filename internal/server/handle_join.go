package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/wattquiz/internal/game"
	"github.com/playperu/wattquiz/internal/wattquiz"
)

type JoinRequest struct {
	Username         string        `json:"username"`
	Mode             wattquiz.Mode `json:"mode"`
	ConfirmOverwrite bool          `json:"confirmOverwrite,omitempty"`
}

type LeaveRequest struct {
	Username string `json:"username"`
	GameID   string `json:"gameId"`
}

type LeaveResponse struct {
	Username string `json:"username"`
}

func handleJoin(logger *slog.Logger, reg *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		u, err := reg.Join(r.Context(), req.Username, req.Mode, req.ConfirmOverwrite)
		switch {
		case errors.Is(err, game.ErrInvalidMode), errors.Is(err, game.ErrBlankUsername):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			logger.Error("join failed", "username", req.Username, "mode", req.Mode, "error", err)
			writeError(w, http.StatusInternalServerError, "could not start game")
			return
		}

		writeUpdate(w, u)
	}
}

func handleLeave(reg *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LeaveRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		id, ok := parseGameID(w, req.GameID)
		if !ok {
			return
		}

		reg.RemovePlayer(req.Username, id)
		writeJSON(w, http.StatusOK, LeaveResponse{Username: req.Username})
	}
}
