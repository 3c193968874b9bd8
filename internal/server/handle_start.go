package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/wattquiz/internal/game"
	"github.com/playperu/wattquiz/internal/wattquiz"
)

type StartRequest struct {
	GameID string `json:"gameId"`
}

type StartResponse struct {
	GameID string `json:"gameId"`
}

func handleStart(logger *slog.Logger, reg *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		id, ok := parseGameID(w, req.GameID)
		if !ok {
			return
		}

		err := reg.StartLobby(r.Context(), id)
		switch {
		case errors.Is(err, game.ErrNotLobby),
			errors.Is(err, game.ErrEmptyLobby),
			errors.Is(err, game.ErrAlreadyStarted):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			logger.Error("starting game failed", "game_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "question generation failed")
			return
		}

		writeJSON(w, http.StatusOK, StartResponse{GameID: id.String()})
	}
}

func handleQuestions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions := sessionFrom(r).Questions()
		if len(questions) != wattquiz.QuestionsPerSession {
			writeError(w, http.StatusInternalServerError, "question generation failed")
			return
		}
		writeJSON(w, http.StatusOK, questions)
	}
}
