package server

import (
	"encoding/json"
	"net/http"

	"github.com/playperu/wattquiz/internal/game"
)

type AnswerRequest struct {
	GameID   string      `json:"gameId"`
	Username string      `json:"username"`
	Answer   json.Number `json:"answer"`
}

type EmojiRequest struct {
	GameID   string `json:"gameId"`
	Username string `json:"username"`
	Emoji    string `json:"emoji"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

func handleAnswer(reg *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		id, ok := parseGameID(w, req.GameID)
		if !ok {
			return
		}
		value, err := req.Answer.Int64()
		if err != nil {
			writeError(w, http.StatusBadRequest, "answer must be an integer")
			return
		}

		s, err := reg.Active(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.Answer(req.Username, value); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
	}
}

func handleEmoji(reg *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmojiRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		id, ok := parseGameID(w, req.GameID)
		if !ok {
			return
		}
		s, err := reg.Active(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := s.Emoji(req.Username, req.Emoji); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
	}
}
