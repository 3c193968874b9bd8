package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/wattquiz/internal/game"
)

// handlePoll blocks until the player's next update, the poll timeout or
// a newer poll from the same player.
func handlePoll(logger *slog.Logger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r)
		u, err := s.Poll(r.Context(), r.URL.Query().Get("username"), timeout)
		switch {
		case errors.Is(err, game.ErrUnknownPlayer):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, game.ErrPollTimeout):
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		case errors.Is(err, game.ErrSuperseded):
			writeError(w, http.StatusConflict, err.Error())
			return
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			logger.Error("poll failed", "game_id", s.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeUpdate(w, u)
	}
}
