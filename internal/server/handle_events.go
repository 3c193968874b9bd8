package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/playperu/wattquiz/internal/game"
)

// handleEvents streams a game's push topic as Server-Sent Events. The
// lobby is accepted so its members see joins as they happen.
func handleEvents(reg *game.Registry, broker *game.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseGameID(w, r.URL.Query().Get("gameId"))
		if !ok {
			return
		}
		if reg.Game(id) == nil {
			writeError(w, http.StatusBadRequest, game.ErrUnknownGame.Error())
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		ch := broker.Subscribe(id.String())
		defer broker.Unsubscribe(id.String(), ch)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: update\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
