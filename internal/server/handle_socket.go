package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/playperu/wattquiz/internal/game"
)

// handleGameSocket pushes a game's updates over a WebSocket. Messages from
// the client are not read; the connection ends when the client closes it.
func handleGameSocket(logger *slog.Logger, reg *game.Registry, broker *game.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseGameID(w, r.URL.Query().Get("gameId"))
		if !ok {
			return
		}
		if reg.Game(id) == nil {
			writeError(w, http.StatusBadRequest, game.ErrUnknownGame.Error())
			return
		}

		ch := broker.Subscribe(id.String())
		defer broker.Unsubscribe(id.String(), ch)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := conn.CloseRead(r.Context())
		for {
			select {
			case <-ctx.Done():
				logger.Debug("websocket closed", "game_id", id)
				return
			case data := <-ch:
				if err := writeMessage(ctx, conn, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}

func writeMessage(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
