package server

import (
	"context"
	"net/http"

	"github.com/playperu/wattquiz/internal/game"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// activeGameMiddleware resolves the gameId query parameter to a started
// session. Malformed ids, unknown games and the open lobby answer 400.
func activeGameMiddleware(reg *game.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseGameID(w, r.URL.Query().Get("gameId"))
			if !ok {
				return
			}
			s, err := reg.Active(id)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) *game.Session {
	return r.Context().Value(ctxKeySession).(*game.Session)
}
