package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("wattquiz API", "/openapi.json", "/docs"))

	r.Post("/join", handleJoin(logger, d.Registry))
	r.Post("/leave", handleLeave(d.Registry))

	// Game routes. The open lobby is rejected where a started game is
	// required; push topics accept it so lobby members see joins.
	r.Post("/game/start", handleStart(logger, d.Registry))
	r.Group(func(r chi.Router) {
		r.Use(activeGameMiddleware(d.Registry))
		r.Get("/game/questions", handleQuestions())
		r.Get("/game", handlePoll(logger, d.PollTimeout))
	})
	r.Post("/game/answer", handleAnswer(d.Registry))
	r.Post("/game/emoji", handleEmoji(d.Registry))
	r.Post("/jokers/{kind}", handleJoker(d.Registry))

	r.Get("/game/events", handleEvents(d.Registry, d.Broker))
	r.Get("/ws/game", handleGameSocket(logger, d.Registry, d.Broker))

	r.Get("/scores", handleScores(logger, d.Scores))
	r.Get("/scores/sorted", handleScores(logger, d.Scores))

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
