// Command quizbot plays singleplayer games against a running server. It is
// a smoke test for the long-poll flow.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/wattquiz/internal/client"
	"github.com/playperu/wattquiz/internal/wattquiz"
)

type config struct {
	ServerURL string     `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	Players   int        `env:"BOT_PLAYERS" envDefault:"1"`
	Accuracy  float64    `env:"BOT_ACCURACY" envDefault:"0.7"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	c := client.New(cfg.ServerURL, &http.Client{Timeout: 2 * time.Minute}, logger)

	g, gctx := errgroup.WithContext(ctx)
	for i := range cfg.Players {
		name := fmt.Sprintf("bot-%d-%s", i, uuid.NewString()[:4])
		g.Go(func() error {
			return play(gctx, c, logger.With("bot", name), name, cfg.Accuracy)
		})
	}
	return g.Wait()
}

func play(ctx context.Context, c *client.Client, logger *slog.Logger, name string, accuracy float64) error {
	u, err := c.Join(ctx, name, wattquiz.ModeSingleplayer, true)
	if err != nil {
		return err
	}
	list, ok := u.(wattquiz.FullPlayerList)
	if !ok {
		return fmt.Errorf("join rejected: %s", u.Kind())
	}

	questions, err := c.Questions(ctx, list.GameID)
	if err != nil {
		return err
	}

	defer c.Leave(context.WithoutCancel(ctx), list.GameID, name)
	return c.Follow(ctx, list.GameID, name, func(u wattquiz.Update) error {
		switch u := u.(type) {
		case wattquiz.NextQuestion:
			q := questions[u.Index]
			return c.Answer(ctx, list.GameID, name, guess(q, accuracy))
		case wattquiz.GameFinished:
			for _, e := range u.Scores {
				logger.Info("game finished", "username", e.Username, "score", e.Score)
			}
		}
		return nil
	})
}

// guess returns the right answer with probability accuracy, otherwise a
// plausible wrong one.
func guess(q wattquiz.Question, accuracy float64) int64 {
	if rand.Float64() < accuracy {
		return q.Answer
	}
	if q.MultipleChoice() {
		return int64(rand.IntN(len(q.Options)))
	}
	return q.Answer/2 + rand.Int64N(q.Answer+1)
}
