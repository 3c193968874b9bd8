package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/wattquiz/internal/config"
	"github.com/playperu/wattquiz/internal/content"
	"github.com/playperu/wattquiz/internal/database"
	"github.com/playperu/wattquiz/internal/game"
	"github.com/playperu/wattquiz/internal/handler/health"
	"github.com/playperu/wattquiz/internal/leaderboard"
	"github.com/playperu/wattquiz/internal/question"
	"github.com/playperu/wattquiz/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	checks := map[string]health.Checker{}

	// --- SQLite ---
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()
	checks["sqlite"] = health.CheckerFunc(db.PingContext)
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Content ---
	facts, closeFacts, err := openContent(ctx, cfg, db, checks)
	if err != nil {
		return err
	}
	defer closeFacts()

	if cfg.SeedFacts {
		if err := content.Seed(ctx, logger.With("component", "content"), facts); err != nil {
			return fmt.Errorf("seeding facts: %w", err)
		}
	}

	// --- Leaderboard ---
	scores, closeScores, err := openLeaderboard(ctx, cfg, db, checks)
	if err != nil {
		return err
	}
	defer closeScores()
	logger.Info("leaderboard ready", "redis", cfg.RedisURL != "")

	// --- Game ---
	seed := uint64(time.Now().UnixNano())
	generator := question.NewGenerator(facts, rand.New(rand.NewPCG(seed, seed>>1)), logger.With("component", "question"))

	broker := game.NewBroker()
	registry := game.NewRegistry(generator, scores, broker, logger.With("component", "game"), game.Config{
		Timing: game.Timing{
			AnswerWindow:    cfg.AnswerWindow,
			TransitionDelay: cfg.TransitionDelay,
		},
		MinPerType:  cfg.MinQuestionsPerType,
		FinishedTTL: cfg.FinishedTTL,
	})
	defer registry.Close()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Registry:    registry,
		Broker:      broker,
		Scores:      scores,
		PollTimeout: cfg.PollTimeout,
		SPADir:      cfg.SPADir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// openContent returns the MongoDB fact store when MONGO_URI is set and the
// SQLite one otherwise.
func openContent(ctx context.Context, cfg *config.Config, db *sql.DB, checks map[string]health.Checker) (content.Store, func(), error) {
	if cfg.MongoURI == "" {
		s, err := content.NewSQLStore(ctx, db)
		if err != nil {
			return nil, nil, fmt.Errorf("preparing fact store: %w", err)
		}
		return s, func() {}, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	disconnect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	if err := client.Ping(ctx, nil); err != nil {
		disconnect()
		return nil, nil, fmt.Errorf("pinging mongo: %w", err)
	}

	s, err := content.NewMongoStore(ctx, client.Database(cfg.MongoDatabase))
	if err != nil {
		disconnect()
		return nil, nil, fmt.Errorf("preparing fact store: %w", err)
	}
	checks["mongo"] = health.CheckerFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) })
	return s, disconnect, nil
}

// openLeaderboard returns the Redis leaderboard when REDIS_URL is set and
// the SQLite one otherwise.
func openLeaderboard(ctx context.Context, cfg *config.Config, db *sql.DB, checks map[string]health.Checker) (leaderboard.Store, func(), error) {
	if cfg.RedisURL == "" {
		s, err := leaderboard.NewSQLStore(ctx, db)
		if err != nil {
			return nil, nil, fmt.Errorf("preparing leaderboard: %w", err)
		}
		return s, func() {}, nil
	}

	rdb, err := openRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	checks["redis"] = health.CheckerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	return leaderboard.NewRedisStore(rdb, leaderboard.DefaultKey), func() { rdb.Close() }, nil
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
