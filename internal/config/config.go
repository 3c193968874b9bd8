package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/wattquiz.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	// RedisURL selects the Redis leaderboard; empty keeps scores in SQLite.
	RedisURL string `env:"REDIS_URL"`
	// MongoURI selects the MongoDB content store; empty keeps facts in SQLite.
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"wattquiz"`

	AnswerWindow        time.Duration `env:"ANSWER_WINDOW" envDefault:"20s"`
	TransitionDelay     time.Duration `env:"TRANSITION_DELAY" envDefault:"5s"`
	PollTimeout         time.Duration `env:"POLL_TIMEOUT" envDefault:"30s"`
	FinishedTTL         time.Duration `env:"FINISHED_TTL" envDefault:"2m"`
	MinQuestionsPerType int           `env:"MIN_QUESTIONS_PER_TYPE" envDefault:"3"`
	SeedFacts           bool          `env:"SEED_FACTS" envDefault:"true"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the game cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}
	for name, d := range map[string]time.Duration{
		"ANSWER_WINDOW":    c.AnswerWindow,
		"TRANSITION_DELAY": c.TransitionDelay,
		"POLL_TIMEOUT":     c.PollTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.FinishedTTL < 0 {
		errs = append(errs, fmt.Errorf("FINISHED_TTL must not be negative, got %s", c.FinishedTTL))
	}
	if c.MinQuestionsPerType < 0 || c.MinQuestionsPerType*len(wattquiz.Kinds) > wattquiz.QuestionsPerSession {
		errs = append(errs, fmt.Errorf("MIN_QUESTIONS_PER_TYPE %d does not fit %d questions of %d kinds",
			c.MinQuestionsPerType, wattquiz.QuestionsPerSession, len(wattquiz.Kinds)))
	}
	return errors.Join(errs...)
}
