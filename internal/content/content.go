// Package content stores the activity facts questions are built from.
package content

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

var ErrNotFound = wattquiz.ErrNotFound

// Store is CRUD plus filtered random lookup over facts.
type Store interface {
	Put(ctx context.Context, f wattquiz.Fact) error
	Get(ctx context.Context, id string) (wattquiz.Fact, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	RandomFact(ctx context.Context, flt wattquiz.Filter) (wattquiz.Fact, error)
}

//go:embed facts.json
var seedFacts []byte

// Seed loads the bundled facts if the store is empty.
// Idempotent: does nothing if facts already exist.
func Seed(ctx context.Context, logger *slog.Logger, s Store) error {
	n, err := s.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting facts: %w", err)
	}
	if n > 0 {
		return nil
	}

	var facts []wattquiz.Fact
	if err := json.Unmarshal(seedFacts, &facts); err != nil {
		return fmt.Errorf("decoding seed facts: %w", err)
	}
	for _, f := range facts {
		if err := s.Put(ctx, f); err != nil {
			return fmt.Errorf("seeding fact %q: %w", f.ID, err)
		}
	}

	logger.Info("content store seeded", "facts", len(facts))
	return nil
}
