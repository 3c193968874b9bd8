// Package leaderboard persists the best score reached by each username.
package leaderboard

import (
	"context"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

// Store keeps one score per username. SaveMax never lowers a stored score.
type Store interface {
	SaveMax(ctx context.Context, username string, score int) error
	Has(ctx context.Context, username string) (bool, error)
	// Top returns up to limit entries by descending score; limit <= 0
	// returns all of them.
	Top(ctx context.Context, limit int) ([]wattquiz.ScoreEntry, error)
}
