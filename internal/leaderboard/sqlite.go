package leaderboard

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

// SQLStore keeps the leaderboard in a libSQL table.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS scores (
		username   TEXT PRIMARY KEY,
		score      INTEGER NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`)
	if err != nil {
		return nil, fmt.Errorf("creating scores table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) SaveMax(ctx context.Context, username string, score int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (username, score) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET
			score = MAX(score, excluded.score),
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		username, score,
	)
	return err
}

func (s *SQLStore) Has(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM scores WHERE username = ?)`, username,
	).Scan(&exists)
	return exists, err
}

func (s *SQLStore) Top(ctx context.Context, limit int) ([]wattquiz.ScoreEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, score FROM scores ORDER BY score DESC, username ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []wattquiz.ScoreEntry{}
	for rows.Next() {
		var e wattquiz.ScoreEntry
		if err := rows.Scan(&e.Username, &e.Score); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
