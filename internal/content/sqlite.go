package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

// SQLStore implements Store on a libSQL database.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS facts (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			consumption INTEGER NOT NULL,
			image_path  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS facts_consumption ON facts (consumption)`,
	} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return nil, fmt.Errorf("creating facts table: %w", err)
		}
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Put(ctx context.Context, f wattquiz.Fact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO facts (id, title, consumption, image_path) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, consumption = excluded.consumption, image_path = excluded.image_path`,
		f.ID, f.Title, int64(f.Consumption), f.ImagePath,
	)
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (wattquiz.Fact, error) {
	return scanFact(s.db.QueryRowContext(ctx,
		`SELECT id, title, consumption, image_path FROM facts WHERE id = ?`, id,
	))
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM facts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facts`).Scan(&n)
	return n, err
}

func (s *SQLStore) RandomFact(ctx context.Context, flt wattquiz.Filter) (wattquiz.Fact, error) {
	where := []string{"consumption >= ?"}
	args := []any{int64(flt.Min)}

	if flt.Max != 0 {
		where = append(where, "consumption <= ?")
		args = append(args, int64(flt.Max))
	}
	if len(flt.ExcludeIDs) > 0 {
		where = append(where, "id NOT IN ("+placeholders(len(flt.ExcludeIDs))+")")
		for _, id := range flt.ExcludeIDs {
			args = append(args, id)
		}
	}
	if len(flt.ExcludeValues) > 0 {
		where = append(where, "consumption NOT IN ("+placeholders(len(flt.ExcludeValues))+")")
		for _, v := range flt.ExcludeValues {
			args = append(args, int64(v))
		}
	}

	f, err := scanFact(s.db.QueryRowContext(ctx,
		`SELECT id, title, consumption, image_path FROM facts WHERE `+strings.Join(where, " AND ")+
			` ORDER BY RANDOM() LIMIT 1`,
		args...,
	))
	if err != nil {
		return wattquiz.Fact{}, fmt.Errorf("random fact: %w", err)
	}
	return f, nil
}

func scanFact(row *sql.Row) (wattquiz.Fact, error) {
	var (
		f           wattquiz.Fact
		consumption int64
	)
	err := row.Scan(&f.ID, &f.Title, &consumption, &f.ImagePath)
	if errors.Is(err, sql.ErrNoRows) {
		return wattquiz.Fact{}, ErrNotFound
	}
	if err != nil {
		return wattquiz.Fact{}, err
	}
	f.Consumption = uint64(consumption)
	return f, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
