package leaderboard

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/wattquiz/internal/database"
)

func setupSQLStore(t *testing.T) Store {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewSQLStore(ctx, db)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return s
}

func setupRedisStore(t *testing.T) Store {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { client.Close() })

	key := fmt.Sprintf("wattquiz:test:%s", t.Name())
	client.Del(context.Background(), key)
	t.Cleanup(func() { client.Del(context.Background(), key) })
	return NewRedisStore(client, key)
}

func TestStores(t *testing.T) {
	for name, setup := range map[string]func(*testing.T) Store{
		"sqlite": setupSQLStore,
		"redis":  setupRedisStore,
	} {
		t.Run(name, func(t *testing.T) {
			t.Run("keeps maximum", func(t *testing.T) { testKeepsMaximum(t, setup(t)) })
			t.Run("top is sorted", func(t *testing.T) { testTopSorted(t, setup(t)) })
		})
	}
}

func testKeepsMaximum(t *testing.T, s Store) {
	ctx := context.Background()

	if ok, err := s.Has(ctx, "alice"); err != nil || ok {
		t.Fatalf("has before save = %v, %v", ok, err)
	}
	for _, score := range []int{1500, 900, 2000, 1999} {
		if err := s.SaveMax(ctx, "alice", score); err != nil {
			t.Fatalf("save %d: %v", score, err)
		}
	}
	if ok, err := s.Has(ctx, "alice"); err != nil || !ok {
		t.Fatalf("has after save = %v, %v", ok, err)
	}

	top, err := s.Top(ctx, 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || top[0].Score != 2000 {
		t.Errorf("top = %+v, want alice with 2000", top)
	}
}

func testTopSorted(t *testing.T, s Store) {
	ctx := context.Background()

	for name, score := range map[string]int{"a": 300, "b": 1200, "c": 50, "d": 800} {
		if err := s.SaveMax(ctx, name, score); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	top, err := s.Top(ctx, 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	want := []string{"b", "d", "a"}
	if len(top) != len(want) {
		t.Fatalf("got %d entries, want %d", len(top), len(want))
	}
	for i, name := range want {
		if top[i].Username != name {
			t.Errorf("top[%d] = %q, want %q", i, top[i].Username, name)
		}
	}

	all, err := s.Top(ctx, 0)
	if err != nil {
		t.Fatalf("top all: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("got %d entries, want 4", len(all))
	}
}
