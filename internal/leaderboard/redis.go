package leaderboard

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

const DefaultKey = "wattquiz:leaderboard"

// RedisStore keeps the leaderboard in a sorted set.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) SaveMax(ctx context.Context, username string, score int) error {
	return s.client.ZAddGT(ctx, s.key, redis.Z{
		Score:  float64(score),
		Member: username,
	}).Err()
}

func (s *RedisStore) Has(ctx context.Context, username string) (bool, error) {
	err := s.client.ZScore(ctx, s.key, username).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) Top(ctx context.Context, limit int) ([]wattquiz.ScoreEntry, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}
	results, err := s.client.ZRevRangeWithScores(ctx, s.key, 0, stop).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]wattquiz.ScoreEntry, len(results))
	for i, z := range results {
		entries[i] = wattquiz.ScoreEntry{
			Username: z.Member.(string),
			Score:    int(z.Score),
		}
	}
	return entries, nil
}
