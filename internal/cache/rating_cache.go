package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RatingCache caches computed title ratings so listing pages do not hit the
// reviews table on every request. A nil rating (title without reviews) is
// cached too, under a sentinel value.
type RatingCache interface {
	Get(ctx context.Context, titleID int64) (rating *float64, found bool, err error)
	Set(ctx context.Context, titleID int64, rating *float64) error
	Invalidate(ctx context.Context, titleID int64) error
}

const noRating = "none"

type ratingRedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRatingRedisCache connects to redis and verifies the connection.
func NewRatingRedisCache(redisAddr, password string, ttl time.Duration) (RatingCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &ratingRedisCache{client: rdb, ttl: ttl}, nil
}

// NoopRatingCache misses on every read and swallows writes. Stands in when
// redis is not reachable so the service still answers from the database.
type NoopRatingCache struct{}

func (NoopRatingCache) Get(ctx context.Context, titleID int64) (*float64, bool, error) {
	return nil, false, nil
}

func (NoopRatingCache) Set(ctx context.Context, titleID int64, rating *float64) error {
	return nil
}

func (NoopRatingCache) Invalidate(ctx context.Context, titleID int64) error {
	return nil
}

func ratingKey(titleID int64) string {
	return fmt.Sprintf("title:rating:%d", titleID)
}

func (c *ratingRedisCache) Get(ctx context.Context, titleID int64) (*float64, bool, error) {
	val, err := c.client.Get(ctx, ratingKey(titleID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if val == noRating {
		return nil, true, nil
	}
	rating, err := strconv.ParseFloat(val, 64)
	if err != nil {
		// unreadable entry, treat as a miss
		return nil, false, nil
	}
	return &rating, true, nil
}

func (c *ratingRedisCache) Set(ctx context.Context, titleID int64, rating *float64) error {
	val := noRating
	if rating != nil {
		val = strconv.FormatFloat(*rating, 'f', -1, 64)
	}
	return c.client.Set(ctx, ratingKey(titleID), val, c.ttl).Err()
}

func (c *ratingRedisCache) Invalidate(ctx context.Context, titleID int64) error {
	return c.client.Del(ctx, ratingKey(titleID)).Err()
}
