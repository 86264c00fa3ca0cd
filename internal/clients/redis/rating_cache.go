package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/types"
)

// RatingCache holds per-course rating aggregates. Entries are written with a
// TTL and explicitly invalidated on the review write path, so a stale value
// can only live between a miss-refill and the next write.
type RatingCache interface {
	Get(ctx context.Context, courseID string) (*types.RatingSummary, bool, error)
	Set(ctx context.Context, summary types.RatingSummary, ttl time.Duration) error
	Invalidate(ctx context.Context, courseID string) error
	Close() error
}

// NewRatingCache returns the redis-backed cache when REDIS_ADDR is set and
// the in-process fallback otherwise, so a bare checkout still serves
// rating summaries.
func NewRatingCache(log *logger.Logger) (RatingCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Info("REDIS_ADDR unset, using in-process rating cache")
		return NewMemoryRatingCache(), nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &ratingCache{
		log: log.With("service", "RedisRatingCache"),
		rdb: rdb,
	}, nil
}

type ratingCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func ratingKey(courseID string) string { return "rating:" + courseID }

func (c *ratingCache) Get(ctx context.Context, courseID string) (*types.RatingSummary, bool, error) {
	raw, err := c.rdb.Get(ctx, ratingKey(courseID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("rating cache get: %w", err)
	}
	var summary types.RatingSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		// A corrupt entry behaves like a miss; the caller refills it.
		c.log.Warn("Dropping undecodable rating cache entry", "course_id", courseID, "error", err)
		return nil, false, nil
	}
	return &summary, true, nil
}

func (c *ratingCache) Set(ctx context.Context, summary types.RatingSummary, ttl time.Duration) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("rating cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, ratingKey(summary.CourseID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("rating cache set: %w", err)
	}
	return nil
}

func (c *ratingCache) Invalidate(ctx context.Context, courseID string) error {
	if err := c.rdb.Del(ctx, ratingKey(courseID)).Err(); err != nil {
		return fmt.Errorf("rating cache invalidate: %w", err)
	}
	return nil
}

func (c *ratingCache) Close() error {
	return c.rdb.Close()
}
