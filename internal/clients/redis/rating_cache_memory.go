package redis

import (
	"context"
	"sync"
	"time"

	"github.com/courseloom/courseloom-backend/internal/types"
)

// memoryRatingCache mirrors the redis semantics in process, including TTL
// expiry. It backs dev checkouts without redis and the service tests.
type memoryRatingCache struct {
	mu      sync.RWMutex
	entries map[string]memoryRatingEntry
}

type memoryRatingEntry struct {
	summary   types.RatingSummary
	expiresAt time.Time
}

func NewMemoryRatingCache() RatingCache {
	return &memoryRatingCache{entries: make(map[string]memoryRatingEntry)}
}

func (c *memoryRatingCache) Get(ctx context.Context, courseID string) (*types.RatingSummary, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[courseID]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, courseID)
		c.mu.Unlock()
		return nil, false, nil
	}
	summary := e.summary
	return &summary, true, nil
}

func (c *memoryRatingCache) Set(ctx context.Context, summary types.RatingSummary, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[summary.CourseID] = memoryRatingEntry{summary: summary, expiresAt: expires}
	c.mu.Unlock()
	return nil
}

func (c *memoryRatingCache) Invalidate(ctx context.Context, courseID string) error {
	c.mu.Lock()
	delete(c.entries, courseID)
	c.mu.Unlock()
	return nil
}

func (c *memoryRatingCache) Close() error { return nil }
