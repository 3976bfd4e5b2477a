package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	models "io.winapps.memorialboard/internal/models/board"
)

const (
	entryCacheTTL = 24 * time.Hour
	feedCacheTTL  = 5 * time.Minute
	feedKeyPrefix = "feed:"
)

// Cached is a read-through Redis cache in front of another EntryStore.
// Cache failures never fail the request; every write invalidates the entry
// key and all cached query results.
type Cached struct {
	next   EntryStore
	redis  *redis.Client
	logger *zap.SugaredLogger
}

// NewCached wraps next with a Redis cache.
func NewCached(next EntryStore, redisClient *redis.Client, logger *zap.SugaredLogger) *Cached {
	return &Cached{next: next, redis: redisClient, logger: logger.Named("entry_cache")}
}

func entryKey(id string) string { return "entry:" + id }

func feedKey(q Query) string {
	parts := make([]string, 0, len(q.Filters)+2)
	for _, f := range q.Filters {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Field, f.Value))
	}
	dir := "asc"
	if q.Descending {
		dir = "desc"
	}
	parts = append(parts, "order="+q.OrderBy+":"+dir, fmt.Sprintf("limit=%d", q.Limit))
	return feedKeyPrefix + strings.Join(parts, "|")
}

func (c *Cached) Create(ctx context.Context, entry models.Entry) (string, error) {
	id, err := c.next.Create(ctx, entry)
	if err != nil {
		return "", err
	}
	c.invalidate(ctx, id)
	return id, nil
}

func (c *Cached) Get(ctx context.Context, id string) (*models.Entry, error) {
	if cached, err := c.redis.Get(ctx, entryKey(id)).Result(); err == nil && cached != "" {
		var e models.Entry
		if err := json.Unmarshal([]byte(cached), &e); err == nil {
			return &e, nil
		}
	}

	e, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(e); err == nil {
		if err := c.redis.Set(ctx, entryKey(id), data, entryCacheTTL).Err(); err != nil {
			c.logger.Warnw("failed to cache entry", "entry_id", id, "error", err)
		}
	}
	return e, nil
}

func (c *Cached) Query(ctx context.Context, q Query) ([]models.Entry, error) {
	key := feedKey(q)
	if cached, err := c.redis.Get(ctx, key).Result(); err == nil && cached != "" {
		var entries []models.Entry
		if err := json.Unmarshal([]byte(cached), &entries); err == nil {
			return entries, nil
		}
	}

	entries, err := c.next.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(entries); err == nil {
		if err := c.redis.Set(ctx, key, data, feedCacheTTL).Err(); err != nil {
			c.logger.Warnw("failed to cache query", "key", key, "error", err)
		}
	}
	return entries, nil
}

func (c *Cached) Update(ctx context.Context, id string, update models.EntryUpdate) error {
	if err := c.next.Update(ctx, id, update); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *Cached) Delete(ctx context.Context, id string) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *Cached) invalidate(ctx context.Context, id string) {
	if err := c.redis.Del(ctx, entryKey(id)).Err(); err != nil {
		c.logger.Warnw("failed to invalidate entry cache", "entry_id", id, "error", err)
	}
	iter := c.redis.Scan(ctx, 0, feedKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		c.redis.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warnw("failed to invalidate feed cache", "error", err)
	}
}
